package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"medsupply/internal/assets"
	"medsupply/internal/models"
)

// saveFormImage extracts the multipart "image" field and persists it to the
// asset store. A missing file is not an error here; create handlers enforce
// presence themselves.
func saveFormImage(c *gin.Context, store assets.Store, folder string) (*models.Image, error) {
	file, err := c.FormFile("image")
	if err != nil {
		// Gin versions differ on the missing-file error value.
		if errors.Is(err, http.ErrMissingFile) || strings.Contains(err.Error(), "no such file") {
			return nil, nil
		}
		return nil, err
	}

	image, err := store.Save(file, folder)
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// optionalObjectID parses a weak-reference form field: blank means "none".
func optionalObjectID(value string) (*primitive.ObjectID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(trimmed)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
