package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medsupply/internal/assets"
	"medsupply/internal/models"
)

// GetSlides is the public slider feed, ordered by position.
func GetSlides(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("slides").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
		if err != nil {
			log.Println("[SLIDE] [ERROR] list failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SLIDE", "error fetching slides")
			return
		}
		defer cursor.Close(ctx)

		slides := make([]models.Slide, 0)
		if err := cursor.All(ctx, &slides); err != nil {
			log.Println("[SLIDE] [ERROR] decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SLIDE", "error fetching slides")
			return
		}

		c.JSON(http.StatusOK, slides)
	}
}

// GetAllSlides is the admin listing, newest first.
func GetAllSlides(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("slides").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			log.Println("[SLIDE] [ERROR] admin list failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SLIDE", "error fetching slides")
			return
		}
		defer cursor.Close(ctx)

		slides := make([]models.Slide, 0)
		if err := cursor.All(ctx, &slides); err != nil {
			log.Println("[SLIDE] [ERROR] admin decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SLIDE", "error fetching slides")
			return
		}

		c.JSON(http.StatusOK, slides)
	}
}

func CreateSlide(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		image, err := saveFormImage(c, store, "slides")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "SLIDE", err.Error())
			return
		}
		if image == nil {
			respondWithError(c, http.StatusBadRequest, "SLIDE", "slide image is required")
			return
		}

		isActive := true
		if value, ok := c.GetPostForm("isActive"); ok {
			parsed, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, "SLIDE", "invalid isActive value")
				return
			}
			isActive = parsed
		}

		order := 0
		if value, ok := c.GetPostForm("order"); ok {
			parsed, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, "SLIDE", "invalid order value")
				return
			}
			order = parsed
		}

		slide := models.Slide{
			Title:       strings.TrimSpace(c.PostForm("title")),
			Description: strings.TrimSpace(c.PostForm("description")),
			Link:        strings.TrimSpace(c.PostForm("link")),
			Image:       *image,
			IsActive:    isActive,
			Order:       order,
			CreatedAt:   time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("slides").InsertOne(ctx, slide)
		if err != nil {
			if cleanupErr := store.Delete(image.AssetID); cleanupErr != nil {
				log.Println("[SLIDE] [ERROR] orphan asset cleanup failed:", cleanupErr)
			}
			log.Println("[SLIDE] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SLIDE", "error creating slide")
			return
		}

		slide.ID, _ = res.InsertedID.(primitive.ObjectID)
		log.Println("[SLIDE] [INFO] slide created:", slide.ID.Hex())
		c.JSON(http.StatusCreated, slide)
	}
}

func DeleteSlide(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "SLIDE", "invalid slide id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var slide models.Slide
		if err := db.Collection("slides").FindOne(ctx, bson.M{"_id": id}).Decode(&slide); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, "SLIDE", "slide not found")
				return
			}
			log.Println("[SLIDE] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SLIDE", "db error")
			return
		}

		if err := store.Delete(slide.Image.AssetID); err != nil {
			log.Println("[SLIDE] [ERROR] asset delete failed:", err)
		}

		if _, err := db.Collection("slides").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			log.Println("[SLIDE] [ERROR] delete failed:", err)
			respondWithError(c, http.StatusInternalServerError, "SLIDE", "error deleting slide")
			return
		}

		log.Println("[SLIDE] [INFO] slide deleted:", id.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "slide removed successfully"})
	}
}
