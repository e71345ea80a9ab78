package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
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

func CreateBrand(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.PostForm("name"))
		description := strings.TrimSpace(c.PostForm("description"))
		if name == "" || description == "" {
			respondWithError(c, http.StatusBadRequest, "BRAND", "name and description are required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("brands").CountDocuments(ctx, bson.M{"name": name})
		if err != nil {
			log.Println("[BRAND] [ERROR] duplicate check failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BRAND", "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusBadRequest, "BRAND", "brand already exists")
			return
		}

		image, err := saveFormImage(c, store, "brands")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "BRAND", err.Error())
			return
		}
		if image == nil {
			respondWithError(c, http.StatusBadRequest, "BRAND", "brand image is required")
			return
		}

		now := time.Now()
		brand := models.Brand{
			Name:        name,
			Description: description,
			Image:       *image,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := db.Collection("brands").InsertOne(ctx, brand)
		if err != nil {
			// The asset write already happened; drop the orphan.
			if cleanupErr := store.Delete(image.AssetID); cleanupErr != nil {
				log.Println("[BRAND] [ERROR] orphan asset cleanup failed:", cleanupErr)
			}
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusBadRequest, "BRAND", "brand already exists")
				return
			}
			log.Println("[BRAND] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BRAND", "error creating brand")
			return
		}

		brand.ID, _ = res.InsertedID.(primitive.ObjectID)
		log.Println("[BRAND] [INFO] brand created:", brand.Name)
		c.JSON(http.StatusCreated, gin.H{
			"message": "brand created successfully",
			"brand":   brand,
		})
	}
}

// GetBrands lists brands; sort=name gives the alphabetical picker order,
// anything else the newest-first admin order.
func GetBrands(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		sortSpec := bson.D{{Key: "createdAt", Value: -1}}
		if c.Query("sort") == "name" {
			sortSpec = bson.D{{Key: "name", Value: 1}}
		}

		cursor, err := db.Collection("brands").Find(ctx, bson.M{}, options.Find().SetSort(sortSpec))
		if err != nil {
			log.Println("[BRAND] [ERROR] list failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BRAND", "error fetching brands")
			return
		}
		defer cursor.Close(ctx)

		brands := make([]models.Brand, 0)
		if err := cursor.All(ctx, &brands); err != nil {
			log.Println("[BRAND] [ERROR] decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BRAND", "error fetching brands")
			return
		}

		c.JSON(http.StatusOK, brands)
	}
}

func GetBrand(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "BRAND", "invalid brand id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var brand models.Brand
		if err := db.Collection("brands").FindOne(ctx, bson.M{"_id": id}).Decode(&brand); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, "BRAND", "brand not found")
				return
			}
			log.Println("[BRAND] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BRAND", "db error")
			return
		}

		c.JSON(http.StatusOK, brand)
	}
}

// UpdateBrand replaces fields and optionally the image. The new asset is
// written first and the old one removed only after the entity write is
// confirmed, so a failed write never leaves the brand without an image.
func UpdateBrand(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "BRAND", "invalid brand id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var brand models.Brand
		if err := db.Collection("brands").FindOne(ctx, bson.M{"_id": id}).Decode(&brand); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, "BRAND", "brand not found")
				return
			}
			log.Println("[BRAND] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BRAND", "db error")
			return
		}

		name := strings.TrimSpace(c.PostForm("name"))
		description := strings.TrimSpace(c.PostForm("description"))
		if name == "" || description == "" {
			respondWithError(c, http.StatusBadRequest, "BRAND", "name and description are required")
			return
		}

		newImage, err := saveFormImage(c, store, "brands")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "BRAND", err.Error())
			return
		}

		update := bson.M{
			"name":        name,
			"description": description,
			"updatedAt":   time.Now(),
		}
		if newImage != nil {
			update["image"] = *newImage
		}

		if _, err := db.Collection("brands").UpdateByID(ctx, id, bson.M{"$set": update}); err != nil {
			if newImage != nil {
				if cleanupErr := store.Delete(newImage.AssetID); cleanupErr != nil {
					log.Println("[BRAND] [ERROR] new asset cleanup failed:", cleanupErr)
				}
			}
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusBadRequest, "BRAND", "brand already exists")
				return
			}
			log.Println("[BRAND] [ERROR] update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BRAND", "error updating brand")
			return
		}

		if newImage != nil {
			if err := store.Delete(brand.Image.AssetID); err != nil {
				log.Println("[BRAND] [ERROR] old asset delete failed:", err)
			}
			brand.Image = *newImage
		}
		brand.Name = name
		brand.Description = description
		brand.UpdatedAt = update["updatedAt"].(time.Time)

		log.Println("[BRAND] [INFO] brand updated:", brand.Name)
		c.JSON(http.StatusOK, gin.H{
			"message": "brand updated successfully",
			"brand":   brand,
		})
	}
}

func DeleteBrand(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "BRAND", "invalid brand id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var brand models.Brand
		if err := db.Collection("brands").FindOne(ctx, bson.M{"_id": id}).Decode(&brand); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, "BRAND", "brand not found")
				return
			}
			log.Println("[BRAND] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BRAND", "db error")
			return
		}

		// Asset removal is best-effort; a dangling file never blocks the
		// entity delete.
		if err := store.Delete(brand.Image.AssetID); err != nil {
			log.Println("[BRAND] [ERROR] asset delete failed:", err)
		}

		if _, err := db.Collection("brands").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			log.Println("[BRAND] [ERROR] delete failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BRAND", "error deleting brand")
			return
		}

		log.Println("[BRAND] [INFO] brand deleted:", brand.Name)
		c.JSON(http.StatusOK, gin.H{"message": "brand deleted successfully"})
	}
}
