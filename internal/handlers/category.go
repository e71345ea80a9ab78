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

func CreateCategory(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.PostForm("name"))
		description := strings.TrimSpace(c.PostForm("description"))
		if name == "" || description == "" {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", "name and description are required")
			return
		}

		brandID, err := optionalObjectID(c.PostForm("brand"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", "invalid brand id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("categories").CountDocuments(ctx, bson.M{"name": name})
		if err != nil {
			log.Println("[CATEGORY] [ERROR] duplicate check failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CATEGORY", "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", "category already exists")
			return
		}

		image, err := saveFormImage(c, store, "categories")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", err.Error())
			return
		}
		if image == nil {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", "category image is required")
			return
		}

		now := time.Now()
		category := models.Category{
			Name:        name,
			Brand:       brandID,
			Description: description,
			Image:       *image,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := db.Collection("categories").InsertOne(ctx, category)
		if err != nil {
			if cleanupErr := store.Delete(image.AssetID); cleanupErr != nil {
				log.Println("[CATEGORY] [ERROR] orphan asset cleanup failed:", cleanupErr)
			}
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusBadRequest, "CATEGORY", "category already exists")
				return
			}
			log.Println("[CATEGORY] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CATEGORY", "error creating category")
			return
		}

		category.ID, _ = res.InsertedID.(primitive.ObjectID)
		log.Println("[CATEGORY] [INFO] category created:", category.Name)
		c.JSON(http.StatusCreated, gin.H{
			"message":  "category created successfully",
			"category": category,
		})
	}
}

func GetCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		sortSpec := bson.D{{Key: "createdAt", Value: -1}}
		if c.Query("sort") == "name" {
			sortSpec = bson.D{{Key: "name", Value: 1}}
		}

		cursor, err := db.Collection("categories").Find(ctx, bson.M{}, options.Find().SetSort(sortSpec))
		if err != nil {
			log.Println("[CATEGORY] [ERROR] list failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CATEGORY", "error fetching categories")
			return
		}
		defer cursor.Close(ctx)

		categories := make([]models.Category, 0)
		if err := cursor.All(ctx, &categories); err != nil {
			log.Println("[CATEGORY] [ERROR] decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CATEGORY", "error fetching categories")
			return
		}

		c.JSON(http.StatusOK, categories)
	}
}

func UpdateCategory(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", "invalid category id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var category models.Category
		if err := db.Collection("categories").FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, "CATEGORY", "category not found")
				return
			}
			log.Println("[CATEGORY] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CATEGORY", "db error")
			return
		}

		name := strings.TrimSpace(c.PostForm("name"))
		description := strings.TrimSpace(c.PostForm("description"))
		if name == "" || description == "" {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", "name and description are required")
			return
		}

		brandID, err := optionalObjectID(c.PostForm("brand"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", "invalid brand id")
			return
		}

		newImage, err := saveFormImage(c, store, "categories")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", err.Error())
			return
		}

		update := bson.M{
			"name":        name,
			"description": description,
			"brand":       brandID,
			"updatedAt":   time.Now(),
		}
		if newImage != nil {
			update["image"] = *newImage
		}

		if _, err := db.Collection("categories").UpdateByID(ctx, id, bson.M{"$set": update}); err != nil {
			if newImage != nil {
				if cleanupErr := store.Delete(newImage.AssetID); cleanupErr != nil {
					log.Println("[CATEGORY] [ERROR] new asset cleanup failed:", cleanupErr)
				}
			}
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusBadRequest, "CATEGORY", "category already exists")
				return
			}
			log.Println("[CATEGORY] [ERROR] update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CATEGORY", "error updating category")
			return
		}

		if newImage != nil {
			if err := store.Delete(category.Image.AssetID); err != nil {
				log.Println("[CATEGORY] [ERROR] old asset delete failed:", err)
			}
			category.Image = *newImage
		}
		category.Name = name
		category.Description = description
		category.Brand = brandID
		category.UpdatedAt = update["updatedAt"].(time.Time)

		log.Println("[CATEGORY] [INFO] category updated:", category.Name)
		c.JSON(http.StatusOK, gin.H{
			"message":  "category updated successfully",
			"category": category,
		})
	}
}

func DeleteCategory(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "CATEGORY", "invalid category id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var category models.Category
		if err := db.Collection("categories").FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, "CATEGORY", "category not found")
				return
			}
			log.Println("[CATEGORY] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CATEGORY", "db error")
			return
		}

		if err := store.Delete(category.Image.AssetID); err != nil {
			log.Println("[CATEGORY] [ERROR] asset delete failed:", err)
		}

		if _, err := db.Collection("categories").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			log.Println("[CATEGORY] [ERROR] delete failed:", err)
			respondWithError(c, http.StatusInternalServerError, "CATEGORY", "error deleting category")
			return
		}

		log.Println("[CATEGORY] [INFO] category deleted:", category.Name)
		c.JSON(http.StatusOK, gin.H{"message": "category deleted successfully"})
	}
}
