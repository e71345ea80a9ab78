package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medsupply/internal/assets"
	"medsupply/internal/middleware"
	"medsupply/internal/models"
	"medsupply/internal/reviews"
)

// refSummary is the resolved form of a weak reference in responses.
type refSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// resolveRef looks a weak reference up by id. A nil id or a dangling
// reference both come back nil; the catalog treats either as "none".
func resolveRef(ctx context.Context, db *mongo.Database, collection string, id *primitive.ObjectID) *refSummary {
	if id == nil {
		return nil
	}

	var doc struct {
		ID   primitive.ObjectID `bson:"_id"`
		Name string             `bson:"name"`
	}
	err := db.Collection(collection).FindOne(ctx, bson.M{"_id": *id}).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			log.Printf("[PRODUCT] [ERROR] %s reference lookup failed: %v", collection, err)
		}
		return nil
	}
	return &refSummary{ID: doc.ID.Hex(), Name: doc.Name}
}

func CreateProduct(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.PostForm("name"))
		if name == "" {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "name is required")
			return
		}

		brandID, err := optionalObjectID(c.PostForm("brand"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "invalid brand id")
			return
		}
		categoryID, err := optionalObjectID(c.PostForm("category"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "invalid category id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("products").CountDocuments(ctx, bson.M{"name": name})
		if err != nil {
			log.Println("[PRODUCT] [ERROR] duplicate check failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "product already exists")
			return
		}

		image, err := saveFormImage(c, store, "products")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", err.Error())
			return
		}
		if image == nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "product image is required")
			return
		}

		now := time.Now()
		product := models.Product{
			Name:                  name,
			Brand:                 brandID,
			Category:              categoryID,
			ShortDescription:      strings.TrimSpace(c.PostForm("shortDescription")),
			LongDescription:       strings.TrimSpace(c.PostForm("longDescription")),
			AdditionalInformation: strings.TrimSpace(c.PostForm("additionalInformation")),
			Image:                 *image,
			Reviews:               []models.Review{},
			CreatedAt:             now,
			UpdatedAt:             now,
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			if cleanupErr := store.Delete(image.AssetID); cleanupErr != nil {
				log.Println("[PRODUCT] [ERROR] orphan asset cleanup failed:", cleanupErr)
			}
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusBadRequest, "PRODUCT", "product already exists")
				return
			}
			log.Println("[PRODUCT] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error creating product")
			return
		}

		product.ID, _ = res.InsertedID.(primitive.ObjectID)
		log.Println("[PRODUCT] [INFO] product created:", product.Name)
		c.JSON(http.StatusCreated, gin.H{
			"message": "product created successfully",
			"product": product,
		})
	}
}

// GetProducts is the public catalog listing, newest first, paginated via
// page/limit query parameters.
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("products").Find(ctx, bson.M{}, findOptions)
		if err != nil {
			log.Println("[PRODUCT] [ERROR] list failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error fetching products")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			log.Println("[PRODUCT] [ERROR] decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error fetching products")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

// GetAllProducts is the admin listing: every product, newest first, with
// brand and category names resolved in bulk.
func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			log.Println("[PRODUCT] [ERROR] admin list failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error fetching products")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			log.Println("[PRODUCT] [ERROR] admin list decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error fetching products")
			return
		}

		brandNames, err := loadNamesByID(ctx, db, "brands")
		if err != nil {
			log.Println("[PRODUCT] [ERROR] brand names load failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "db error")
			return
		}
		categoryNames, err := loadNamesByID(ctx, db, "categories")
		if err != nil {
			log.Println("[PRODUCT] [ERROR] category names load failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "db error")
			return
		}

		out := make([]gin.H, 0, len(products))
		for _, product := range products {
			entry := gin.H{
				"id":               product.ID.Hex(),
				"name":             product.Name,
				"brand":            summarizeRef(product.Brand, brandNames),
				"category":         summarizeRef(product.Category, categoryNames),
				"shortDescription": product.ShortDescription,
				"image":            product.Image,
				"rating":           product.Rating,
				"numReviews":       product.NumReviews,
				"createdAt":        product.CreatedAt,
				"updatedAt":        product.UpdatedAt,
			}
			out = append(out, entry)
		}

		c.JSON(http.StatusOK, out)
	}
}

func loadNamesByID(ctx context.Context, db *mongo.Database, collection string) (map[primitive.ObjectID]string, error) {
	cursor, err := db.Collection(collection).Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	names := make(map[primitive.ObjectID]string)
	for cursor.Next(ctx) {
		var doc struct {
			ID   primitive.ObjectID `bson:"_id"`
			Name string             `bson:"name"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		names[doc.ID] = doc.Name
	}
	return names, cursor.Err()
}

// summarizeRef resolves a weak reference against a preloaded name map;
// dangling references degrade to nil.
func summarizeRef(id *primitive.ObjectID, names map[primitive.ObjectID]string) *refSummary {
	if id == nil {
		return nil
	}
	name, ok := names[*id]
	if !ok {
		return nil
	}
	return &refSummary{ID: id.Hex(), Name: name}
}

// GetProductView returns one product with its weak references resolved and
// reviews populated for rendering.
func GetProductView(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, "PRODUCT", "product not found")
				return
			}
			log.Println("[PRODUCT] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":                    product.ID.Hex(),
			"name":                  product.Name,
			"brand":                 resolveRef(ctx, db, "brands", product.Brand),
			"category":              resolveRef(ctx, db, "categories", product.Category),
			"shortDescription":      product.ShortDescription,
			"longDescription":       product.LongDescription,
			"additionalInformation": product.AdditionalInformation,
			"image":                 product.Image,
			"reviews":               product.Reviews,
			"rating":                product.Rating,
			"numReviews":            product.NumReviews,
			"createdAt":             product.CreatedAt,
			"updatedAt":             product.UpdatedAt,
		})
	}
}

// GetRelatedProducts lists up to four other products that share a brand.
func GetRelatedProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		brandID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("brandId")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "invalid brand id")
			return
		}

		filter := bson.M{"brand": brandID}
		if exclude, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Query("exclude"))); err == nil {
			filter["_id"] = bson.M{"$ne": exclude}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, options.Find().SetLimit(4))
		if err != nil {
			log.Println("[PRODUCT] [ERROR] related list failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error fetching related products")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			log.Println("[PRODUCT] [ERROR] related decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error fetching related products")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

// GetProductsByBrand lists a brand's products for the brand page, capped at
// twelve entries.
func GetProductsByBrand(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		brandID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("brandId")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "invalid brand id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, bson.M{"brand": brandID}, options.Find().SetLimit(12))
		if err != nil {
			log.Println("[PRODUCT] [ERROR] brand list failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error fetching products")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			log.Println("[PRODUCT] [ERROR] brand list decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error fetching products")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

func UpdateProduct(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, "PRODUCT", "product not found")
				return
			}
			log.Println("[PRODUCT] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "db error")
			return
		}

		update := bson.M{"updatedAt": time.Now()}

		if value, ok := c.GetPostForm("name"); ok {
			name := strings.TrimSpace(value)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, "PRODUCT", "name is required")
				return
			}
			update["name"] = name
		}
		if value, ok := c.GetPostForm("shortDescription"); ok {
			update["shortDescription"] = strings.TrimSpace(value)
		}
		if value, ok := c.GetPostForm("longDescription"); ok {
			update["longDescription"] = strings.TrimSpace(value)
		}
		if value, ok := c.GetPostForm("additionalInformation"); ok {
			update["additionalInformation"] = strings.TrimSpace(value)
		}
		if value, ok := c.GetPostForm("brand"); ok {
			brandID, err := optionalObjectID(value)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, "PRODUCT", "invalid brand id")
				return
			}
			update["brand"] = brandID
		}
		if value, ok := c.GetPostForm("category"); ok {
			categoryID, err := optionalObjectID(value)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, "PRODUCT", "invalid category id")
				return
			}
			update["category"] = categoryID
		}

		newImage, err := saveFormImage(c, store, "products")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", err.Error())
			return
		}
		if newImage != nil {
			update["image"] = *newImage
		}

		if _, err := db.Collection("products").UpdateByID(ctx, id, bson.M{"$set": update}); err != nil {
			if newImage != nil {
				if cleanupErr := store.Delete(newImage.AssetID); cleanupErr != nil {
					log.Println("[PRODUCT] [ERROR] new asset cleanup failed:", cleanupErr)
				}
			}
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusBadRequest, "PRODUCT", "product already exists")
				return
			}
			log.Println("[PRODUCT] [ERROR] update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error updating product")
			return
		}

		// Entity write confirmed; now the old asset can go.
		if newImage != nil {
			if err := store.Delete(product.Image.AssetID); err != nil {
				log.Println("[PRODUCT] [ERROR] old asset delete failed:", err)
			}
		}

		var updated models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&updated); err != nil {
			log.Println("[PRODUCT] [ERROR] reload failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "db error")
			return
		}

		log.Println("[PRODUCT] [INFO] product updated:", updated.Name)
		c.JSON(http.StatusOK, gin.H{
			"message": "product updated successfully",
			"product": updated,
		})
	}
}

func DeleteProduct(db *mongo.Database, store assets.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PRODUCT", "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, "PRODUCT", "product not found")
				return
			}
			log.Println("[PRODUCT] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "db error")
			return
		}

		if err := store.Delete(product.Image.AssetID); err != nil {
			log.Println("[PRODUCT] [ERROR] asset delete failed:", err)
		}

		if _, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			log.Println("[PRODUCT] [ERROR] delete failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PRODUCT", "error deleting product")
			return
		}

		log.Println("[PRODUCT] [INFO] product deleted:", product.Name)
		c.JSON(http.StatusOK, gin.H{"message": "product deleted successfully"})
	}
}

type reviewRequest struct {
	Rating  float64 `json:"rating" binding:"required"`
	Comment string  `json:"comment" binding:"required"`
}

// SubmitReview runs the review ledger for the authenticated principal.
func SubmitReview(ledger *reviews.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.Principal(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "REVIEW", "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "REVIEW", "invalid product id")
			return
		}

		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		// Fractional ratings are rejected outright rather than truncated.
		if req.Rating != math.Trunc(req.Rating) {
			respondWithError(c, http.StatusBadRequest, "REVIEW", reviews.ErrInvalidRating.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := ledger.Submit(ctx, productID, user, int(req.Rating), req.Comment)
		if err != nil {
			switch {
			case errors.Is(err, reviews.ErrInvalidRating), errors.Is(err, reviews.ErrCommentTooShort):
				respondWithError(c, http.StatusBadRequest, "REVIEW", err.Error())
			case errors.Is(err, reviews.ErrProductNotFound):
				respondWithError(c, http.StatusNotFound, "REVIEW", err.Error())
			case errors.Is(err, reviews.ErrAlreadyReviewed):
				respondWithError(c, http.StatusBadRequest, "REVIEW", err.Error())
			default:
				log.Println("[REVIEW] [ERROR] submit failed:", err)
				respondWithError(c, http.StatusInternalServerError, "REVIEW", "server error")
			}
			return
		}

		log.Println("[REVIEW] [INFO] review added:", productID.Hex(), "by", user.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "review added successfully",
			"product": product,
		})
	}
}
