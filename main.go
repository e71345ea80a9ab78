package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"medsupply/internal/assets"
	"medsupply/internal/auth"
	"medsupply/internal/config"
	"medsupply/internal/database"
	"medsupply/internal/handlers"
	"medsupply/internal/middleware"
	"medsupply/internal/reviews"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureCatalogIndexes(db); err != nil {
		log.Printf("catalog index warning: %v", err)
	}
	if err := database.EnsureDefaultAdmin(db, config.AppEnv.AdminEmail, config.AppEnv.AdminPassword); err != nil {
		log.Printf("default admin warning: %v", err)
	}

	users := database.NewUserStore(db)
	products := database.NewProductStore(db)
	credentials := auth.NewCredentials(users)
	tokens := auth.NewTokenService(config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL)
	ledger := reviews.NewLedger(products)
	store := assets.NewDiskStore(config.AppEnv.UploadDir, config.AppEnv.PublicBaseURL)

	r := gin.Default()
	r.Static("/public", "./public")

	api := r.Group("/api")

	api.POST("/auth/register", handlers.Register(credentials, tokens))
	api.POST("/auth/login", handlers.Login(credentials, tokens))
	api.GET("/auth/validate-token", middleware.RequireAuth(tokens, users), handlers.ValidateToken())

	api.GET("/products", handlers.GetProducts(db))
	api.GET("/products/view/:id", handlers.GetProductView(db))
	api.GET("/products/related/:brandId", handlers.GetRelatedProducts(db))
	api.GET("/products/brand/:brandId", handlers.GetProductsByBrand(db))
	api.GET("/brands", handlers.GetBrands(db))
	api.GET("/brands/:id", handlers.GetBrand(db))
	api.GET("/categories", handlers.GetCategories(db))
	api.GET("/slides", handlers.GetSlides(db))

	api.POST("/products/:id/reviews",
		middleware.RequireAuth(tokens, users),
		handlers.SubmitReview(ledger),
	)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuth(tokens, users), middleware.RequireAdmin())
	{
		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db, store))
		admin.PUT("/products/:id", handlers.UpdateProduct(db, store))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db, store))

		admin.POST("/brands", handlers.CreateBrand(db, store))
		admin.PUT("/brands/:id", handlers.UpdateBrand(db, store))
		admin.DELETE("/brands/:id", handlers.DeleteBrand(db, store))

		admin.POST("/categories", handlers.CreateCategory(db, store))
		admin.PUT("/categories/:id", handlers.UpdateCategory(db, store))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(db, store))

		admin.GET("/slides", handlers.GetAllSlides(db))
		admin.POST("/slides", handlers.CreateSlide(db, store))
		admin.DELETE("/slides/:id", handlers.DeleteSlide(db, store))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
