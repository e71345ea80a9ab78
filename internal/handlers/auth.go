package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medsupply/internal/auth"
	"medsupply/internal/middleware"
	"medsupply/internal/models"
)

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userPayload(user models.User) gin.H {
	return gin.H{
		"id":        user.ID.Hex(),
		"firstName": user.FirstName,
		"email":     user.Email,
		"role":      user.Role,
	}
}

func Register(credentials *auth.Credentials, tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := credentials.Register(ctx, req.FirstName, req.LastName, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrDuplicateEmail):
				respondWithError(c, http.StatusBadRequest, "AUTH", "email already exists")
			case errors.Is(err, auth.ErrMissingFields):
				respondWithError(c, http.StatusBadRequest, "AUTH", "missing required fields")
			default:
				log.Println("[AUTH] [ERROR] register failed:", err)
				respondWithError(c, http.StatusInternalServerError, "AUTH", "error creating user")
			}
			return
		}

		token, err := tokens.Issue(*user)
		if err != nil {
			log.Println("[AUTH] [ERROR] register token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] user registered:", user.Email)
		c.JSON(http.StatusCreated, gin.H{
			"message": "user created successfully",
			"token":   token,
			"user":    userPayload(*user),
		})
	}
}

func Login(credentials *auth.Credentials, tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := credentials.Verify(ctx, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				log.Println("[AUTH] [ERROR] login invalid credentials")
				respondWithError(c, http.StatusUnauthorized, "AUTH", "invalid email or password")
				return
			}
			log.Println("[AUTH] [ERROR] login lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "db error")
			return
		}

		token, err := tokens.Issue(*user)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", "token generation failed")
			return
		}

		redirect := "/"
		if user.Role == models.RoleAdmin {
			redirect = "/dashboard"
		}

		log.Println("[AUTH] [INFO] login succeeded:", user.Email)
		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"redirect": redirect,
			"user":     userPayload(*user),
		})
	}
}

// ValidateToken reports the principal behind a bearer token; RequireAuth has
// already re-resolved it when this runs.
func ValidateToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.Principal(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "AUTH", "unauthorized")
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
	}
}
