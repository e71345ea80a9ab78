package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"medsupply/internal/models"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingFields      = errors.New("missing required fields")
)

// UserStore is the persistence surface the credential store needs. The Mongo
// implementation lives in internal/database.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
}

// ErrUserNotFound is returned by UserStore lookups that match nothing.
var ErrUserNotFound = errors.New("user not found")

// dummyHash is compared against when the email is unknown, so a failed login
// costs roughly the same whether the email or the password was wrong.
var dummyHash, _ = HashPassword("credential-padding")

// Credentials registers and verifies accounts against a UserStore.
type Credentials struct {
	users UserStore
}

func NewCredentials(users UserStore) *Credentials {
	return &Credentials{users: users}
}

// Register creates a visitor account. The email is normalized before the
// uniqueness check and the password is stored only as a bcrypt hash.
func (c *Credentials) Register(ctx context.Context, firstName, lastName, email, password string) (*models.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = NormalizeEmail(email)
	if firstName == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	if _, err := c.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("email lookup: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("password hash: %w", err)
	}

	now := time.Now()
	user := &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleVisitor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Verify resolves an account by normalized email and checks the password.
// Unknown email and wrong password both fail with ErrInvalidCredentials.
func (c *Credentials) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := c.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			CheckPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("email lookup: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
