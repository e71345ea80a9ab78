package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"medsupply/internal/auth"
	"medsupply/internal/models"
)

type stubUserStore struct {
	users map[primitive.ObjectID]models.User
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (s *stubUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	copied := user
	return &copied, nil
}

func (s *stubUserStore) Insert(_ context.Context, user *models.User) error {
	s.users[user.ID] = *user
	return nil
}

func newAuthTestRouter(tokens *auth.TokenService, users auth.UserStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/admin/brands", RequireAuth(tokens, users), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/me", RequireAuth(tokens, users), func(c *gin.Context) {
		user, _ := Principal(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID.Hex(), "role": user.Role})
	})
	return r
}

func performRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRouteWithoutToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	r := newAuthTestRouter(tokens, &stubUserStore{users: map[primitive.ObjectID]models.User{}})

	w := performRequest(r, "POST", "/admin/brands", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminRouteWithVisitorToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	visitor := models.User{ID: primitive.NewObjectID(), FirstName: "Ada", Email: "ada@example.com", Role: models.RoleVisitor}
	store := &stubUserStore{users: map[primitive.ObjectID]models.User{visitor.ID: visitor}}
	r := newAuthTestRouter(tokens, store)

	token, err := tokens.Issue(visitor)
	if err != nil {
		t.Fatal(err)
	}

	w := performRequest(r, "POST", "/admin/brands", token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestAdminRouteWithAdminToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	admin := models.User{ID: primitive.NewObjectID(), FirstName: "Root", Email: "root@example.com", Role: models.RoleAdmin}
	store := &stubUserStore{users: map[primitive.ObjectID]models.User{admin.ID: admin}}
	r := newAuthTestRouter(tokens, store)

	token, err := tokens.Issue(admin)
	if err != nil {
		t.Fatal(err)
	}

	w := performRequest(r, "POST", "/admin/brands", token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

// A demotion takes effect on the next request even when the token still
// carries the old role: the gate trusts storage, not claims.
func TestRoleDemotionBeatsStaleToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	user := models.User{ID: primitive.NewObjectID(), FirstName: "Root", Email: "root@example.com", Role: models.RoleAdmin}
	store := &stubUserStore{users: map[primitive.ObjectID]models.User{user.ID: user}}
	r := newAuthTestRouter(tokens, store)

	token, err := tokens.Issue(user)
	if err != nil {
		t.Fatal(err)
	}

	if w := performRequest(r, "POST", "/admin/brands", token); w.Code != http.StatusOK {
		t.Fatalf("expected 200 before demotion, got %d", w.Code)
	}

	user.Role = models.RoleVisitor
	store.users[user.ID] = user

	if w := performRequest(r, "POST", "/admin/brands", token); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after demotion, got %d", w.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", -time.Minute)
	user := models.User{ID: primitive.NewObjectID(), FirstName: "Ada", Email: "ada@example.com", Role: models.RoleVisitor}
	store := &stubUserStore{users: map[primitive.ObjectID]models.User{user.ID: user}}
	r := newAuthTestRouter(tokens, store)

	token, err := tokens.Issue(user)
	if err != nil {
		t.Fatal(err)
	}

	if w := performRequest(r, "GET", "/me", token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestDeletedUserRejected(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	user := models.User{ID: primitive.NewObjectID(), FirstName: "Ada", Email: "ada@example.com", Role: models.RoleVisitor}
	store := &stubUserStore{users: map[primitive.ObjectID]models.User{}}
	r := newAuthTestRouter(tokens, store)

	token, err := tokens.Issue(user)
	if err != nil {
		t.Fatal(err)
	}

	if w := performRequest(r, "GET", "/me", token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", w.Code)
	}
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	r := newAuthTestRouter(tokens, &stubUserStore{users: map[primitive.ObjectID]models.User{}})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed header, got %d", w.Code)
	}
}
