package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"medsupply/internal/models"
	"medsupply/internal/reviews"
)

type memoryProductStore struct {
	products map[primitive.ObjectID]*models.Product
}

func newMemoryProductStore(products ...*models.Product) *memoryProductStore {
	s := &memoryProductStore{products: make(map[primitive.ObjectID]*models.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *memoryProductStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, reviews.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (s *memoryProductStore) AppendReview(_ context.Context, productID primitive.ObjectID, review models.Review) (bool, error) {
	product, ok := s.products[productID]
	if !ok {
		return false, reviews.ErrProductNotFound
	}
	if reviews.HasReviewBy(product.Reviews, review.UserID) {
		return false, nil
	}
	product.Reviews = append(product.Reviews, review)
	product.NumReviews = len(product.Reviews)
	product.Rating = reviews.AverageRating(product.Reviews)
	product.UpdatedAt = time.Now()
	return true, nil
}

func postReview(t *testing.T, ledger *reviews.Ledger, productID string, principal *models.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/products/"+productID+"/reviews", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: productID}}
	if principal != nil {
		c.Set("principal", *principal)
	}
	SubmitReview(ledger)(c)
	return w
}

func TestSubmitReviewWithoutPrincipal(t *testing.T) {
	store := newMemoryProductStore()
	ledger := reviews.NewLedger(store)

	w := postReview(t, ledger, primitive.NewObjectID().Hex(), nil, `{"rating": 5, "comment": "works as described"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSubmitReviewInvalidProductID(t *testing.T) {
	ledger := reviews.NewLedger(newMemoryProductStore())
	user := models.User{ID: primitive.NewObjectID(), FirstName: "Ada"}

	w := postReview(t, ledger, "not-an-id", &user, `{"rating": 5, "comment": "works as described"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubmitReviewFractionalRating(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Thermometer"}
	ledger := reviews.NewLedger(newMemoryProductStore(product))
	user := models.User{ID: primitive.NewObjectID(), FirstName: "Ada"}

	w := postReview(t, ledger, product.ID.Hex(), &user, `{"rating": 2.5, "comment": "works as described"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for fractional rating, got %d", w.Code)
	}
}

func TestSubmitReviewMissingComment(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Thermometer"}
	ledger := reviews.NewLedger(newMemoryProductStore(product))
	user := models.User{ID: primitive.NewObjectID(), FirstName: "Ada"}

	w := postReview(t, ledger, product.ID.Hex(), &user, `{"rating": 4}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing comment, got %d", w.Code)
	}
}

func TestSubmitReviewUnknownProduct(t *testing.T) {
	ledger := reviews.NewLedger(newMemoryProductStore())
	user := models.User{ID: primitive.NewObjectID(), FirstName: "Ada"}

	w := postReview(t, ledger, primitive.NewObjectID().Hex(), &user, `{"rating": 4, "comment": "works as described"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSubmitReviewSuccess(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Thermometer"}
	store := newMemoryProductStore(product)
	ledger := reviews.NewLedger(store)
	user := models.User{ID: primitive.NewObjectID(), FirstName: "Ada", LastName: "Lovelace"}

	w := postReview(t, ledger, product.ID.Hex(), &user, `{"rating": 5, "comment": "works as described"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Success bool           `json:"success"`
		Product models.Product `json:"product"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success {
		t.Error("expected success true")
	}
	if body.Product.NumReviews != 1 {
		t.Errorf("expected numReviews 1, got %d", body.Product.NumReviews)
	}
	if body.Product.Rating != 5 {
		t.Errorf("expected rating 5, got %v", body.Product.Rating)
	}
	if len(body.Product.Reviews) != 1 || body.Product.Reviews[0].Name != "Ada Lovelace" {
		t.Errorf("expected snapshotted reviewer name, got %+v", body.Product.Reviews)
	}
}

func TestSubmitReviewDuplicate(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Thermometer"}
	store := newMemoryProductStore(product)
	ledger := reviews.NewLedger(store)
	user := models.User{ID: primitive.NewObjectID(), FirstName: "Ada"}

	if w := postReview(t, ledger, product.ID.Hex(), &user, `{"rating": 5, "comment": "works as described"}`); w.Code != http.StatusCreated {
		t.Fatalf("first review: expected 201, got %d", w.Code)
	}

	w := postReview(t, ledger, product.ID.Hex(), &user, `{"rating": 1, "comment": "changed my mind here"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second review: expected 400, got %d", w.Code)
	}
	if store.products[product.ID].NumReviews != 1 {
		t.Errorf("duplicate must not change aggregates, got %d reviews", store.products[product.ID].NumReviews)
	}
}
