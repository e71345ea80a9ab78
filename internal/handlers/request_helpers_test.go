package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatal(err)
	}
	if page != 1 || limit != 20 {
		t.Errorf("expected defaults 1/20, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsExplicit(t *testing.T) {
	page, limit, err := parsePaginationParams("3", "50")
	if err != nil {
		t.Fatal(err)
	}
	if page != 3 || limit != 50 {
		t.Errorf("expected 3/50, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		page  string
		limit string
	}{
		{"zero page", "0", ""},
		{"negative page", "-1", ""},
		{"non-numeric page", "abc", ""},
		{"zero limit", "", "0"},
		{"non-numeric limit", "", "ten"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := parsePaginationParams(tc.page, tc.limit); err == nil {
				t.Errorf("expected error for page=%q limit=%q", tc.page, tc.limit)
			}
		})
	}
}

func TestOptionalObjectID(t *testing.T) {
	if id, err := optionalObjectID(""); err != nil || id != nil {
		t.Errorf("blank value should mean none, got %v, %v", id, err)
	}
	if id, err := optionalObjectID("   "); err != nil || id != nil {
		t.Errorf("whitespace value should mean none, got %v, %v", id, err)
	}

	want := primitive.NewObjectID()
	id, err := optionalObjectID(want.Hex())
	if err != nil {
		t.Fatal(err)
	}
	if id == nil || *id != want {
		t.Errorf("expected %s, got %v", want.Hex(), id)
	}

	if _, err := optionalObjectID("nope"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestLowerCamel(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"Rating":  "rating",
		"Comment": "comment",
		"email":   "email",
	}
	for in, want := range cases {
		if got := lowerCamel(in); got != want {
			t.Errorf("lowerCamel(%q) = %q, want %q", in, got, want)
		}
	}
}
