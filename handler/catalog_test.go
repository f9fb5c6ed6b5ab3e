package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func catalogRouter() *gin.Engine {
	h := NewCatalogHandler()
	router := gin.New()
	router.GET("/catalog", h.List)
	router.GET("/catalog/:slug", h.Get)
	return router
}

func TestCatalogList(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		minItems int
		maxItems int
	}{
		{
			name:     "full catalog",
			query:    "",
			minItems: 6,
			maxItems: 6,
		},
		{
			name:     "acoustics design",
			query:    "?design=acoustics",
			minItems: 1,
			maxItems: 5,
		},
		{
			name:     "wpc tag",
			query:    "?tags=wpc",
			minItems: 1,
			maxItems: 5,
		},
		{
			name:     "multiple tags",
			query:    "?tags=acp,soundproof-door",
			minItems: 2,
			maxItems: 5,
		},
		{
			name:     "unknown design",
			query:    "?design=nautical",
			minItems: 0,
			maxItems: 0,
		},
		{
			name:     "unknown tag",
			query:    "?tags=marble",
			minItems: 0,
			maxItems: 0,
		},
	}

	router := catalogRouter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/catalog"+tt.query, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var response map[string][]map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}

			n := len(response["items"])
			if n < tt.minItems || n > tt.maxItems {
				t.Errorf("Expected between %d and %d items, got %d", tt.minItems, tt.maxItems, n)
			}
		})
	}
}

func TestCatalogListTagFilterMatches(t *testing.T) {
	router := catalogRouter()

	req := httptest.NewRequest("GET", "/catalog?tags=soundproof-door", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	var response map[string][]map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	for _, item := range response["items"] {
		tags, _ := item["tags"].([]interface{})
		found := false
		for _, tag := range tags {
			if tag == "soundproof-door" {
				found = true
			}
		}
		if !found {
			t.Errorf("Item %v does not carry the requested tag", item["slug"])
		}
	}
}

func TestCatalogGet(t *testing.T) {
	router := catalogRouter()

	req := httptest.NewRequest("GET", "/catalog/interior-wpc-oak", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var item map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if item["slug"] != "interior-wpc-oak" {
		t.Errorf("Expected slug 'interior-wpc-oak', got '%v'", item["slug"])
	}
}

func TestCatalogGetNotFound(t *testing.T) {
	router := catalogRouter()

	req := httptest.NewRequest("GET", "/catalog/no-such-item", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
