package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VoltaiLTD/voltdesigns/model"
	"github.com/VoltaiLTD/voltdesigns/service"
	"github.com/gin-gonic/gin"
)

func draftRouter() *gin.Engine {
	h := NewDraftHandler(service.NewDraftStore(service.NewMemoryKV()))
	router := gin.New()
	router.GET("/quote-draft", h.Get)
	router.PUT("/quote-draft", h.Put)
	router.DELETE("/quote-draft", h.Delete)
	return router
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := w.Result()
	for _, c := range res.Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("Expected a session cookie to be set")
	return nil
}

func TestDraftGetNewSession(t *testing.T) {
	router := draftRouter()

	req := httptest.NewRequest("GET", "/quote-draft", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	cookie := sessionCookie(t, w)
	if cookie.Value == "" {
		t.Error("Expected a non-empty session key")
	}

	var draft model.QuoteDraft
	if err := json.Unmarshal(w.Body.Bytes(), &draft); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if draft.BillingMode != model.BillingSqm {
		t.Errorf("Expected normalized billing mode 'sqm', got '%s'", draft.BillingMode)
	}
	if len(draft.SelectedSlugs) != 0 {
		t.Errorf("Expected empty selections, got %v", draft.SelectedSlugs)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	router := draftRouter()

	body := `{"projectName":"Lounge","clientName":"Ada","email":"ada@example.com","billingMode":"board","boards":8,"fulfillment":"delivery","selectedSlugs":["interior-wpc-oak"]}`
	req := httptest.NewRequest("PUT", "/quote-draft", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("PUT: expected status 200, got %d", w.Code)
	}
	cookie := sessionCookie(t, w)

	req = httptest.NewRequest("GET", "/quote-draft", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET: expected status 200, got %d", w.Code)
	}

	var draft model.QuoteDraft
	if err := json.Unmarshal(w.Body.Bytes(), &draft); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if draft.ProjectName != "Lounge" || draft.Boards != 8 {
		t.Errorf("Draft did not round-trip: %+v", draft)
	}
	if draft.BillingMode != model.BillingBoard {
		t.Errorf("Expected billing mode 'board', got '%s'", draft.BillingMode)
	}
}

func TestDraftSessionsAreIsolated(t *testing.T) {
	router := draftRouter()

	body := `{"projectName":"Private","email":"a@example.com"}`
	req := httptest.NewRequest("PUT", "/quote-draft", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// A fresh session must not see the first session's draft
	req = httptest.NewRequest("GET", "/quote-draft", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var draft model.QuoteDraft
	if err := json.Unmarshal(w.Body.Bytes(), &draft); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if draft.ProjectName != "" {
		t.Errorf("Expected empty draft for a new session, got project '%s'", draft.ProjectName)
	}
}

func TestDraftQueryMergeSelections(t *testing.T) {
	router := draftRouter()

	body := `{"selectedSlugs":["interior-wpc-oak"],"selectedPaths":["/designs/a.jpg"]}`
	req := httptest.NewRequest("PUT", "/quote-draft", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	cookie := sessionCookie(t, w)

	req = httptest.NewRequest("GET", "/quote-draft?materials=interior-wpc-oak,acoustic-soundproof-door-stc35&images=/designs/b.jpg", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var draft model.QuoteDraft
	if err := json.Unmarshal(w.Body.Bytes(), &draft); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	wantSlugs := []string{"interior-wpc-oak", "acoustic-soundproof-door-stc35"}
	if len(draft.SelectedSlugs) != len(wantSlugs) {
		t.Fatalf("Expected slugs %v, got %v", wantSlugs, draft.SelectedSlugs)
	}
	for i, s := range wantSlugs {
		if draft.SelectedSlugs[i] != s {
			t.Errorf("Slug %d: expected '%s', got '%s'", i, s, draft.SelectedSlugs[i])
		}
	}
	if len(draft.SelectedPaths) != 2 {
		t.Errorf("Expected 2 paths after merge, got %v", draft.SelectedPaths)
	}

	// The merge must persist for the next plain load
	req = httptest.NewRequest("GET", "/quote-draft", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if err := json.Unmarshal(w.Body.Bytes(), &draft); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(draft.SelectedSlugs) != 2 {
		t.Errorf("Expected merged selections to persist, got %v", draft.SelectedSlugs)
	}
}

func TestDraftDelete(t *testing.T) {
	router := draftRouter()

	body := `{"projectName":"Doomed"}`
	req := httptest.NewRequest("PUT", "/quote-draft", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	cookie := sessionCookie(t, w)

	req = httptest.NewRequest("DELETE", "/quote-draft", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("DELETE: expected status 200, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/quote-draft", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var draft model.QuoteDraft
	if err := json.Unmarshal(w.Body.Bytes(), &draft); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if draft.ProjectName != "" {
		t.Errorf("Expected cleared draft, got project '%s'", draft.ProjectName)
	}
}

func TestDraftPutInvalidBody(t *testing.T) {
	router := draftRouter()

	req := httptest.NewRequest("PUT", "/quote-draft", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
