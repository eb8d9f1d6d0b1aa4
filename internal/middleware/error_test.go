package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRespondWithError_UsesTheErrorEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, http.StatusNotFound, "product not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if response.Error.Code != "Not Found" {
		t.Errorf("expected code Not Found, got %q", response.Error.Code)
	}
	if response.Error.Message != "product not found" {
		t.Errorf("expected the message to round-trip, got %q", response.Error.Message)
	}
	if _, err := time.Parse(time.RFC3339, response.Error.Timestamp); err != nil {
		t.Errorf("timestamp is not RFC3339: %q", response.Error.Timestamp)
	}
}

func TestRespondWithValidationErrors_CarriesFieldDetails(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{
		{Field: "Email", Message: "Invalid email format"},
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if response.Error.Details["validation_errors"] == nil {
		t.Error("expected validation_errors in the details")
	}
}

func TestErrorHandlingMiddleware_RecoversPanicsAs500(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after a panic, got %d", w.Code)
	}

	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if response.Error.Message != "internal server error" {
		t.Errorf("expected a generic message, got %q", response.Error.Message)
	}
}
