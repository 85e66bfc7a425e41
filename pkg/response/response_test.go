package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    string
	}{
		{name: "without details", want: `{"error":"Invalid URL format","message":"Please provide a valid URL"}`},
		{name: "with details", details: "dial tcp: i/o timeout", want: `{"error":"Invalid URL format","message":"Please provide a valid URL","details":"dial tcp: i/o timeout"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, http.StatusBadRequest, "Invalid URL format", "Please provide a valid URL", tt.details)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}
