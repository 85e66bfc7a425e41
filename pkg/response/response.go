package response

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"complianceanalyzer/internal/log"
	"complianceanalyzer/internal/model"
)

func JSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		log.Logger.Error("failed to encode JSON response", zap.Error(err))
		return
	}
}

func Success(w http.ResponseWriter, payload interface{}) {
	JSON(w, http.StatusOK, payload)
}

// Error writes the failure body. details is omitted when empty.
func Error(w http.ResponseWriter, statusCode int, label, message, details string) {
	JSON(w, statusCode, model.ErrorResponse{
		Error:   label,
		Message: message,
		Details: details,
	})
}
