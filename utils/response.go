package utils

import (
	"encoding/json"
	"net/http"

	"commercegate-payment-api/models"
)

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.APIResponse{
		Status:  "error",
		Message: message,
	})
}

func SendSuccessResponse(w http.ResponseWriter, response models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// SendOutcomeResponse maps a classified gateway outcome onto the API envelope.
// Declines are HTTP 200 with status "declined"; the HTTP layer never converts
// a provider decline into a transport-level error.
func SendOutcomeResponse(w http.ResponseWriter, outcome *models.TransactionOutcome) {
	status := "success"
	if !outcome.Success {
		if outcome.Pending {
			status = "pending"
		} else {
			status = "declined"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.APIResponse{
		Status:  status,
		Message: outcome.Message,
		Data:    outcome,
	})
}
