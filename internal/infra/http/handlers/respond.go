package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusForCode is the single place where error codes become HTTP statuses.
var statusForCode = map[string]int{
	usecase.CodeDuplicateLead:      http.StatusConflict,
	usecase.CodeValidation:         http.StatusBadRequest,
	usecase.CodeFileTooLarge:       http.StatusRequestEntityTooLarge,
	usecase.CodeInvalidFileKey:     http.StatusBadRequest,
	usecase.CodeNotFound:           http.StatusNotFound,
	usecase.CodeInvalidTransition:  http.StatusBadRequest,
	usecase.CodeNoOpTransition:     http.StatusBadRequest,
	usecase.CodeRenderFailed:       http.StatusInternalServerError,
	usecase.CodeDeliveryFailed:     http.StatusInternalServerError,
	usecase.CodeNotificationFailed: http.StatusInternalServerError,
	usecase.CodeInternal:           http.StatusInternalServerError,
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondError maps a usecase error onto the wire. Internal causes are logged
// but never shown to the caller.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if de, ok := usecase.AsDomainError(err); ok {
		status, found := statusForCode[de.Code]
		if !found {
			status = http.StatusBadRequest
		}
		respondJSON(w, status, ErrorResponse{Error: de.Message, Code: de.Code})
		return
	}

	if te, ok := usecase.AsTechnicalError(err); ok {
		logger.Error("request failed",
			zap.String("code", te.Code),
			zap.Error(te),
		)
		status, found := statusForCode[te.Code]
		if !found {
			status = http.StatusInternalServerError
		}
		respondJSON(w, status, ErrorResponse{Error: te.Message, Code: te.Code})
		return
	}

	logger.Error("unexpected request failure", zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  usecase.CodeInternal,
	})
}
