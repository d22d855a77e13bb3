package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/guffzilla/wartest-sub004/internal/errors"
	"github.com/guffzilla/wartest-sub004/internal/logger"
)

// errorBody is the JSON error envelope. Conflicts additionally carry the id
// of the record already holding the claim.
type errorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	ExistingID string `json:"existing_id,omitempty"`
}

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError(err)
	}

	if appErr.Status >= 500 {
		log.Error().Err(appErr).Msg("server error")
	} else {
		log.Warn().Err(appErr).Msg("client error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(map[string]errorBody{
		"error": {
			Code:       appErr.Code,
			Message:    appErr.Message,
			ExistingID: appErr.ExistingID,
		},
	})
}
