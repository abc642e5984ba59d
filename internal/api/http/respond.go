package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "github.com/ledgervest/ledgervest/internal/platform/errors"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response failed error=%v", err)
	}
}

// respondError maps coded errors to their HTTP status; anything uncoded is a
// 500 with the generic unknown code so internals never leak to clients.
func respondError(w http.ResponseWriter, err error) {
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		respondJSON(w, coded.HTTPStatus(), errorBody{Error: errorDetail{
			Code:    string(coded.Code),
			Message: coded.Message,
			Details: coded.Metadata,
		}})
		return
	}

	log.Printf("internal error error=%v", err)
	respondJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
		Code:    string(apperrors.CodeUnknown),
		Message: "internal error",
	}})
}

func decodeBody(r *http.Request, into any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidParameter, "invalid request body", err)
	}
	return nil
}
