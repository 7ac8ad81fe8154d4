package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/clerk"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError hides internal failures from the caller and logs them in full.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := e.Status()
	log := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", string(e.Code)).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("code", string(e.Code)).Msg("request rejected")
	}

	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfter))
	}
	msg := e.Message
	if e.Code == apperr.CodeInternal {
		msg = "Internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: string(e.Code), RetryAfter: e.RetryAfter})
}

// decode reads a JSON body into dst and runs its validate tags.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.CodeValidation, "Request body is required")
		}
		return apperr.Wrap(apperr.CodeValidation, "Invalid JSON payload", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return apperr.Wrap(apperr.CodeValidation, "Invalid request", err)
	}
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		name := f.Field()
		switch f.Tag() {
		case "required":
			msgs = append(msgs, name+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", name, f.Param()))
		case "email":
			msgs = append(msgs, name+" must be a valid email address")
		default:
			msgs = append(msgs, name+" is invalid")
		}
	}
	return apperr.Wrap(apperr.CodeValidation, strings.Join(msgs, "; "), err)
}

// readBody reads a webhook body verbatim; signatures are computed over the raw bytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxWebhookBodySize))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "Could not read request body", err)
	}
	return body, nil
}

func session(r *http.Request) *clerk.Session {
	s, _ := middleware.SessionFrom(r.Context())
	return s
}
