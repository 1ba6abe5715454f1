package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope is shared by all responses.
type envelope struct {
	Data   any    `json:"data"`
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("could not write response", log.ErrorField(err))
	}
}

func respondData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data, Status: statusSuccess})
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	l := s.log.With(log.String("path", r.URL.Path), log.ErrorField(err))
	if status >= http.StatusInternalServerError {
		l.Error("request failed", log.Int("status", status))
	} else {
		l.Debug("request rejected", log.Int("status", status))
	}
	writeJSON(w, status, envelope{Status: statusError, Msg: err.Error()})
}

// statusFor maps domain errors to http status codes.
func statusFor(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidSelection),
		errors.Is(err, model.ErrAmbiguousLookup),
		errors.Is(err, errBadRequest),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrStoreTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
