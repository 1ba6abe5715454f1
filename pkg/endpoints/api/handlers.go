package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/service/telemetry"
	"github.com/f1data/telemetry-service/version"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.healthChecker != nil {
		if err := s.healthChecker(r.Context()); err != nil {
			s.log.Warn("health check failed", log.ErrorField(err))
			writeJSON(w, http.StatusServiceUnavailable,
				envelope{Status: statusError, Msg: err.Error()})
			return
		}
	}
	respondData(w, map[string]string{"version": version.Version})
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.info.Events(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, events)
}

func (s *Server) getSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.info.Sessions(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, sessions)
}

func (s *Server) getDrivers(w http.ResponseWriter, r *http.Request) {
	respondData(w, s.info.Drivers())
}

func (s *Server) getChannels(w http.ResponseWriter, r *http.Request) {
	respondData(w, s.info.Channels())
}

func (s *Server) postTelemetry(w http.ResponseWriter, r *http.Request) {
	var req telemetry.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if err := s.validate.StructCtx(r.Context(), req); err != nil {
		s.respondError(w, r, err)
		return
	}
	data, err := s.telemetry.ResolveTelemetryRequest(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, data)
}
