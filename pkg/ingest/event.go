package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

// EventFile is the content of an event metadata file. Attributes of a
// session besides the Session fields are kept in the session document.
type EventFile struct {
	Events []struct {
		model.Event
		Sessions []json.RawMessage `json:"sessions"`
	} `json:"events"`
}

// Events upserts the events and sessions of an event metadata file within
// one transaction if the store supports it. It returns the number of
// upserted events and sessions.
//
//nolint:whitespace // editor/linter issue
func (i *Ingester) Events(ctx context.Context, r io.Reader) (
	events, sessions int, err error,
) {
	var file EventFile
	if err = json.NewDecoder(r).Decode(&file); err != nil {
		return 0, 0, fmt.Errorf("event: %w", err)
	}
	err = api.RunInTx(ctx, i.store, func(ctx context.Context) error {
		events, sessions = 0, 0
		for _, e := range file.Events {
			if e.ID == "" {
				return fmt.Errorf("event: missing id (name %q)", e.Name)
			}
			if err := i.store.UpsertEvent(ctx, e.Event); err != nil {
				return fmt.Errorf("event %s: %w", e.ID, err)
			}
			events++
			for idx, raw := range e.Sessions {
				session, extra, err := decodeSession(raw)
				if err != nil {
					return fmt.Errorf("event %s: session %d: %w", e.ID, idx, err)
				}
				session.EventID = e.ID
				if err := i.store.UpsertSession(ctx, session, extra); err != nil {
					return fmt.Errorf("session %s: %w", session.ID, err)
				}
				sessions++
			}
			i.log.Info("event upserted",
				log.String("event", e.ID),
				log.Int("sessions", len(e.Sessions)))
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return events, sessions, nil
}

func decodeSession(raw json.RawMessage) (model.Session, model.Document, error) {
	var session model.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return session, nil, err
	}
	if session.ID == "" {
		return session, nil, fmt.Errorf("missing id")
	}
	if _, _, _, err := model.ParseSessionKey(session.ID); err != nil {
		return session, nil, err
	}
	var extra model.Document
	if err := json.Unmarshal(raw, &extra); err != nil {
		return session, nil, err
	}
	return session, extra, nil
}
