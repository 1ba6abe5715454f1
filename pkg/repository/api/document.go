package api

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/f1data/telemetry-service/pkg/model"
)

// session document keys written for every session
const (
	SessionFieldID        = "id"
	SessionFieldEventID   = "eventid"
	SessionFieldName      = "name"
	SessionFieldDate      = "date"
	SessionFieldStartTime = "startTime"
	SessionFieldEndTime   = "endTime"
)

// SessionDocument merges the session attributes into extra. The attributes
// take precedence over keys of extra with the same name.
func SessionDocument(s model.Session, extra model.Document) model.Document {
	doc := make(model.Document, len(extra)+6)
	for k, v := range extra {
		doc[k] = v
	}
	doc[SessionFieldID] = s.ID
	doc[SessionFieldEventID] = s.EventID
	doc[SessionFieldName] = s.Name
	if !s.Date.IsZero() {
		doc[SessionFieldDate] = s.Date.String()
	}
	if s.StartTime != nil {
		doc[SessionFieldStartTime] = s.StartTime.UTC()
	}
	if s.EndTime != nil {
		doc[SessionFieldEndTime] = s.EndTime.UTC()
	}
	return doc
}

// LookupField resolves a dot separated field path within doc.
func LookupField(doc model.Document, field string) (any, error) {
	if field == "" {
		return nil, fmt.Errorf("%w: empty field name", model.ErrNotFound)
	}
	path := jp.R()
	for _, part := range strings.Split(field, ".") {
		path = path.C(part)
	}
	res := path.Get(map[string]any(doc))
	if len(res) == 0 {
		return nil, fmt.Errorf("%w: field %s", model.ErrNotFound, field)
	}
	return res[0], nil
}
