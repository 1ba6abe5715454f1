package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

const (
	FieldLapID       = "LapId"
	FieldSessionTime = "SessionTime"
)

// TelemetrySample is one sample row of a lap. Channels holds the named
// channel values (RPM, Speed, Throttle, ...).
type TelemetrySample struct {
	LapID       int64
	SessionTime float64
	Channels    map[string]any
}

// Project returns a copy containing only the given channels. Without
// channels all channels are kept.
func (s TelemetrySample) Project(channels []string) TelemetrySample {
	ret := TelemetrySample{LapID: s.LapID, SessionTime: s.SessionTime}
	if len(channels) == 0 {
		ret.Channels = make(map[string]any, len(s.Channels))
		for k, v := range s.Channels {
			ret.Channels[k] = v
		}
		return ret
	}
	ret.Channels = make(map[string]any, len(channels))
	for _, c := range channels {
		if v, ok := s.Channels[c]; ok {
			ret.Channels[c] = v
		}
	}
	return ret
}

// Document returns the flat stored representation including the lap id.
func (s TelemetrySample) Document() Document {
	doc := make(Document, len(s.Channels)+2)
	for k, v := range s.Channels {
		doc[k] = v
	}
	doc[FieldLapID] = s.LapID
	doc[FieldSessionTime] = s.SessionTime
	return doc
}

// MarshalJSON writes {"SessionTime": ..., "<channel>": ...}.
func (s TelemetrySample) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Channels)+1)
	for k, v := range s.Channels {
		out[k] = v
	}
	out[FieldSessionTime] = s.SessionTime
	return json.Marshal(out)
}

// TelemetrySampleFromDocument splits a stored document into lap id, session
// time and channel values. Store internal keys (_id, index) are dropped.
func TelemetrySampleFromDocument(doc Document) (TelemetrySample, error) {
	var s TelemetrySample
	lapID, ok := toInt64(doc[FieldLapID])
	if !ok {
		return s, fmt.Errorf("telemetry document: invalid %s %v", FieldLapID, doc[FieldLapID])
	}
	sessionTime, ok := toFloat64(doc[FieldSessionTime])
	if !ok {
		return s, fmt.Errorf("telemetry document: invalid %s %v",
			FieldSessionTime, doc[FieldSessionTime])
	}
	s.LapID = lapID
	s.SessionTime = sessionTime
	s.Channels = make(map[string]any, len(doc))
	for k, v := range doc {
		switch k {
		case FieldLapID, FieldSessionTime, FieldID, "index":
			continue
		}
		s.Channels[k] = v
	}
	return s, nil
}

// DriverLapTelemetry is one entry of a telemetry response.
type DriverLapTelemetry struct {
	Driver    string            `json:"driver"`
	Telemetry []TelemetrySample `json:"telemetry"`
	LapTime   Inf[float64]      `json:"laptime"`
	LapNumber int               `json:"lapnumber"`
}
