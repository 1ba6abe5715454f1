package model

import (
	"fmt"
	"math"
	"time"
)

// document field names as written by the ingestion
const (
	FieldID           = "_id"
	FieldTime         = "Time"
	FieldDriverNumber = "DriverNumber"
	FieldLapTime      = "LapTime"
	FieldLapNumber    = "LapNumber"
	FieldStint        = "Stint"
	FieldPitOutTime   = "PitOutTime"
	FieldPitInTime    = "PitInTime"
	FieldSector1Time  = "Sector1Time"
	FieldSector2Time  = "Sector2Time"
	FieldSector3Time  = "Sector3Time"
	FieldSpeedI1      = "SpeedI1"
	FieldSpeedI2      = "SpeedI2"
	FieldSpeedFL      = "SpeedFL"
	FieldSpeedST      = "SpeedST"
	FieldCompound     = "Compound"
	FieldTyreLife     = "TyreLife"
	FieldFreshTyre    = "FreshTyre"
	FieldTeam         = "Team"
	FieldDriver       = "Driver"
	FieldLapStartDate = "LapStartDate"
	FieldLapEndDate   = "LapEndDate"
)

// TimingRecord is one driver's timing summary of one lap.
//
//nolint:tagliatelle // client compatibility
type TimingRecord struct {
	ID           int64          `json:"_id"`
	Time         *float64       `json:"Time"`
	DriverNumber string         `json:"DriverNumber"`
	LapNumber    int            `json:"LapNumber"`
	LapTime      Inf[float64]   `json:"LapTime"`
	Stint        *float64       `json:"Stint"`
	PitOutTime   *float64       `json:"PitOutTime"`
	PitInTime    *float64       `json:"PitInTime"`
	Sector1Time  *float64       `json:"Sector1Time"`
	Sector2Time  *float64       `json:"Sector2Time"`
	Sector3Time  *float64       `json:"Sector3Time"`
	SpeedI1      *float64       `json:"SpeedI1"`
	SpeedI2      *float64       `json:"SpeedI2"`
	SpeedFL      *float64       `json:"SpeedFL"`
	SpeedST      *float64       `json:"SpeedST"`
	Compound     string         `json:"Compound"`
	TyreLife     *float64       `json:"TyreLife"`
	FreshTyre    *bool          `json:"FreshTyre"`
	Team         string         `json:"Team"`
	Driver       string         `json:"Driver"`
	LapStartDate Inf[time.Time] `json:"LapStartDate"`
	LapEndDate   Inf[time.Time] `json:"LapEndDate"`
}

// ComputeLapEnd sets LapEndDate to LapStartDate + LapTime, or Missing if
// one of them is Missing.
func (r *TimingRecord) ComputeLapEnd() {
	start, okStart := r.LapStartDate.Get()
	lapTime, okTime := r.LapTime.Get()
	if !okStart || !okTime {
		r.LapEndDate = Missing[time.Time]()
		return
	}
	r.LapEndDate = Value(start.Add(secondsToDuration(lapTime)))
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Document converts the record into its stored representation.
// Missing lap time and boundaries are encoded as "inf".
func (r *TimingRecord) Document() Document {
	doc := Document{
		FieldID:           r.ID,
		FieldDriverNumber: r.DriverNumber,
		FieldLapNumber:    r.LapNumber,
		FieldLapTime:      r.LapTime.DocValue(),
		FieldCompound:     r.Compound,
		FieldTeam:         r.Team,
		FieldDriver:       r.Driver,
		FieldLapStartDate: r.LapStartDate.DocValue(),
		FieldLapEndDate:   r.LapEndDate.DocValue(),
	}
	for k, v := range r.optionalFloats() {
		if *v != nil {
			doc[k] = **v
		} else {
			doc[k] = nil
		}
	}
	if r.FreshTyre != nil {
		doc[FieldFreshTyre] = *r.FreshTyre
	} else {
		doc[FieldFreshTyre] = nil
	}
	return doc
}

func (r *TimingRecord) optionalFloats() map[string]**float64 {
	return map[string]**float64{
		FieldTime:        &r.Time,
		FieldStint:       &r.Stint,
		FieldPitOutTime:  &r.PitOutTime,
		FieldPitInTime:   &r.PitInTime,
		FieldSector1Time: &r.Sector1Time,
		FieldSector2Time: &r.Sector2Time,
		FieldSector3Time: &r.Sector3Time,
		FieldSpeedI1:     &r.SpeedI1,
		FieldSpeedI2:     &r.SpeedI2,
		FieldSpeedFL:     &r.SpeedFL,
		FieldSpeedST:     &r.SpeedST,
		FieldTyreLife:    &r.TyreLife,
	}
}

// TimingRecordFromDocument converts a stored document into a TimingRecord.
// Missing or non-numeric lap times and non-date boundaries become Missing.
func TimingRecordFromDocument(doc Document) (*TimingRecord, error) {
	r := &TimingRecord{}
	var ok bool
	var err error
	if id, found := doc[FieldID]; found {
		if r.ID, ok = toInt64(id); !ok {
			return nil, fmt.Errorf("timing document: invalid %s %v", FieldID, id)
		}
	}
	if r.DriverNumber, err = toString(doc[FieldDriverNumber]); err != nil {
		return nil, fmt.Errorf("timing document: %s: %w", FieldDriverNumber, err)
	}
	lapNumber, ok := toFloat64(doc[FieldLapNumber])
	if !ok {
		return nil, fmt.Errorf("timing document: invalid %s %v",
			FieldLapNumber, doc[FieldLapNumber])
	}
	r.LapNumber = int(lapNumber)

	if v, ok := toFloat64(doc[FieldLapTime]); ok {
		r.LapTime = Value(v)
	}
	if v, ok := toTime(doc[FieldLapStartDate]); ok {
		r.LapStartDate = Value(v)
	}
	if v, ok := toTime(doc[FieldLapEndDate]); ok {
		r.LapEndDate = Value(v)
	}
	for k, target := range r.optionalFloats() {
		if v, ok := toFloat64(doc[k]); ok {
			*target = &v
		}
	}
	if b, ok := doc[FieldFreshTyre].(bool); ok {
		r.FreshTyre = &b
	}
	r.Compound, _ = toString(doc[FieldCompound])
	r.Team, _ = toString(doc[FieldTeam])
	r.Driver, _ = toString(doc[FieldDriver])
	return r, nil
}
