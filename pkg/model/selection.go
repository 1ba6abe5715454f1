package model

import (
	"fmt"
	"time"
)

type SelectionKind int

const (
	SelectFastest SelectionKind = iota + 1
	SelectLaps
	SelectTimeRange
)

func (k SelectionKind) String() string {
	switch k {
	case SelectFastest:
		return "fastest"
	case SelectLaps:
		return "laps"
	case SelectTimeRange:
		return "time"
	default:
		return fmt.Sprintf("SelectionKind(%d)", int(k))
	}
}

// TimeRange selects laps by their start and/or end date within [Start,End].
type TimeRange struct {
	Start    time.Time
	End      time.Time
	StartsIn bool // lap start must lie within the range
	EndsIn   bool // lap end must lie within the range
}

func (r TimeRange) Validate() error {
	if !r.StartsIn && !r.EndsIn {
		return fmt.Errorf("%w: starts_in and ends_in can not both be false",
			ErrInvalidSelection)
	}
	return nil
}

func (r TimeRange) contains(t Inf[time.Time]) bool {
	v, ok := t.Get()
	if !ok {
		return false
	}
	return !v.Before(r.Start) && !v.After(r.End)
}

// Matches reports whether a lap with the given boundaries is selected.
// Missing boundaries never match.
func (r TimeRange) Matches(lapStart, lapEnd Inf[time.Time]) bool {
	switch {
	case r.StartsIn && r.EndsIn:
		return r.contains(lapStart) && r.contains(lapEnd)
	case r.StartsIn:
		return r.contains(lapStart)
	case r.EndsIn:
		return r.contains(lapEnd)
	default:
		return false
	}
}

// Selection is the validated lap selection of a timing query.
type Selection struct {
	Kind  SelectionKind
	Laps  []int
	Range TimeRange
}

func Fastest() Selection {
	return Selection{Kind: SelectFastest}
}

func ByLapNumbers(laps ...int) Selection {
	return Selection{Kind: SelectLaps, Laps: laps}
}

func ByTimeRange(r TimeRange) Selection {
	return Selection{Kind: SelectTimeRange, Range: r}
}

// TimingFilter collects the raw selection arguments. Exactly one of the
// lap based (Fastest, Laps) and the time based (TimeRange) selection must be set.
type TimingFilter struct {
	Fastest   bool
	Laps      []int
	TimeRange *TimeRange
}

// Selection validates the filter and converts it into a Selection.
func (f TimingFilter) Selection() (Selection, error) {
	lapBased := f.Fastest || len(f.Laps) > 0
	switch {
	case lapBased && f.TimeRange != nil:
		return Selection{}, fmt.Errorf("%w: lap and time range are mutually exclusive",
			ErrInvalidSelection)
	case !lapBased && f.TimeRange == nil:
		return Selection{}, fmt.Errorf("%w: either lap or time range needs to be specified",
			ErrInvalidSelection)
	case f.Fastest && len(f.Laps) > 0:
		return Selection{}, fmt.Errorf("%w: fastest and lap numbers are mutually exclusive",
			ErrInvalidSelection)
	case f.Fastest:
		return Fastest(), nil
	case len(f.Laps) > 0:
		return ByLapNumbers(f.Laps...), nil
	default:
		if err := f.TimeRange.Validate(); err != nil {
			return Selection{}, err
		}
		return ByTimeRange(*f.TimeRange), nil
	}
}
