package telemetry

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"github.com/f1data/telemetry-service/pkg/model"
)

// values of Request.SelectBy
const (
	SelectByFastest = "fastest"
	SelectByTime    = "time"
	SelectByLaps    = "laps"
)

// Request is the body of a telemetry query.
type Request struct {
	Session  string   `json:"session" validate:"required"`
	Channel  string   `json:"channel" validate:"required"`
	Drivers  []string `json:"drivers" validate:"required,dive,required"`
	SelectBy string   `json:"selectBy"`
	Laps     LapList  `json:"laps,omitempty"`
	// milliseconds since epoch (UTC)
	TimeStartValue *float64 `json:"timeStartValue,omitempty"`
	TimeEndValue   *float64 `json:"timeEndValue,omitempty"`
	// coerced to bool: missing is false, numbers are true if non-zero,
	// strings and lists are true if non-empty
	TimeStartIn any `json:"timeStartIn,omitempty"`
	TimeEndIn   any `json:"timeEndIn,omitempty"`
}

// LapList accepts a single lap number or a list of lap numbers.
type LapList []float64

func (l *LapList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] != '[' {
		var single float64
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*l = LapList{single}
		return nil
	}
	var list []float64
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// Selection converts the selectBy related attributes into a validated selection.
func (r *Request) Selection() (model.Selection, error) {
	var filter model.TimingFilter
	switch r.SelectBy {
	case SelectByFastest:
		filter.Fastest = true
	case SelectByLaps:
		laps, err := lapNumbers(r.Laps)
		if err != nil {
			return model.Selection{}, err
		}
		filter.Laps = laps
	case SelectByTime:
		tr, err := r.timeRange()
		if err != nil {
			return model.Selection{}, err
		}
		filter.TimeRange = tr
	default:
		return model.Selection{}, fmt.Errorf("%w: unknown selectBy %q",
			model.ErrInvalidSelection, r.SelectBy)
	}
	return filter.Selection()
}

func lapNumbers(laps LapList) ([]int, error) {
	ret := make([]int, 0, len(laps))
	for _, l := range laps {
		if l != math.Trunc(l) || math.IsInf(l, 0) {
			return nil, fmt.Errorf("%w: invalid lap number %v", model.ErrInvalidSelection, l)
		}
		ret = append(ret, int(l))
	}
	return lo.Uniq(ret), nil
}

func (r *Request) timeRange() (*model.TimeRange, error) {
	if r.TimeStartValue == nil || r.TimeEndValue == nil {
		return nil, fmt.Errorf("%w: timeStartValue and timeEndValue are required",
			model.ErrInvalidSelection)
	}
	tr := &model.TimeRange{
		Start:    msToTime(*r.TimeStartValue),
		End:      msToTime(*r.TimeEndValue),
		StartsIn: coerceBool(r.TimeStartIn),
		EndsIn:   coerceBool(r.TimeEndIn),
	}
	return tr, nil
}

// msToTime converts epoch milliseconds with microsecond precision.
// ms*1000 is exact in a float64 for all relevant dates.
func msToTime(ms float64) time.Time {
	return time.UnixMicro(int64(math.Round(ms * 1e3))).UTC()
}

func coerceBool(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return false
	}
}
