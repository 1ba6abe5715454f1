package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Document is a schemaless record as stored in (or read from) a collection.
type Document map[string]any

var errNoValue = errors.New("no value")

func toFloat64(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt64(v any) (int64, bool) {
	f, ok := toFloat64(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errNoValue
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		if f, ok := toFloat64(x); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

// toTime accepts time values and RFC3339 strings; the "inf" sentinel and
// anything else yields false.
func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return x.UTC(), true
	case string:
		if x == InfSentinel {
			return time.Time{}, false
		}
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	default:
		return time.Time{}, false
	}
}

// Float returns the numeric value of key. NaN, Inf and non-numeric values yield false.
func (d Document) Float(key string) (float64, bool) {
	return toFloat64(d[key])
}

// Time returns the time value of key. The "inf" sentinel yields false.
func (d Document) Time(key string) (time.Time, bool) {
	return toTime(d[key])
}
