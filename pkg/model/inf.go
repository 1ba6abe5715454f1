package model

import (
	"bytes"
	"cmp"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/goccy/go-json"
)

// InfSentinel is the value used for unavailable lap times and lap boundaries
// in documents and JSON responses.
const InfSentinel = "inf"

// Inf holds either a value or Missing. Missing is encoded as "inf" at the
// document and JSON boundary and orders after every value.
type Inf[T any] struct {
	v null.Val[T]
}

func Value[T any](v T) Inf[T] {
	return Inf[T]{v: null.From(v)}
}

func Missing[T any]() Inf[T] {
	return Inf[T]{}
}

func InfFromPtr[T any](p *T) Inf[T] {
	return Inf[T]{v: null.FromPtr(p)}
}

func (i Inf[T]) Get() (T, bool) {
	return i.v.Get()
}

func (i Inf[T]) IsMissing() bool {
	return !i.v.IsValue()
}

// Ptr returns nil for Missing.
func (i Inf[T]) Ptr() *T {
	return i.v.Ptr()
}

// DocValue returns the value or the "inf" sentinel.
func (i Inf[T]) DocValue() any {
	if v, ok := i.v.Get(); ok {
		return v
	}
	return InfSentinel
}

func (i Inf[T]) MarshalJSON() ([]byte, error) {
	if v, ok := i.v.Get(); ok {
		return json.Marshal(v)
	}
	return json.Marshal(InfSentinel)
}

func (i *Inf[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`"inf"`)) {
		*i = Missing[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*i = Value(v)
	return nil
}

// CompareInf orders a and b with Missing greater than any value.
func CompareInf[T any](a, b Inf[T], compare func(x, y T) int) int {
	av, aok := a.Get()
	bv, bok := b.Get()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	default:
		return compare(av, bv)
	}
}

func CompareLapTime(a, b Inf[float64]) int {
	return CompareInf(a, b, cmp.Compare[float64])
}

func CompareDate(a, b Inf[time.Time]) int {
	return CompareInf(a, b, func(x, y time.Time) int { return x.Compare(y) })
}
