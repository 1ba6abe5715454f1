package log

import "go.uber.org/zap"

var (
	Any      = zap.Any
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Int32    = zap.Int32
	Ints     = zap.Ints
	Uint     = zap.Uint
	Uint32   = zap.Uint32
	Float64  = zap.Float64
	Float32  = zap.Float32
	Bool     = zap.Bool
	Time     = zap.Time
	Duration = zap.Duration
)

// ErrorField is the field for errors, named "error".
func ErrorField(err error) Field {
	return zap.Error(err)
}
