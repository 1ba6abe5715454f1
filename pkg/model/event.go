package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Event is a race weekend.
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is one practice, qualifying or race segment of an event.
// Its ID doubles as the namespace holding the session's timing and telemetry data.
//
//nolint:tagliatelle // client compatibility
type Session struct {
	ID        string     `json:"id"`
	EventID   string     `json:"-"`
	Name      string     `json:"name"`
	Date      Date       `json:"date"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	// accept full timestamps as well, only the date part is kept
	if len(*s) > len(dateLayout) {
		t, err := time.Parse(time.RFC3339, *s)
		if err != nil {
			return err
		}
		*d = NewDate(t.Year(), t.Month(), t.Day())
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SessionKey builds the namespace id of a session, e.g. "2019-10-5".
func SessionKey(year, eventNumber, sessionNumber int) string {
	return fmt.Sprintf("%d-%d-%d", year, eventNumber, sessionNumber)
}

// ParseSessionKey splits a session id into year, event number and session number.
func ParseSessionKey(key string) (year, eventNumber, sessionNumber int, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: malformed session id %q", ErrInvalidSelection, key)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if nums[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: malformed session id %q", ErrInvalidSelection, key)
		}
	}
	return nums[0], nums[1], nums[2], nil
}
