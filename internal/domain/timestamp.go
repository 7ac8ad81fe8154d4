package domain

import (
	"database/sql/driver"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a UTC instant that decodes from every shape refresh times have been
// stored in. Values that cannot be parsed decode to the zero time.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC()}
}

func (t Timestamp) IsSet() bool {
	return !t.Time.IsZero()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Time = time.Time{}
		return nil
	}
	parsed, _ := ParseTime(raw)
	t.Time = parsed
	return nil
}

func (t *Timestamp) Scan(src any) error {
	parsed, _ := ParseTime(src)
	t.Time = parsed
	return nil
}

func (t Timestamp) Value() (driver.Value, error) {
	if !t.IsSet() {
		return nil, nil
	}
	return t.Time.UTC(), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseTime normalises native times, strings, unix numbers and Firestore-style
// {seconds, nanoseconds} objects. ok is false when v holds no usable instant.
func ParseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return nonZero(x)
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return nonZero(*x)
	case Timestamp:
		return nonZero(x.Time)
	case *Timestamp:
		if x == nil {
			return time.Time{}, false
		}
		return nonZero(x.Time)
	case string:
		return parseString(x)
	case []byte:
		return parseString(string(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromUnix(f)
	case int:
		return fromUnix(float64(x))
	case int64:
		return fromUnix(float64(x))
	case float64:
		return fromUnix(x)
	case map[string]any:
		return fromSecondsObject(x)
	}
	return time.Time{}, false
}

func nonZero(t time.Time) (time.Time, bool) {
	if t.IsZero() {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return nonZero(t)
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromUnix(f)
	}
	return time.Time{}, false
}

// values above 1e12 are taken as milliseconds
func fromUnix(f float64) (time.Time, bool) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

func fromSecondsObject(m map[string]any) (time.Time, bool) {
	secs, ok := number(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	nanos, _ := number(m, "nanoseconds", "_nanoseconds", "nanos")
	if secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(secs), int64(nanos)).UTC(), true
}

func number(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
