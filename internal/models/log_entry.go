package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// LogEntry is one logged note. ID is assigned by the store on insert.
type LogEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Archived  bool      `json:"archived"`
}

// LogInput holds the caller-supplied fields for a new entry.
// Nil pointers mean "not supplied" and are defaulted by NewLogEntry.
type LogInput struct {
	Text      *string
	Timestamp *time.Time
	Archived  *bool
}

// ValidationError reports a missing or malformed field on a new entry.
// Its message is safe to return to the client verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Log validation failed: %s: %s", e.Field, e.Reason)
}

func requiredError(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("Path `%s` is required.", field)}
}

func castError(field, kind string, raw json.RawMessage) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("Cast to %s failed for value %s at path \"%s\"", kind, strings.TrimSpace(string(raw)), field),
	}
}

// NewLogEntry validates the input and fills in the defaults: the timestamp
// falls back to now and archived to false. The returned entry has no ID yet.
func NewLogEntry(in LogInput, now time.Time) (*LogEntry, error) {
	if in.Text == nil || *in.Text == "" {
		return nil, requiredError("text")
	}

	entry := &LogEntry{
		Text:      *in.Text,
		Timestamp: now,
	}
	if in.Timestamp != nil {
		entry.Timestamp = *in.Timestamp
	}
	if in.Archived != nil {
		entry.Archived = *in.Archived
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return entry, nil
}

// DecodeLogInput parses a JSON object into a LogInput. Unknown fields are
// ignored. Any shape problem is reported as a *ValidationError.
func DecodeLogInput(data []byte) (*LogInput, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &LogInput{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Field: "body", Reason: "request body must be a JSON object"}
	}

	in := &LogInput{}

	if v, ok := raw["text"]; ok && !isNull(v) {
		text, err := parseText(v)
		if err != nil {
			return nil, castError("text", "string", v)
		}
		in.Text = &text
	}

	if v, ok := raw["timestamp"]; ok && !isNull(v) {
		ts, err := parseTimestamp(v)
		if err != nil {
			return nil, castError("timestamp", "date", v)
		}
		in.Timestamp = &ts
	}

	if v, ok := raw["archived"]; ok && !isNull(v) {
		var archived bool
		if err := json.Unmarshal(v, &archived); err != nil {
			return nil, castError("archived", "Boolean", v)
		}
		in.Archived = &archived
	}

	return in, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// parseText accepts a string, or a number or boolean in its JSON form.
func parseText(v json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(v, &text); err == nil {
		return text, nil
	}

	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), nil
	}

	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return "", err
	}
	return fmt.Sprint(b), nil
}

// maxDateMillis is the largest distance from the epoch a date may have.
const maxDateMillis = 8.64e15

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp accepts an RFC 3339 string, a date with an optional
// local time, or a number of milliseconds since the Unix epoch. Dates
// outside years 0 to 9999 are rejected; RFC 3339 cannot represent them.
func parseTimestamp(v json.RawMessage) (time.Time, error) {
	ts, err := decodeTimestamp(v)
	if err != nil {
		return time.Time{}, err
	}
	if y := ts.UTC().Year(); y < 0 || y > 9999 {
		return time.Time{}, fmt.Errorf("year %d out of range", y)
	}
	return ts, nil
}

func decodeTimestamp(v json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	}

	var ms float64
	if err := json.Unmarshal(v, &ms); err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxDateMillis {
		return time.Time{}, fmt.Errorf("%v ms out of range", ms)
	}
	return time.UnixMilli(int64(ms)), nil
}
