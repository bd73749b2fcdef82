package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a Canvas timestamp. Canvas sends ISO8601 in UTC ("2024-01-08T17:02:11Z")
// or null for undated objects.
type Date time.Time

const canvasLayout = "2006-01-02T15:04:05Z0700"

func (d *Date) UnmarshalJSON(b []byte) error {
	raw := string(bytes.Trim(b, `"`))
	if raw == "" || raw == "null" {
		*d = Date{}
		return nil
	}

	for _, layout := range []string{canvasLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			*d = Date(t)
			return nil
		}
	}
	return fmt.Errorf("canvas date %q is not ISO8601", raw)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time().UTC().Format(canvasLayout))
}

// Time returns the zero time for a nil or undated value.
func (d *Date) Time() time.Time {
	if d == nil {
		return time.Time{}
	}
	return time.Time(*d)
}

func (d *Date) IsZero() bool { return d.Time().IsZero() }
