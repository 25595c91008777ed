package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"legalizador/internal/common"
)

// ID is a numeric row identifier. It is written to JSON as a string and read
// from either a string or a number.
type ID int64

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(id), 10))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*id = ID(n)
	return nil
}

// Date is a calendar date that accepts the loose formats of spreadsheets and
// date inputs. Unparseable input decodes to the zero Date rather than failing.
type Date struct {
	time.Time
}

// NewDate wraps t, returning nil for nil.
func NewDate(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil
	}
	if n, ok := raw.(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		raw = f
	}
	if t := common.ParseDate(raw); t != nil {
		d.Time = *t
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(common.ISODateLayout))
}

// Ptr returns the wrapped time, or nil for a nil or zero Date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
