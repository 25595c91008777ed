package models

import (
	"bytes"
	"encoding/json"

	"legalizador/internal/reconciliation"
)

// Amount is a lenient JSON number: it accepts numbers and numeric strings,
// and anything unparseable decodes to 0 instead of failing the request.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(reconciliation.Coerce(raw))
	return nil
}

// Float returns the amount as a float64 pointer, nil for a nil Amount.
func (a *Amount) Float() *float64 {
	if a == nil {
		return nil
	}
	f := float64(*a)
	return &f
}

// Value returns the amount or 0 for nil.
func (a *Amount) Value() float64 {
	if a == nil {
		return 0
	}
	return float64(*a)
}

// OptionalString distinguishes an absent key from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
