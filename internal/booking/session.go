package booking

import (
	"fmt"

	"github.com/m3rciful/tosbook/core/telegram/state"
)

// Value is one validated answer.
type Value struct {
	Name  string
	Value any
}

// Session is the per-participant dialog record.
// Fields holds exactly the answers for the states before State, in order.
// Sessions are treated as immutable: transitions build a new value.
type Session struct {
	ID    int64
	Token string
	State state.State
	// Fields is never mutated in place; appends go to a fresh slice.
	Fields []Value
	// Dispatching marks a confirmed session whose receipt call is in flight.
	Dispatching bool
}

// Field returns the stored value for name.
func (s Session) Field(name string) (any, bool) {
	for _, v := range s.Fields {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

func (s Session) advance(name string, value any, next state.State) *Session {
	fields := make([]Value, len(s.Fields), len(s.Fields)+1)
	copy(fields, s.Fields)
	s.Fields = append(fields, Value{Name: name, Value: value})
	s.State = next
	return &s
}

// Record is the finalized booking sent to the receipt webhook.
type Record struct {
	ClientName  string  `json:"client_name"`
	Contact     string  `json:"contact"`
	SessionType string  `json:"session_type"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	People      int     `json:"people"`
	TotalPrice  float64 `json:"total_price"`
}

// RecordFrom builds a Record from exactly the seven booking fields.
func RecordFrom(values []Value) (Record, error) {
	var (
		rec  Record
		seen = make(map[string]bool, len(values))
	)
	for _, v := range values {
		if seen[v.Name] {
			return Record{}, fmt.Errorf("booking: duplicate field %q", v.Name)
		}
		seen[v.Name] = true

		var ok bool
		switch v.Name {
		case FieldClientName:
			rec.ClientName, ok = v.Value.(string)
		case FieldContact:
			rec.Contact, ok = v.Value.(string)
		case FieldSessionType:
			rec.SessionType, ok = v.Value.(string)
		case FieldDate:
			rec.Date, ok = v.Value.(string)
		case FieldTime:
			rec.Time, ok = v.Value.(string)
		case FieldPeople:
			rec.People, ok = v.Value.(int)
		case FieldTotalPrice:
			rec.TotalPrice, ok = v.Value.(float64)
		default:
			return Record{}, fmt.Errorf("booking: unknown field %q", v.Name)
		}
		if !ok {
			return Record{}, fmt.Errorf("booking: field %q has type %T", v.Name, v.Value)
		}
	}
	if len(seen) != 7 {
		return Record{}, fmt.Errorf("booking: record needs 7 fields, got %d", len(seen))
	}
	return rec, nil
}
