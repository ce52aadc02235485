package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	cases := []struct {
		name     string
		validate Validator
		raw      string
		want     any
		reason   Reason
	}{
		{"text accepted", NonEmpty, "Alice", "Alice", ""},
		{"text trimmed", NonEmpty, "  +1 555 ", "+1 555", ""},
		{"blank text", NonEmpty, "   ", nil, ReasonEmpty},
		{"people", PositiveInt, "3", 3, ""},
		{"people padded", PositiveInt, " 12 ", 12, ""},
		{"people zero", PositiveInt, "0", nil, ReasonInvalidCount},
		{"people negative", PositiveInt, "-5", nil, ReasonInvalidCount},
		{"people decimal", PositiveInt, "2.5", nil, ReasonInvalidCount},
		{"people words", PositiveInt, "three", nil, ReasonInvalidCount},
		{"price", PositivePrice, "150.00", 150.0, ""},
		{"price integer", PositivePrice, "99", 99.0, ""},
		{"price zero", PositivePrice, "0", nil, ReasonInvalidPrice},
		{"price negative", PositivePrice, "-1.5", nil, ReasonInvalidPrice},
		{"price infinite", PositivePrice, "Inf", nil, ReasonInvalidPrice},
		{"price nan", PositivePrice, "NaN", nil, ReasonInvalidPrice},
		{"price words", PositivePrice, "cheap", nil, ReasonInvalidPrice},
		{"price hex float", PositivePrice, "0x1p4", nil, ReasonInvalidPrice},
		{"price digit separators", PositivePrice, "1_000", nil, ReasonInvalidPrice},
		{"price overflow", PositivePrice, "1e400", nil, ReasonInvalidPrice},
		{"price leading dot", PositivePrice, " .5 ", 0.5, ""},
		{"price exponent", PositivePrice, "1.5e2", 150.0, ""},
		{"price below a cent", PositivePrice, "0.001", 0.001, ""},
		{"strict date", CalendarDate, "01/02/2025", "01/02/2025", ""},
		{"strict date invalid", CalendarDate, "someday", nil, ReasonInvalidDate},
		{"strict time", TimeOfDay, "14:00", "14:00", ""},
		{"strict time invalid", TimeOfDay, "25:61", nil, ReasonInvalidTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := tc.validate(tc.raw)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, tc.reason == "", res.OK())
			assert.Equal(t, tc.want, res.Value)
		})
	}
}

func TestValidatorsArePure(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, PositiveInt("0"), PositiveInt("0"))
		assert.Equal(t, PositivePrice("12.5"), PositivePrice("12.5"))
	}
}

func TestDefaultFieldsOrder(t *testing.T) {
	fields := DefaultFields(FieldOptions{})
	names := make([]string, 0, len(fields))
	for i, f := range fields {
		names = append(names, f.Name)
		if i+1 < len(fields) {
			assert.Equal(t, fields[i+1].State, f.Next, "field %s successor", f.Name)
		}
	}
	assert.Equal(t, []string{
		FieldClientName, FieldContact, FieldSessionType, FieldDate, FieldTime, FieldPeople, FieldTotalPrice,
	}, names)
	assert.Equal(t, StateAwaitingConfirmation, fields[len(fields)-1].Next)

	// lenient by default, strict on request
	assert.True(t, fields[3].Validate("next friday").OK())
	strict := DefaultFields(FieldOptions{StrictSchedule: true})
	assert.False(t, strict[3].Validate("next friday").OK())
	assert.False(t, strict[4].Validate("afternoon").OK())
}
