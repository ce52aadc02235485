package booking

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/m3rciful/tosbook/core/telegram/format"
	"github.com/m3rciful/tosbook/core/telegram/state"
)

// Dialog states in the order they are visited.
const (
	StateClientName           state.State = "CLIENT_NAME"
	StateContact              state.State = "CONTACT"
	StateSessionType          state.State = "SESSION_TYPE"
	StateDate                 state.State = "DATE"
	StateTime                 state.State = "TIME"
	StatePeople               state.State = "PEOPLE"
	StateTotalPrice           state.State = "TOTAL_PRICE"
	StateAwaitingConfirmation state.State = "AWAITING_CONFIRMATION"
	StateEnd                  state.State = "END"
)

// Field names, also used as webhook payload keys.
const (
	FieldClientName  = "client_name"
	FieldContact     = "contact"
	FieldSessionType = "session_type"
	FieldDate        = "date"
	FieldTime        = "time"
	FieldPeople      = "people"
	FieldTotalPrice  = "total_price"
)

// Reason explains why a validator rejected an answer.
type Reason string

const (
	ReasonEmpty        Reason = "empty value"
	ReasonInvalidCount Reason = "invalid count"
	ReasonInvalidPrice Reason = "invalid price"
	ReasonInvalidDate  Reason = "invalid date"
	ReasonInvalidTime  Reason = "invalid time"
)

// Result is either an accepted typed value or a rejection reason.
type Result struct {
	Value  any
	Reason Reason
}

// OK reports whether the answer was accepted.
func (r Result) OK() bool { return r.Reason == "" }

func accept(v any) Result { return Result{Value: v} }

func reject(reason Reason) Result { return Result{Reason: reason} }

// Validator converts a raw answer into a typed value. Validators must be pure.
type Validator func(raw string) Result

// NonEmpty accepts any text that is not blank and stores it trimmed.
func NonEmpty(raw string) Result {
	s := strings.TrimSpace(raw)
	if s == "" {
		return reject(ReasonEmpty)
	}
	return accept(s)
}

// PositiveInt accepts integers strictly greater than zero.
func PositiveInt(raw string) Result {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return reject(ReasonInvalidCount)
	}
	return accept(n)
}

var decimalRx = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// PositivePrice accepts finite decimals strictly greater than zero. Only
// plain decimal notation is allowed: no hex floats, no digit separators.
func PositivePrice(raw string) Result {
	s := strings.TrimSpace(raw)
	if !decimalRx.MatchString(s) {
		return reject(ReasonInvalidPrice)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return reject(ReasonInvalidPrice)
	}
	return accept(f)
}

// CalendarDate accepts real calendar dates; the text is stored as typed.
func CalendarDate(raw string) Result {
	if _, ok := format.ParseFlexibleDate(raw); !ok {
		return reject(ReasonInvalidDate)
	}
	return accept(strings.TrimSpace(raw))
}

// TimeOfDay accepts HH:MM times; the text is stored as typed.
func TimeOfDay(raw string) Result {
	if _, ok := format.ParseClock(raw); !ok {
		return reject(ReasonInvalidTime)
	}
	return accept(strings.TrimSpace(raw))
}

// Field describes one collected answer.
type Field struct {
	Name  string
	State state.State
	// Prompt is the question sent when the dialog enters State.
	Prompt   string
	Validate Validator
	Next     state.State
}

// FieldOptions tweaks the field table.
type FieldOptions struct {
	// StrictSchedule makes DATE and TIME require a parseable date and time of day.
	StrictSchedule bool
}

// DefaultFields returns the seven booking fields in collection order.
func DefaultFields(opts FieldOptions) []Field {
	date, clock := Validator(NonEmpty), Validator(NonEmpty)
	if opts.StrictSchedule {
		date, clock = CalendarDate, TimeOfDay
	}
	return []Field{
		{Name: FieldClientName, State: StateClientName, Prompt: PromptClientName, Validate: NonEmpty, Next: StateContact},
		{Name: FieldContact, State: StateContact, Prompt: PromptContact, Validate: NonEmpty, Next: StateSessionType},
		{Name: FieldSessionType, State: StateSessionType, Prompt: PromptSessionType, Validate: NonEmpty, Next: StateDate},
		{Name: FieldDate, State: StateDate, Prompt: PromptDate, Validate: date, Next: StateTime},
		{Name: FieldTime, State: StateTime, Prompt: PromptTime, Validate: clock, Next: StatePeople},
		{Name: FieldPeople, State: StatePeople, Prompt: PromptPeople, Validate: PositiveInt, Next: StateTotalPrice},
		{Name: FieldTotalPrice, State: StateTotalPrice, Prompt: PromptTotalPrice, Validate: PositivePrice, Next: StateAwaitingConfirmation},
	}
}
