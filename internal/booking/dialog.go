package booking

import (
	"strings"

	"github.com/google/uuid"

	"github.com/m3rciful/tosbook/core/telegram/state"
)

// EventKind enumerates inbound events.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventText
	EventCancel
	EventRestart
	EventConfirm
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventText:
		return "text"
	case EventCancel:
		return "cancel"
	case EventRestart:
		return "restart"
	case EventConfirm:
		return "confirm"
	}
	return "unknown"
}

// Event is one inbound interaction from a participant.
type Event struct {
	Kind EventKind
	Text string
}

// Reply is one outbound message to the participant.
type Reply struct {
	Text string
	// Markdown selects Telegram markdown rendering.
	Markdown bool
	// Confirm attaches the confirmation button.
	Confirm bool
	// Acknowledge marks the answer to a confirmation; transports may replace
	// the summary message with it.
	Acknowledge bool
}

func text(s string) []Reply { return []Reply{{Text: s}} }

// Outcome is the result of applying an event to a session.
type Outcome struct {
	// Next is the session to store; nil removes it.
	Next *Session
	// To is the state the participant ends up in (StateIdle when no session remains).
	To      state.State
	Replies []Reply
	// Dispatch is set when the receipt must be sent.
	Dispatch *Record
	// Rejected carries the validator reason for a refused answer.
	Rejected Reason
}

// Dialog is the booking state machine. Transitions are pure apart from
// minting a token for new sessions.
type Dialog struct {
	fields  []Field
	byState map[state.State]Field
	first   Field
	token   func() string
}

// NewDialog builds a dialog over the given field table (collection order).
func NewDialog(fields []Field) *Dialog {
	if len(fields) == 0 {
		fields = DefaultFields(FieldOptions{})
	}
	d := &Dialog{
		fields:  fields,
		byState: make(map[state.State]Field, len(fields)),
		first:   fields[0],
		token:   uuid.NewString,
	}
	for _, f := range fields {
		d.byState[f.State] = f
	}
	return d
}

// Fields returns the field table.
func (d *Dialog) Fields() []Field { return d.fields }

func (d *Dialog) fresh(id int64) *Session {
	return &Session{ID: id, Token: d.token(), State: d.first.State}
}

// Transition applies ev to cur (nil when the participant has no session).
func (d *Dialog) Transition(id int64, cur *Session, ev Event) Outcome {
	switch ev.Kind {
	case EventCancel:
		return Outcome{To: state.StateIdle, Replies: text(MsgCancelled)}
	case EventRestart:
		next := d.fresh(id)
		return Outcome{Next: next, To: next.State, Replies: text(MsgRestarted)}
	}

	if cur != nil && cur.Dispatching {
		return unchanged(cur, MsgBusy)
	}

	switch ev.Kind {
	case EventStart:
		next := d.fresh(id)
		return Outcome{Next: next, To: next.State, Replies: text(d.first.Prompt)}
	case EventConfirm:
		return d.confirm(cur)
	case EventText:
		return d.answer(cur, ev.Text)
	}
	return unchanged(cur, MsgFallback)
}

func (d *Dialog) answer(cur *Session, raw string) Outcome {
	if cur == nil || isCommand(raw) {
		return unchanged(cur, MsgFallback)
	}
	f, ok := d.byState[cur.State]
	if !ok {
		// not a collecting state, e.g. awaiting confirmation
		return unchanged(cur, MsgFallback)
	}

	res := f.Validate(raw)
	if !res.OK() {
		out := unchanged(cur, RejectionPrompt(res.Reason))
		out.Rejected = res.Reason
		return out
	}

	next := cur.advance(f.Name, res.Value, f.Next)
	if nf, ok := d.byState[f.Next]; ok {
		return Outcome{Next: next, To: next.State, Replies: text(nf.Prompt)}
	}

	next.State = StateAwaitingConfirmation
	rec, err := RecordFrom(next.Fields)
	if err != nil {
		// a custom field table that does not produce a full record
		return Outcome{To: state.StateIdle, Replies: text(MsgFallback)}
	}
	return Outcome{
		Next: next,
		To:   next.State,
		Replies: []Reply{{
			Text:     RenderSummary(rec),
			Markdown: true,
			Confirm:  true,
		}},
	}
}

func (d *Dialog) confirm(cur *Session) Outcome {
	if cur == nil || cur.State != StateAwaitingConfirmation {
		return unchanged(cur, MsgFallback)
	}
	rec, err := RecordFrom(cur.Fields)
	if err != nil {
		return Outcome{To: state.StateIdle, Replies: text(MsgFallback)}
	}
	next := *cur
	next.Dispatching = true
	return Outcome{Next: &next, To: next.State, Dispatch: &rec}
}

// Finish completes a dispatch started for the session lifetime identified by token.
// The session moves to END and is removed; a session replaced meanwhile by
// cancel or restart is left alone. The participant is told the outcome either way.
func (d *Dialog) Finish(cur *Session, token string, dispatchErr error) Outcome {
	ack := Reply{Text: MsgReceiptSent, Acknowledge: true}
	if dispatchErr != nil {
		ack.Text = MsgReceiptFailed
	}
	if cur == nil || cur.Token != token || !cur.Dispatching {
		out := unchanged(cur, "")
		out.Replies = []Reply{ack}
		return out
	}
	return Outcome{To: StateEnd, Replies: []Reply{ack}}
}

func unchanged(cur *Session, msg string) Outcome {
	out := Outcome{Next: cur, To: state.StateIdle}
	if cur != nil {
		out.To = cur.State
	}
	if msg != "" {
		out.Replies = text(msg)
	}
	return out
}

func isCommand(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "/")
}
