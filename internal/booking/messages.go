package booking

import (
	"fmt"
	"strings"

	"github.com/m3rciful/tosbook/core/telegram/format"
)

const (
	PromptClientName  = "Tos Book! What is the client name?"
	PromptContact     = "Got it! What is the contact?"
	PromptSessionType = "What type of session would you like to book?"
	PromptDate        = "Please provide the date of the session (dd/mm/yyyy)."
	PromptTime        = "What time would you like to book (HH:MM)?"
	PromptPeople      = "How many people will be attending?"
	PromptTotalPrice  = "Finally, what's the total price for the session?"

	MsgRestarted     = "Let's restart your order. What is the client name?"
	MsgCancelled     = "Booking has been canceled. You can start a new one anytime with /start."
	MsgFallback      = "Nhe nhai mes! Use /start to begin or /cancel to stop."
	MsgBusy          = "Hold on, the receipt is being sent. Use /cancel to stop."
	MsgReceiptSent   = "The receipt will be ready and sent."
	MsgReceiptFailed = "Sorry, the receipt could not be sent. Please try again later with /start."

	// ConfirmLabel is the caption of the confirmation button.
	ConfirmLabel = "Send Receipt"
)

var rejectionPrompts = map[Reason]string{
	ReasonEmpty:        "Please send a non-empty answer.",
	ReasonInvalidCount: "Please enter a valid number of people.",
	ReasonInvalidPrice: "Please enter a valid price.",
	ReasonInvalidDate:  "Please enter a valid date (dd/mm/yyyy).",
	ReasonInvalidTime:  "Please enter a valid time (HH:MM).",
}

// RejectionPrompt returns the re-prompt sent for a rejected answer.
func RejectionPrompt(r Reason) string {
	if p, ok := rejectionPrompts[r]; ok {
		return p
	}
	return MsgFallback
}

// RenderSummary formats the booking record as Telegram Markdown.
func RenderSummary(rec Record) string {
	esc := func(s string) string {
		out, _ := format.EscapeMarkdown(s, format.MarkdownV1)
		return out
	}
	var b strings.Builder
	b.WriteString("*Booking Summary*\n")
	fmt.Fprintf(&b, "*Client Name*: %s\n", esc(rec.ClientName))
	fmt.Fprintf(&b, "*Contact*: %s\n", esc(rec.Contact))
	fmt.Fprintf(&b, "*Session Type*: %s\n", esc(rec.SessionType))
	fmt.Fprintf(&b, "*Date*: %s\n", esc(rec.Date))
	fmt.Fprintf(&b, "*Time*: %s\n", esc(rec.Time))
	fmt.Fprintf(&b, "*Number of People*: %d\n", rec.People)
	fmt.Fprintf(&b, "*Total Price*: $%.2f\n", rec.TotalPrice)
	return b.String()
}
