package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Notification tells the operator that a try-on request is waiting to be processed.
type Notification struct {
	FormID    string    `json:"formId"`
	Timestamp time.Time `json:"timestamp"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

const operatorSubject = "New try-on submission"

// OperatorMessage renders the plain text body sent to the operator.
func OperatorMessage(n Notification) string {
	text := "A new form submission has been received.\n"
	if n.FormID == "" && n.Timestamp.IsZero() {
		return text + "No additional details were provided."
	}

	formID, submittedAt := "N/A", "N/A"
	if n.FormID != "" {
		formID = n.FormID
	}
	if !n.Timestamp.IsZero() {
		submittedAt = n.Timestamp.UTC().Format(time.RFC3339)
	}
	return text + fmt.Sprintf("Form ID: %s\nSubmitted At: %s", formID, submittedAt)
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log only records the notification. Useful for local development.
type Log struct{}

func (Log) Notify(ctx context.Context, n Notification) error {
	slog.Info("try-on submission received", "form_id", n.FormID, "timestamp", n.Timestamp)
	return nil
}
