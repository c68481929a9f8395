package transport

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/homelistingai/outreach/internal/logging"
)

// ConsoleEmailTransport logs outgoing email instead of sending it. Used
// for dry runs and local development.
type ConsoleEmailTransport struct {
	logger zerolog.Logger
}

// NewConsoleEmailTransport creates a log-only email transport.
func NewConsoleEmailTransport() *ConsoleEmailTransport {
	return &ConsoleEmailTransport{logger: logging.Component("email")}
}

// SendEmail logs the message and reports success.
func (t *ConsoleEmailTransport) SendEmail(ctx context.Context, to, subject, html string) (bool, error) {
	t.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(html)).
		Msg("email (dry run)")
	return true, nil
}

// ConsoleSMSTransport logs outgoing SMS instead of sending it.
type ConsoleSMSTransport struct {
	logger zerolog.Logger
}

// NewConsoleSMSTransport creates a log-only SMS transport.
func NewConsoleSMSTransport() *ConsoleSMSTransport {
	return &ConsoleSMSTransport{logger: logging.Component("sms")}
}

// SendSMS logs the message and reports success.
func (t *ConsoleSMSTransport) SendSMS(ctx context.Context, to, message string) error {
	t.logger.Info().
		Str("to", to).
		Str("body", message).
		Msg("sms (dry run)")
	return nil
}

// LogAssigner logs assignments instead of calling the funnel API. Used
// for campaign dry runs.
type LogAssigner struct {
	logger zerolog.Logger
}

// NewLogAssigner creates a log-only assigner.
func NewLogAssigner() *LogAssigner {
	return &LogAssigner{logger: logging.Component("assigner")}
}

// Assign logs the assignment and reports success.
func (a *LogAssigner) Assign(ctx context.Context, leadID, actionType string) error {
	a.logger.Info().
		Str("lead_id", leadID).
		Str("action", actionType).
		Msg("assignment (dry run)")
	return nil
}

// LogNotifier logs notifications instead of delivering them.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logging.Component("notify")}
}

// NotifyUser logs the notification.
func (n *LogNotifier) NotifyUser(ctx context.Context, userID, title, body, kind, priority string) error {
	n.logger.Info().
		Str("user_id", userID).
		Str("title", title).
		Str("priority", priority).
		Msg(body)
	return nil
}
