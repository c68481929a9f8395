// Package executor performs the side effect of a single sequence step
// through external transports.
package executor

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/homelistingai/outreach/internal/events"
	"github.com/homelistingai/outreach/internal/logging"
	"github.com/homelistingai/outreach/internal/models"
	"github.com/homelistingai/outreach/internal/sequences"
	"github.com/homelistingai/outreach/internal/templates"
)

// EmailTransport sends a rendered email. A false result without an error
// still means the delivery failed.
type EmailTransport interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) (bool, error)
}

// SMSTransport sends a rendered text message.
type SMSTransport interface {
	SendSMS(ctx context.Context, to, message string) error
}

// ContentGenerator produces a personalized email body for ai-email steps.
type ContentGenerator interface {
	GenerateEmail(ctx context.Context, seqCtx models.SequenceContext, prompt string) (string, error)
}

// DeliveryError reports a failed step delivery. The scheduler pauses the
// owning instance when it sees one; no retries happen at this layer.
type DeliveryError struct {
	StepType  sequences.StepType
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s delivery to %s failed: %v", e.StepType, e.Recipient, e.Err)
	}
	return fmt.Sprintf("%s delivery to %s failed", e.StepType, e.Recipient)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

const (
	defaultAIEmailSubject     = "Personalized Follow-up"
	defaultUnsubscribeBaseURL = "https://homelistingai.com/unsubscribe"
)

// Executor executes sequence steps against external transports.
type Executor struct {
	email          EmailTransport
	sms            SMSTransport
	generator      ContentGenerator
	eventRepo      events.Repository
	unsubscribeURL string
	logger         zerolog.Logger
}

// Option configures the Executor.
type Option func(*Executor)

// WithSMSTransport wires an SMS transport for sms steps.
func WithSMSTransport(transport SMSTransport) Option {
	return func(e *Executor) { e.sms = transport }
}

// WithContentGenerator wires a generator for ai-email steps.
func WithContentGenerator(generator ContentGenerator) Option {
	return func(e *Executor) { e.generator = generator }
}

// WithEventRepository wires the event log used for task records.
func WithEventRepository(repo events.Repository) Option {
	return func(e *Executor) { e.eventRepo = repo }
}

// WithUnsubscribeBaseURL overrides the unsubscribe link base used in the
// compliance footer.
func WithUnsubscribeBaseURL(baseURL string) Option {
	return func(e *Executor) {
		if baseURL != "" {
			e.unsubscribeURL = baseURL
		}
	}
}

// New creates an Executor. The email transport is mandatory; everything
// else is optional.
func New(email EmailTransport, opts ...Option) *Executor {
	e := &Executor{
		email:          email,
		unsubscribeURL: defaultUnsubscribeBaseURL,
		logger:         logging.Component("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute performs the step's side effect using the resolved context.
// Delivery failures come back as *DeliveryError.
func (e *Executor) Execute(ctx context.Context, step sequences.Step, seqCtx models.SequenceContext) error {
	switch step.Type {
	case sequences.StepTypeEmail:
		return e.executeEmail(ctx, step, seqCtx)
	case sequences.StepTypeAIEmail:
		return e.executeAIEmail(ctx, step, seqCtx)
	case sequences.StepTypeTask:
		return e.executeTask(ctx, step, seqCtx)
	case sequences.StepTypeMeeting:
		return e.executeMeeting(step, seqCtx)
	case sequences.StepTypeSMS:
		return e.executeSMS(ctx, step, seqCtx)
	default:
		return fmt.Errorf("unknown step type %q", step.Type)
	}
}

func (e *Executor) executeEmail(ctx context.Context, step sequences.Step, seqCtx models.SequenceContext) error {
	subject := step.Subject
	if subject == "" {
		subject = "Follow-up"
	}
	subject = templates.Resolve(subject, seqCtx)
	body := templates.Resolve(step.Body, seqCtx)

	html := templates.ToHTML(body) + e.complianceFooter(seqCtx)

	return e.sendEmail(ctx, step.Type, seqCtx, subject, html)
}

func (e *Executor) executeAIEmail(ctx context.Context, step sequences.Step, seqCtx models.SequenceContext) error {
	body := step.Body
	if e.generator != nil {
		generated, err := e.generator.GenerateEmail(ctx, seqCtx, step.Body)
		if err != nil {
			// Generation failures never block the step; the literal
			// body template is substituted instead.
			e.logger.Warn().Err(err).
				Str("lead_id", seqCtx.Lead.ID).
				Msg("content generation failed, falling back to literal body")
		} else {
			body = generated
		}
	}

	subject := step.Subject
	if subject == "" {
		subject = defaultAIEmailSubject
	}
	subject = templates.Resolve(subject, seqCtx)
	html := templates.ToHTML(templates.Resolve(body, seqCtx)) + e.complianceFooter(seqCtx)

	return e.sendEmail(ctx, step.Type, seqCtx, subject, html)
}

func (e *Executor) sendEmail(ctx context.Context, stepType sequences.StepType, seqCtx models.SequenceContext, subject, html string) error {
	to := seqCtx.Lead.Email

	ok, err := e.email.SendEmail(ctx, to, subject, html)
	if err != nil {
		return &DeliveryError{StepType: stepType, Recipient: to, Err: err}
	}
	if !ok {
		return &DeliveryError{StepType: stepType, Recipient: to}
	}

	e.logger.Info().
		Str("lead_id", seqCtx.Lead.ID).
		Str("to", to).
		Str("subject", subject).
		Msg("email sent")
	return nil
}

func (e *Executor) executeTask(ctx context.Context, step sequences.Step, seqCtx models.SequenceContext) error {
	content := templates.Resolve(step.Body, seqCtx)

	e.logger.Info().
		Str("lead_id", seqCtx.Lead.ID).
		Str("content", content).
		Msg("task created")

	// Task-list integration is an external collaborator; the event log is
	// the hand-off point. Failures to record are logged, not surfaced.
	if e.eventRepo != nil {
		if err := events.LogTaskCreated(ctx, e.eventRepo, seqCtx.Lead.ID, content); err != nil {
			e.logger.Warn().Err(err).Msg("failed to record task event")
		}
	}
	return nil
}

func (e *Executor) executeMeeting(step sequences.Step, seqCtx models.SequenceContext) error {
	content := templates.Resolve(step.Body, seqCtx)

	// Calendar integration is external; log the scheduling request.
	e.logger.Info().
		Str("lead_id", seqCtx.Lead.ID).
		Str("content", content).
		Msg("meeting requested")
	return nil
}

func (e *Executor) executeSMS(ctx context.Context, step sequences.Step, seqCtx models.SequenceContext) error {
	to := seqCtx.Lead.Phone
	if e.sms == nil {
		return &DeliveryError{StepType: step.Type, Recipient: to, Err: fmt.Errorf("no sms transport configured")}
	}

	message := templates.Resolve(step.Body, seqCtx)
	if !strings.Contains(strings.ToLower(message), "stop") {
		message += "\n\nReply STOP to unsubscribe"
	}

	if err := e.sms.SendSMS(ctx, to, message); err != nil {
		return &DeliveryError{StepType: step.Type, Recipient: to, Err: err}
	}

	e.logger.Info().
		Str("lead_id", seqCtx.Lead.ID).
		Str("to", to).
		Msg("sms sent")
	return nil
}

// complianceFooter builds the unsubscribe footer appended to every
// outbound email.
func (e *Executor) complianceFooter(seqCtx models.SequenceContext) string {
	company := seqCtx.Agent.Company
	if company == "" {
		company = "us"
	}

	return fmt.Sprintf(`
<div style="margin-top: 30px; border-top: 1px solid #e2e8f0; padding-top: 15px; font-family: sans-serif;">
  <p style="font-size: 12px; color: #64748b; margin-bottom: 5px;">
    You are receiving this email because you requested information about a property or contacted %s.
  </p>
  <p style="font-size: 12px; color: #64748b;">
    <a href="%s?email=%s" style="color: #64748b; text-decoration: underline;">Unsubscribe</a> from future updates.
  </p>
</div>`, company, e.unsubscribeURL, url.QueryEscape(seqCtx.Lead.Email))
}
