// Package notification provides the email/SMS dispatch seam: sender
// interfaces, template rendering, mock senders for tests, and a best-effort
// dispatcher that never fails the business operation it decorates.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Sender Interfaces
// ---------------------------------------------------------------------------

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is the interface for sending SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// InboxStore persists an in-app copy of a notification for the recipient.
type InboxStore interface {
	SaveInbox(ctx context.Context, userID uuid.UUID, typ, title, body string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Built-in template IDs.
const (
	TplWelcome            = "welcome"
	TplVerifyEmail        = "verify-email"
	TplPasswordReset      = "password-reset"
	TplPasswordChanged    = "password-changed"
	TplLoginAlert         = "login-alert"
	TplAppointmentBooked  = "appointment-booked"
	TplAppointmentCancel  = "appointment-cancelled"
	TplAppointmentMoved   = "appointment-rescheduled"
	TplAppointmentRemind  = "appointment-reminder"
	TplPrescriptionIssued = "prescription-issued"
)

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TplWelcome,
			Name:    "Welcome",
			Subject: "Welcome to {{hospital}}",
			Body:    "Dear {{name}}, your account has been created. Your registration number is {{number}}.",
		},
		{
			ID:      TplVerifyEmail,
			Name:    "Verify Email",
			Subject: "Verify your email address",
			Body:    "Dear {{name}}, please verify your email using this token: {{token}}. It expires in 24 hours.",
		},
		{
			ID:      TplPasswordReset,
			Name:    "Password Reset",
			Subject: "Password Reset Request",
			Body:    "You requested a password reset. Use this token within 10 minutes: {{token}}. If you did not request this, ignore this message.",
		},
		{
			ID:      TplPasswordChanged,
			Name:    "Password Changed",
			Subject: "Your password was changed",
			Body:    "Dear {{name}}, your password was changed on {{when}}. If this was not you, contact support immediately.",
		},
		{
			ID:      TplLoginAlert,
			Name:    "Login Alert",
			Subject: "New sign-in to your account",
			Body:    "Dear {{name}}, your account was signed in from {{ip}} on {{when}}.",
		},
		{
			ID:      TplAppointmentBooked,
			Name:    "Appointment Booked",
			Subject: "Appointment {{number}} confirmed",
			Body:    "Dear {{name}}, your appointment with {{doctor}} on {{date}} at {{time}} has been booked.",
		},
		{
			ID:      TplAppointmentCancel,
			Name:    "Appointment Cancelled",
			Subject: "Appointment {{number}} cancelled",
			Body:    "Dear {{name}}, your appointment on {{date}} at {{time}} has been cancelled.",
		},
		{
			ID:      TplAppointmentMoved,
			Name:    "Appointment Rescheduled",
			Subject: "Appointment {{number}} rescheduled",
			Body:    "Dear {{name}}, your appointment with {{doctor}} has been moved to {{date}} at {{time}}.",
		},
		{
			ID:      TplAppointmentRemind,
			Name:    "Appointment Reminder",
			Subject: "Appointment reminder for {{name}}",
			Body:    "Dear {{name}}, this is a reminder of your appointment on {{date}} at {{time}} with {{doctor}}.",
		},
		{
			ID:      TplPrescriptionIssued,
			Name:    "Prescription Issued",
			Subject: "New prescription {{number}}",
			Body:    "Dear {{name}}, {{doctor}} has issued you a new prescription. Log in to view the details.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Mock Senders (test doubles)
// ---------------------------------------------------------------------------

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// SMSCall records a single call to SendSMS.
type SMSCall struct {
	To   string
	Body string
}

// MockSMSSender is a test double for SMSSender.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
	FailError  string
}

// SendSMS records the call and optionally returns an error.
func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded SMS calls.
func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ---------------------------------------------------------------------------
// Dispatcher
// ---------------------------------------------------------------------------

// Recipient addresses a notification. UserID is optional; when set the
// dispatcher also drops an in-app copy into the recipient's inbox.
type Recipient struct {
	UserID *uuid.UUID
	Email  string
	Phone  string
	Name   string
}

// Dispatcher renders templates and sends them through the configured
// channels. Dispatch swallows failures; Send reports them so the one caller
// that must react (password-reset issuance) can roll back.
type Dispatcher struct {
	email  EmailSender
	sms    SMSSender
	engine *TemplateEngine
	inbox  InboxStore
	log    zerolog.Logger
}

// NewDispatcher constructs a Dispatcher. inbox may be nil.
func NewDispatcher(email EmailSender, sms SMSSender, inbox InboxStore, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		email:  email,
		sms:    sms,
		engine: NewTemplateEngine(),
		inbox:  inbox,
		log:    logger,
	}
}

// Engine exposes the template engine for registration of custom templates.
func (d *Dispatcher) Engine() *TemplateEngine { return d.engine }

// Send renders the template and delivers it by email, saving an inbox copy
// when the recipient has a user id. The returned error reflects email
// delivery only; inbox failures are logged and dropped.
func (d *Dispatcher) Send(ctx context.Context, to Recipient, templateID string, data map[string]string) error {
	if data == nil {
		data = map[string]string{}
	}
	if _, ok := data["name"]; !ok && to.Name != "" {
		data["name"] = to.Name
	}

	subject, body, err := d.engine.Render(templateID, data)
	if err != nil {
		return err
	}

	if d.inbox != nil && to.UserID != nil {
		if err := d.inbox.SaveInbox(ctx, *to.UserID, templateID, subject, body); err != nil {
			d.log.Error().Err(err).Str("template", templateID).Msg("inbox save failed")
		}
	}

	if err := d.email.SendEmail(ctx, to.Email, subject, body); err != nil {
		return fmt.Errorf("send %s email: %w", templateID, err)
	}
	return nil
}

// Dispatch is the fire-and-forget variant of Send: failures are logged,
// never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, to Recipient, templateID string, data map[string]string) {
	if err := d.Send(ctx, to, templateID, data); err != nil {
		d.log.Warn().Err(err).Str("template", templateID).Str("to", to.Email).Msg("notification dispatch failed")
	}
}

// DispatchSMS sends a rendered template body over SMS, best-effort.
func (d *Dispatcher) DispatchSMS(ctx context.Context, to Recipient, templateID string, data map[string]string) {
	if d.sms == nil {
		return
	}
	_, body, err := d.engine.Render(templateID, data)
	if err != nil {
		d.log.Warn().Err(err).Str("template", templateID).Msg("sms render failed")
		return
	}
	if err := d.sms.SendSMS(ctx, to.Phone, body); err != nil {
		d.log.Warn().Err(err).Str("template", templateID).Str("to", to.Phone).Msg("sms dispatch failed")
	}
}
