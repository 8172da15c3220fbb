package distribution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gsoultan/gsmail"
	"github.com/gsoultan/gsmail/smtp"
	appforms "github.com/formflow/backend/internal/application/forms"
	"github.com/formflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure SMTPMailer implements the Mailer port
var _ appforms.Mailer = (*SMTPMailer)(nil)

// SMTPMailer delivers generated documents by email over SMTP
type SMTPMailer struct {
	sender gsmail.Sender
	from   string
	logger *zap.Logger
}

// SMTPMailerOption configures the mailer
type SMTPMailerOption func(*SMTPMailer)

// WithLogger sets a custom logger for SMTPMailer
func WithLogger(logger *zap.Logger) SMTPMailerOption {
	return func(m *SMTPMailer) {
		m.logger = logger
	}
}

// NewSMTPMailer creates a mailer from SMTP configuration
func NewSMTPMailer(cfg *config.SMTPConfig, opts ...SMTPMailerOption) (*SMTPMailer, error) {
	if cfg == nil {
		return nil, errors.New("smtp configuration is required")
	}
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	m := &SMTPMailer{
		sender: smtp.NewSender(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.SSL),
		from:   cfg.From,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Send delivers one message. CC addresses ride in the recipient list;
// text artifacts are inlined below the body, binary artifacts are
// referenced by file name.
func (m *SMTPMailer) Send(ctx context.Context, msg *appforms.MailMessage) error {
	if msg == nil {
		return errors.New("mail message is nil")
	}
	if len(msg.To) == 0 {
		return errors.New("mail message has no recipients")
	}

	recipients := normalizeAndDedupeEmails(append(append([]string{}, msg.To...), msg.CC...))
	if len(recipients) == 0 {
		return errors.New("mail message has no valid recipients")
	}

	email := gsmail.Email{
		From:    m.from,
		To:      recipients,
		Subject: msg.Subject,
		Body:    []byte(buildBody(msg)),
	}

	if err := m.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	m.logger.Info("email sent",
		zap.Strings("to", recipients),
		zap.String("subject", msg.Subject),
		zap.Int("attachmentBytes", len(msg.Attachment)))
	return nil
}

// Ping verifies the SMTP connection
func (m *SMTPMailer) Ping(ctx context.Context) error {
	return m.sender.Ping(ctx)
}

func buildBody(msg *appforms.MailMessage) string {
	var b strings.Builder
	b.WriteString(msg.Body)
	if len(msg.Attachment) == 0 {
		return b.String()
	}

	b.WriteString("\n\n")
	if isTextAttachment(msg.Attachment) {
		b.WriteString("---- ")
		b.WriteString(msg.AttachmentName)
		b.WriteString(" ----\n")
		b.Write(msg.Attachment)
	} else {
		fmt.Fprintf(&b, "The generated document %s (%d bytes) is available from the download channel.",
			msg.AttachmentName, len(msg.Attachment))
	}
	return b.String()
}

// isTextAttachment reports whether the payload is printable text
func isTextAttachment(data []byte) bool {
	for _, c := range data {
		if c >= 0x20 || c == '\n' || c == '\r' || c == '\t' {
			continue
		}
		return false
	}
	return true
}

// normalizeAndDedupeEmails lowercases, trims, removes empties and
// duplicates preserving order
func normalizeAndDedupeEmails(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		n := strings.ToLower(strings.TrimSpace(e))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
