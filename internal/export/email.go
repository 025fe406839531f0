package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
	"github.com/paperfix/paperfix/backend/go-services/pkg/metrics"
	"github.com/resend/resend-go/v2"
)

// Sender delivers a prepared email and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, req *resend.SendEmailRequest) (string, error)
}

type resendSender struct {
	client *resend.Client
}

// NewResendSender sends through the Resend API.
func NewResendSender(apiKey string) Sender {
	return &resendSender{client: resend.NewClient(apiKey)}
}

func (s *resendSender) Send(ctx context.Context, req *resend.SendEmailRequest) (string, error) {
	resp, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}

// Mailer emails a document as a PDF attachment.
type Mailer struct {
	renderer *Renderer
	sender   Sender
	from     string
}

// NewMailer builds the From header as "<senderName> <address>".
func NewMailer(renderer *Renderer, sender Sender, address, senderName string) *Mailer {
	from := address
	if senderName != "" {
		from = fmt.Sprintf("%s <%s>", senderName, address)
	}
	return &Mailer{renderer: renderer, sender: sender, from: from}
}

// Send renders content and mails it to recipient. There is no retry; a
// provider failure comes back as an export error.
func (m *Mailer) Send(ctx context.Context, recipient, content, title string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" || content == "" {
		return "", errs.Validation("Missing required fields")
	}
	pdf, err := m.renderer.Render(content, title)
	if err != nil {
		return "", err
	}

	subject := "Your Generated Document"
	text := "Attached is your document. Thank you for using our service."
	if title != "" {
		subject = "Your Document: " + title
		text = fmt.Sprintf("Attached is your document: %s. Thank you for using our service.", title)
	}

	id, err := m.sender.Send(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{recipient},
		Subject: subject,
		Text:    text,
		Attachments: []*resend.Attachment{{
			Content:  pdf,
			Filename: Filename(title),
		}},
	})
	metrics.Exports.WithLabelValues("email", metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Errorf("email: send to recipient failed: %v", err)
		return "", errs.Export("failed to send email", err)
	}
	return id, nil
}
