// Package mail delivers quote emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/uniqmaker/api/internal/platform/config"
	"github.com/uniqmaker/api/internal/services"
)

const quoteBodyHTML = `<p>Bonjour,</p>
<p>Veuillez trouver ci-joint le devis <strong>{{.QuoteID}}</strong> établi pour {{.CompanyName}}.</p>
{{if .DownloadURL}}<p>Vous pouvez également le télécharger via <a href="{{.DownloadURL}}">ce lien</a> (valable temporairement).</p>{{end}}
<p>Cordialement,<br>L'équipe Uniqmaker</p>`

type sendFunc func(messages ...*gomail.Message) error

// Mailer sends quote emails with the rendered PDF attached.
type Mailer struct {
	from string
	tmpl *template.Template
	send sendFunc
}

// Option customises a Mailer.
type Option func(*Mailer)

// WithSendFunc replaces the SMTP dial-and-send step. Intended for tests.
func WithSendFunc(fn sendFunc) Option {
	return func(m *Mailer) {
		m.send = fn
	}
}

// NewMailer builds an SMTP quote mailer from configuration.
func NewMailer(cfg config.SMTPConfig, opts ...Option) (*Mailer, error) {
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return nil, errors.New("mailer: from address is required")
	}

	tmpl, err := template.New("quote-email").Parse(quoteBodyHTML)
	if err != nil {
		return nil, fmt.Errorf("mailer: parse body template: %w", err)
	}

	m := &Mailer{
		from: from,
		tmpl: tmpl,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.send == nil {
		if strings.TrimSpace(cfg.Host) == "" {
			return nil, errors.New("mailer: smtp host is required")
		}
		dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		m.send = dialer.DialAndSend
	}
	return m, nil
}

var _ services.QuoteMailer = (*Mailer)(nil)

// SendQuote emails the rendered quote to the client contact.
func (m *Mailer) SendQuote(ctx context.Context, email services.QuoteEmail) error {
	if strings.TrimSpace(email.To) == "" {
		return errors.New("mailer: recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, email); err != nil {
		return fmt.Errorf("mailer: render body: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", fmt.Sprintf("Votre devis %s", email.QuoteID))
	msg.SetBody("text/html", body.String())

	if len(email.Attachment) > 0 {
		fileName := email.FileName
		if fileName == "" {
			fileName = "devis.pdf"
		}
		msg.Attach(fileName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(email.Attachment)
			return err
		}))
	}

	if err := m.send(msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
