// Package email delivers overdue-credit reminders over SMTP.
package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
	"github.com/DubeTracker/dube_ledger_app/internal/platform/config"
)

// Mailer sends reminder emails through an SMTP server.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a mailer from the SMTP settings in cfg.
func NewMailer(cfg *config.Config) *Mailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return &Mailer{
		dialer: dialer,
		from:   cfg.SMTPFrom,
	}
}

var _ portssvc.Notifier = (*Mailer)(nil)

// NotifyOverdue sends one email listing every overdue credit for the owner.
func (m *Mailer) NotifyOverdue(ctx context.Context, ownerEmail string, overdue []domain.OverdueCredit) error {
	if len(overdue) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("<h2>Overdue credits</h2>\n")
	sb.WriteString(fmt.Sprintf("<p>%d credit(s) in your ledger are overdue:</p>\n<ul>\n", len(overdue)))
	for _, o := range overdue {
		sb.WriteString(fmt.Sprintf(
			"<li>%s (%s) owes %s for %s, credit taken on %s</li>\n",
			o.CustomerName,
			o.CustomerPhone,
			o.Credit.RemainingAmount.StringFixed(2),
			o.Credit.Item,
			o.Credit.CreditDate.Format("02 Jan 2006"),
		))
	}
	sb.WriteString("</ul>\n<p>Open the app to record payments or follow up with your customers.</p>\n")

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", ownerEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Dube reminder: %d overdue credit(s)", len(overdue)))
	msg.SetBody("text/html", sb.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}
	return nil
}
