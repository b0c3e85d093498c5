package notification

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/reeltest/reeltest-api/internal/config"
)

// Invitation carries everything the invitation email needs.
type Invitation struct {
	RecipientEmail string
	TestTitle      string
	TestRole       string
	TestDuration   int
	InvitationURL  string
	Message        string
	SenderName     string
	CompanyName    string
	Deadline       *time.Time
}

// InvitationMailer delivers assessment invitation emails.
type InvitationMailer interface {
	SendInvitation(invitation Invitation) error
}

// SMTPInvitationMailer sends invitation emails using an SMTP server.
type SMTPInvitationMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPInvitationMailer constructs a new SMTPInvitationMailer from config.
func NewSMTPInvitationMailer(cfg config.EmailConfig) (*SMTPInvitationMailer, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("smtp_host is required")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("email from address is required")
	}

	return &SMTPInvitationMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}, nil
}

// SendInvitation dispatches an invitation email to a candidate.
func (m *SMTPInvitationMailer) SendInvitation(invitation Invitation) error {
	subject := fmt.Sprintf("Invitation to take %s assessment", invitation.TestTitle)
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		m.from, invitation.RecipientEmail, subject)

	sender := invitation.SenderName
	if sender == "" {
		sender = "The Hiring Team"
	}
	company := invitation.CompanyName
	if company == "" {
		company = "ReelTest"
	}

	body := strings.Builder{}
	body.WriteString("Hello,\n\n")
	body.WriteString(fmt.Sprintf("%s at %s has invited you to take the %s assessment", sender, company, invitation.TestTitle))
	if invitation.TestRole != "" {
		body.WriteString(fmt.Sprintf(" for the %s role", invitation.TestRole))
	}
	body.WriteString(".\n\n")
	if invitation.Message != "" {
		body.WriteString(invitation.Message + "\n\n")
	}
	if invitation.TestDuration > 0 {
		body.WriteString(fmt.Sprintf("The assessment takes about %d minutes to complete.\n", invitation.TestDuration))
	}
	if invitation.Deadline != nil {
		body.WriteString(fmt.Sprintf("Please submit your work by %s.\n", invitation.Deadline.Format("January 2, 2006")))
	}
	body.WriteString("\nClick the link below to start:\n\n")
	body.WriteString(invitation.InvitationURL + "\n\n")
	body.WriteString("This invitation is valid for a limited time. If you did not expect this email, you can ignore it.\n\n")
	body.WriteString(fmt.Sprintf("Thanks,\n%s\n", sender))

	message := []byte(headers + body.String())

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if strings.TrimSpace(m.username) != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{invitation.RecipientEmail}, message)
}
