package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

var assignmentTmpl = template.Must(template.ParseFS(templatesFS, "templates/assignment.html"))

const defaultFrom = "no-reply@pipeline-crm.local"

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	if from == "" {
		from = defaultFrom
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// SendAssignment tells a user a lead was assigned to them.
func (s *EmailSender) SendAssignment(to, name, leadTitle, leadURL string) error {
	m, err := s.assignmentMessage(to, name, leadTitle, leadURL)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send SMTP email: %w", err)
	}
	return nil
}

func (s *EmailSender) assignmentMessage(to, name, leadTitle, leadURL string) (*gomail.Message, error) {
	var body bytes.Buffer
	data := AssignmentEmailData{Name: name, LeadTitle: leadTitle, LeadURL: leadURL}
	if err := assignmentTmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("New lead assigned to you: %s", leadTitle))
	m.SetBody("text/html", body.String())
	return m, nil
}
