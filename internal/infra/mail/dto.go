package mail

type AssignmentEmailData struct {
	Name      string
	LeadTitle string
	LeadURL   string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	dialer dialer
}
