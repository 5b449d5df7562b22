package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template names one of the embedded templates in pkg/mailer/templates;
// Data feeds its rendering. Subject/Text/HTML may be set directly instead.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "verify_email", "reset_password"
	Data     map[string]any `json:"data,omitempty"`
}
