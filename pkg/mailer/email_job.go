package mailer

import "errors"

// EmailJob is the message the API publishes and the email worker consumes.
// Either Template (+Data) or Subject with Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// TemplateJob addresses a rendered-by-the-worker email to one recipient.
func TemplateJob(to, template string, data map[string]any) EmailJob {
	return EmailJob{To: to, Template: template, Data: data}
}

var errNoRecipient = errors.New("email job has no recipient")

// Check rejects jobs the worker could never deliver.
func (j EmailJob) Check() error {
	if j.To == "" {
		return errNoRecipient
	}
	if j.Template == "" && j.Text == "" && j.HTML == "" {
		return errors.New("email job has no body or template")
	}
	return nil
}
