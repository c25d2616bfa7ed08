package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/go-bookshelf-rbac/pkg/mailer"
	mailtpl "github.com/oksasatya/go-bookshelf-rbac/pkg/mailer/templates"
)

// FallbackSubject is used when a job carries neither a subject nor a known template.
func FallbackSubject(template string) string {
	switch strings.ToLower(template) {
	case mailtpl.Welcome:
		return "Welcome"
	case mailtpl.PasswordChanged:
		return "Your password was changed"
	case mailtpl.RoleChanged:
		return "Your role was updated"
	default:
		return "Notification"
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
