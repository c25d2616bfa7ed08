package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/config"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/mailer"
	mailtpl "github.com/oksasatya/go-bookshelf-rbac/pkg/mailer/templates"
)

// Publisher puts a JSON message on the email queue.
// helpers.RabbitPublisher satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// RequestMeta describes the client that triggered a notification.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Notifier publishes email jobs. Failures are logged, never returned:
// a lost email must not fail the request that caused it.
type Notifier struct {
	Pub    Publisher
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewNotifier(pub Publisher, cfg *config.Config, logger *logrus.Logger) *Notifier {
	return &Notifier{Pub: pub, Cfg: cfg, Logger: logger}
}

func (n *Notifier) enabled() bool {
	return n != nil && n.Pub != nil && n.Cfg != nil && n.Cfg.MailSendEnabled
}

func (n *Notifier) Welcome(ctx context.Context, u *entity.User) {
	if !n.enabled() {
		return
	}
	data := mailtpl.NewWelcomeData(n.Cfg, u.Username, u.Email, u.Role.String(), mailtpl.WithTime(time.Now()))
	n.publish(ctx, mailer.TemplateJob(u.Email, mailtpl.Welcome, data))
}

func (n *Notifier) PasswordChanged(ctx context.Context, u *entity.User, meta RequestMeta) {
	if !n.enabled() {
		return
	}
	data := mailtpl.NewPasswordChangedData(n.Cfg, u.Username, u.Email,
		mailtpl.WithTime(time.Now()), mailtpl.WithIP(meta.IP), mailtpl.WithUserAgent(meta.UserAgent))
	n.publish(ctx, mailer.TemplateJob(u.Email, mailtpl.PasswordChanged, data))
}

func (n *Notifier) RoleChanged(ctx context.Context, u *entity.User, old entity.Role) {
	if !n.enabled() {
		return
	}
	data := mailtpl.NewRoleChangedData(n.Cfg, u.Username, u.Email, old.String(), u.Role.String(), mailtpl.WithTime(time.Now()))
	n.publish(ctx, mailer.TemplateJob(u.Email, mailtpl.RoleChanged, data))
}

func (n *Notifier) publish(ctx context.Context, job mailer.EmailJob) {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := n.Pub.PublishJSON(c, job); err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithFields(logrus.Fields{"template": job.Template, "to": job.To}).Warn("publish email job failed")
	}
}
