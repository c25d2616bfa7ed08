package templates

import (
	"time"

	"github.com/oksasatya/go-bookshelf-rbac/config"
)

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}
func WithRole(role string) Option { return func(d *EmailData) { d.Role = role } }

// NewBaseEmailData fills the shared fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:    cfg.LogoURL,
		SupportURL: cfg.SupportURL,
		LoginURL:   cfg.LoginURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email, role string, opts ...Option) map[string]any {
	opts = append([]Option{WithRole(role)}, opts...)
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email, opts...))
}

func NewPasswordChangedData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, PasswordChanged, name, email, opts...))
}

func NewRoleChangedData(cfg *config.Config, name, email, oldRole, newRole string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, RoleChanged, name, email, append([]Option{WithRole(newRole)}, opts...)...)
	d.OldRole = oldRole
	return ToMap(d)
}
