package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names a security notification.
type Template string

const (
	TemplateTwoFactorEnabled       Template = "two_factor_enabled"
	TemplateTwoFactorDisabled      Template = "two_factor_disabled"
	TemplateBackupCodesRegenerated Template = "backup_codes_regenerated"
)

var subjects = map[Template]string{
	TemplateTwoFactorEnabled:       "Two-factor authentication enabled",
	TemplateTwoFactorDisabled:      "Two-factor authentication disabled",
	TemplateBackupCodesRegenerated: "Your backup codes were regenerated",
}

var templates = func() map[Template]*template.Template {
	out := make(map[Template]*template.Template, len(subjects))
	for name := range subjects {
		out[name] = template.Must(template.ParseFS(templateFS,
			"templates/layout.html",
			fmt.Sprintf("templates/%s.html", name),
		))
	}
	return out
}()

// NotificationData is the view model shared by all notification templates.
type NotificationData struct {
	Name         string
	IP           string
	SupportEmail string
	OccurredAt   time.Time
	Subject      string
}

// Render builds ready-to-send params for a notification addressed to sendTo.
func Render(tpl Template, sendTo string, data NotificationData) (SendEmailParams, error) {
	t, ok := templates[tpl]
	if !ok {
		return SendEmailParams{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, tpl)
	}
	data.Subject = subjects[tpl]
	if data.Name == "" {
		data.Name = "there"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return SendEmailParams{}, fmt.Errorf("render %s: %w", tpl, err)
	}
	return SendEmailParams{
		SendTo:   sendTo,
		Subject:  data.Subject,
		BodyHTML: buf.String(),
		Tag:      string(tpl),
	}, nil
}
