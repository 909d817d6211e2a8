// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/clubops/memberhub/internal/domain/models"
)

// RenderTemplate renders a stored EmailTemplate against data and returns the
// message addressed from the template's from address when it has one.
// The caller fills in To and may override From per the interest settings.
func RenderTemplate(et models.EmailTemplate, data any) (Email, error) {
	tmpl, err := template.New(et.TemplateName).Parse(et.Template)
	if err != nil {
		return Email{}, fmt.Errorf("parse template %q: %w", et.TemplateName, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("render template %q: %w", et.TemplateName, err)
	}
	return Email{
		From:     et.FromEmail,
		Subject:  et.Subject,
		HTMLBody: buf.String(),
	}, nil
}
