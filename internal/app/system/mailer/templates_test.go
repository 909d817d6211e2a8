package mailer

import (
	"strings"
	"testing"

	"github.com/clubops/memberhub/internal/domain/models"
)

func TestRenderTemplate(t *testing.T) {
	et := models.EmailTemplate{
		TemplateName: "member-email",
		Subject:      "Tasks need attention",
		Template:     `<p>Hello</p><ul>{{range .Tasks}}<li>{{.Task}}: {{.Status}}</li>{{end}}</ul><a href="{{.RefURL}}">checklist</a>`,
		FromEmail:    "tasks@club.example",
	}

	data := struct {
		Tasks []struct{ Task, Status string }
		RefURL string
	}{
		Tasks: []struct{ Task, Status string }{
			{"Safe Sport", "overdue"},
			{"Budget", "expires soon"},
		},
		RefURL: "https://club.example/fsrc/taskchecklist",
	}

	email, err := RenderTemplate(et, data)
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if email.From != "tasks@club.example" {
		t.Errorf("From = %q", email.From)
	}
	if email.Subject != "Tasks need attention" {
		t.Errorf("Subject = %q", email.Subject)
	}
	for _, want := range []string{"Safe Sport: overdue", "Budget: expires soon", "taskchecklist"} {
		if !strings.Contains(email.HTMLBody, want) {
			t.Errorf("body missing %q:\n%s", want, email.HTMLBody)
		}
	}
}

func TestRenderTemplateBadSyntax(t *testing.T) {
	et := models.EmailTemplate{TemplateName: "broken", Template: "{{.Oops"}
	if _, err := RenderTemplate(et, nil); err == nil {
		t.Error("expected parse error")
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@club.example", "Club", Email{
		To:       "member@example.com",
		Subject:  "hi",
		HTMLBody: "<p>hi</p>",
	}))
	for _, want := range []string{
		"From: Club <noreply@club.example>",
		"To: member@example.com",
		"Subject: hi",
		"text/html",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}
