package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var templates = template.Must(template.New("notify").Parse(`
{{define "layout_start"}}<!doctype html><html><body style="font-family:Arial,sans-serif;color:#1f2933;max-width:560px;margin:0 auto;padding:24px">{{end}}
{{define "layout_end"}}<p style="color:#7b8794;font-size:12px;margin-top:32px">Pet Records</p></body></html>{{end}}

{{define "contact"}}{{template "layout_start"}}
<h2>New contact message</h2>
<p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p style="white-space:pre-wrap">{{.Message}}</p>
{{template "layout_end"}}{{end}}

{{define "document_share"}}{{template "layout_start"}}
<h2>{{.SenderName}} shared a document with you</h2>
<p><strong>{{.DocumentName}}</strong></p>
{{if .Note}}<p style="white-space:pre-wrap">{{.Note}}</p>{{end}}
<p><a href="{{.Link}}">Open document</a></p>
<p style="color:#7b8794">This link expires on {{.ExpiresAt}}.</p>
{{template "layout_end"}}{{end}}

{{define "reminder"}}{{template "layout_start"}}
<h2>Reminder: {{.Title}}</h2>
<p>{{.When}}</p>
{{if .Pets}}<p>For: {{range $i, $p := .Pets}}{{if $i}}, {{end}}{{$p}}{{end}}</p>{{end}}
{{if .Notes}}<p style="white-space:pre-wrap">{{.Notes}}</p>{{end}}
<p><a href="{{.AppURL}}/reminders">See your reminders</a></p>
{{template "layout_end"}}{{end}}

{{define "welcome"}}{{template "layout_start"}}
<h2>Welcome to Pet Records!</h2>
<p>Keep your pets' documents, health history and reminders in one place.</p>
<p><a href="{{.AppURL}}">Add your first pet</a></p>
{{template "layout_end"}}{{end}}
`))

type contactData struct {
	Name, Email, Subject, Message string
}

type shareData struct {
	SenderName   string
	DocumentName string
	Note         string
	Link         template.URL
	ExpiresAt    string
}

type reminderData struct {
	Title  string
	When   string
	Notes  string
	Pets   []string
	AppURL template.URL
}

type welcomeData struct {
	AppURL template.URL
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// safeURL solo deja pasar http(s); cualquier otra cosa se escapa como texto.
func safeURL(u string) template.URL {
	if strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://") {
		return template.URL(u)
	}
	return template.URL("#")
}
