package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/phrazzld/faros-api/internal/events"
	"github.com/phrazzld/faros-api/internal/platform/email"
)

type content struct {
	subject string
	text    string
	html    string
}

var kindContent = map[Kind]content{
	KindTaskShared: {
		subject: "Task Shared: {{.TaskTitle}}",
		text:    "{{.ActorUsername}} shared the task \"{{.TaskTitle}}\" with you ({{.Permission}} access).",
		html:    `<p><strong>{{.ActorUsername}}</strong> shared the task <em>{{.TaskTitle}}</em> with you ({{.Permission}} access).</p>`,
	},
	KindCommentAdded: {
		subject: "New Comment on: {{.TaskTitle}}",
		text:    "{{.ActorUsername}} commented on your task \"{{.TaskTitle}}\":\n\n{{.Comment}}",
		html:    `<p><strong>{{.ActorUsername}}</strong> commented on your task <em>{{.TaskTitle}}</em>:</p><blockquote>{{.Comment}}</blockquote>`,
	},
	KindTaskCompleted: {
		subject: "Task Completed: {{.TaskTitle}}",
		text:    "{{.ActorUsername}} marked your task \"{{.TaskTitle}}\" as completed.",
		html:    `<p><strong>{{.ActorUsername}}</strong> marked your task <em>{{.TaskTitle}}</em> as completed.</p>`,
	},
	KindTaskDueSoon: {
		subject: "Task Due Soon: {{.TaskTitle}}",
		text:    "Your task \"{{.TaskTitle}}\" is due soon. Reminder scheduled by {{.ActorUsername}}.",
		html:    `<p>Your task <em>{{.TaskTitle}}</em> is due soon. Reminder scheduled by <strong>{{.ActorUsername}}</strong>.</p>`,
	},
}

type compiled struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

var templates = func() map[Kind]compiled {
	out := make(map[Kind]compiled, len(kindContent))
	for k, c := range kindContent {
		out[k] = compiled{
			subject: texttemplate.Must(texttemplate.New(k.String() + "_subject").Parse(c.subject)),
			text:    texttemplate.Must(texttemplate.New(k.String() + "_text").Parse(c.text)),
			html:    htmltemplate.Must(htmltemplate.New(k.String() + "_html").Parse(c.html)),
		}
	}
	return out
}()

// Render builds the message for kind k addressed to to.
func Render(k Kind, to string, p events.NotificationPayload) (email.Message, error) {
	tpl, ok := templates[k]
	if !ok {
		return email.Message{}, fmt.Errorf("no template for notification kind %s", k)
	}

	var subject, text, html bytes.Buffer
	if err := tpl.subject.Execute(&subject, p); err != nil {
		return email.Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := tpl.text.Execute(&text, p); err != nil {
		return email.Message{}, fmt.Errorf("render text: %w", err)
	}
	if err := tpl.html.Execute(&html, p); err != nil {
		return email.Message{}, fmt.Errorf("render html: %w", err)
	}

	return email.Message{
		To:      to,
		Subject: subject.String(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// PasswordResetMessage is sent regardless of notification preferences.
func PasswordResetMessage(to, username, link string) email.Message {
	return email.Message{
		To:      to,
		Subject: "Password Reset Request",
		Text: fmt.Sprintf("Hello %s,\n\nUse the link below to reset your password. It expires in one hour.\n\n%s\n\n"+
			"If you did not request a reset, ignore this email.", username, link),
		HTML: fmt.Sprintf(`<p>Hello %s,</p><p>Use the link below to reset your password. It expires in one hour.</p>`+
			`<p><a href="%s">Reset password</a></p><p>If you did not request a reset, ignore this email.</p>`,
			htmltemplate.HTMLEscapeString(username), htmltemplate.HTMLEscapeString(link)),
	}
}

// VerificationCodeMessage carries the code that verifies an email address.
func VerificationCodeMessage(to, username, code string) email.Message {
	return email.Message{
		To:      to,
		Subject: "Verify your email address",
		Text:    fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in 15 minutes.", username, code),
		HTML: fmt.Sprintf(`<p>Hello %s,</p><p>Your verification code is <strong>%s</strong>. It expires in 15 minutes.</p>`,
			htmltemplate.HTMLEscapeString(username), htmltemplate.HTMLEscapeString(code)),
	}
}
