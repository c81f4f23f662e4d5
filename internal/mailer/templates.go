package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const brand = "COMMUNITY HUB"

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f4f4f4; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: #ffffff; padding: 30px; border-radius: 8px;">
    <h1 style="color: #2563eb;">{{.Brand}}</h1>
    <h2>{{.Heading}}</h2>
    {{range .Lines}}<p>{{.}}</p>
    {{end}}{{if .Code}}<div style="font-size: 32px; font-weight: bold; letter-spacing: 8px; background: #eff6ff; padding: 16px; text-align: center;">{{.Code}}</div>{{end}}
    {{if .Footer}}<p style="color: #6b7280; font-size: 12px;">{{.Footer}}</p>{{end}}
  </div>
</body>
</html>`))

type layoutData struct {
	Brand   string
	Heading string
	Lines   []string
	Code    string
	Footer  string
}

func render(d layoutData) string {
	d.Brand = brand
	var buf bytes.Buffer
	if err := layout.Execute(&buf, d); err != nil {
		return ""
	}
	return buf.String()
}

// VerificationEmail carries the 6-digit code sent after registration.
func VerificationEmail(to, name, code string) Message {
	lines := []string{
		fmt.Sprintf("Hi %s,", name),
		"Thanks for joining. Enter this code to verify your email address:",
	}
	footer := "This code expires in 15 minutes. Ignore this email if you did not sign up."
	return Message{
		Template: "verification",
		To:       to,
		Subject:  "Verify Your Email - " + brand,
		Text:     strings.Join(append(lines, code, footer), "\n\n"),
		HTML:     render(layoutData{Heading: "Verify your email", Lines: lines, Code: code, Footer: footer}),
	}
}

// PasswordResetEmail carries the reset code.
func PasswordResetEmail(to, code string) Message {
	lines := []string{"We received a request to reset your password. Use this code to choose a new one:"}
	footer := "This code expires in 1 hour. If you did not ask for a reset, you can ignore this email."
	return Message{
		Template: "password_reset",
		To:       to,
		Subject:  "Password Reset - " + brand,
		Text:     strings.Join(append(lines, code, footer), "\n\n"),
		HTML:     render(layoutData{Heading: "Reset your password", Lines: lines, Code: code, Footer: footer}),
	}
}

// FeedbackNotice tells the admin about new feedback.
func FeedbackNotice(to, fromName, fromEmail string, rating int, message string) Message {
	stars := min(max(rating, 0), 5)
	lines := []string{
		fmt.Sprintf("From: %s (%s)", fromName, fromEmail),
		fmt.Sprintf("Rating: %s (%d/5)", strings.Repeat("★", stars), rating),
		message,
	}
	return Message{
		Template: "feedback",
		To:       to,
		Subject:  "New Feedback Received - " + brand,
		Text:     strings.Join(lines, "\n\n"),
		HTML:     render(layoutData{Heading: "New feedback", Lines: lines}),
	}
}
