package mailer

import (
	"context"
	"testing"

	"communityhub/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestNew_FallsBackToLogMailer(t *testing.T) {
	m := New(&config.Config{SMTPHost: "smtp.example.com"})
	_, ok := m.(LogMailer)
	assert.True(t, ok)

	m = New(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPUser: "u", SMTPFrom: "u"})
	_, ok = m.(*SMTPMailer)
	assert.True(t, ok)
}

func TestLogMailer_Send(t *testing.T) {
	assert.NoError(t, LogMailer{}.Send(context.Background(), VerificationEmail("a@b.c", "Ann", "123456")))
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	v := VerificationEmail("a@b.c", "Ann <script>", "123456")
	assert.Equal(t, "a@b.c", v.To)
	assert.Contains(t, v.Subject, "Verify")
	assert.Contains(t, v.Text, "123456")
	assert.Contains(t, v.HTML, "123456")
	assert.NotContains(t, v.HTML, "<script>", "names must be escaped in HTML")

	r := PasswordResetEmail("a@b.c", "654321")
	assert.Equal(t, "password_reset", r.Template)
	assert.Contains(t, r.Text, "654321")

	f := FeedbackNotice("admin@b.c", "Ann", "a@b.c", 4, "Great")
	assert.Contains(t, f.Text, "★★★★ (4/5)")
	assert.Contains(t, f.HTML, "Great")
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	m := New(&config.Config{SMTPHost: "127.0.0.1", SMTPPort: 1, SMTPUser: "u", SMTPFrom: "u"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{Template: "x", To: "a@b.c"}), context.Canceled)
}
