package sender_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyq/pkg/notification"
	"github.com/dmitrymomot/notifyq/pkg/sender"
)

func TestParseService(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"email", "sms", "chat"} {
		svc, err := sender.ParseService(name)
		require.NoError(t, err)
		assert.Equal(t, sender.Service(name), svc)
	}

	_, err := sender.ParseService("carrier-pigeon")
	assert.ErrorIs(t, err, sender.ErrUnknownService)

	_, err = sender.ParseService("")
	assert.ErrorIs(t, err, sender.ErrUnknownService)
}

func TestBuildPayload(t *testing.T) {
	t.Parallel()

	msg := notification.Message{
		MessageID:   "m1",
		Destination: "a@b.com",
		Provider:    "twilio",
		Content: notification.Content{
			Subject:   "Welcome",
			Body:      "<h1>hi</h1>",
			Message:   "short text",
			FromEmail: "noreply@x.com",
		},
	}

	t.Run("email projection", func(t *testing.T) {
		t.Parallel()

		p, err := sender.BuildPayload(sender.ServiceEmail, msg)
		require.NoError(t, err)
		email, ok := p.(sender.EmailPayload)
		require.True(t, ok)
		assert.Equal(t, "a@b.com", email.To)
		assert.Equal(t, "Welcome", email.Subject)
		assert.Equal(t, "<h1>hi</h1>", email.HTML)
		assert.Equal(t, "noreply@x.com", email.From)
		assert.Equal(t, sender.ServiceEmail, p.Service())
	})

	t.Run("sms projection", func(t *testing.T) {
		t.Parallel()

		p, err := sender.BuildPayload(sender.ServiceSMS, msg)
		require.NoError(t, err)
		sms, ok := p.(sender.SMSPayload)
		require.True(t, ok)
		assert.Equal(t, "a@b.com", sms.To)
		assert.Equal(t, "short text", sms.Message)
		assert.Equal(t, "twilio", sms.Provider)
	})

	t.Run("chat projection", func(t *testing.T) {
		t.Parallel()

		p, err := sender.BuildPayload(sender.ServiceChat, msg)
		require.NoError(t, err)
		chat, ok := p.(sender.ChatPayload)
		require.True(t, ok)
		assert.Equal(t, "a@b.com", chat.To)
		assert.Equal(t, "short text", chat.Message)
	})

	t.Run("unknown service fails hard", func(t *testing.T) {
		t.Parallel()

		_, err := sender.BuildPayload(sender.Service("fax"), msg)
		assert.ErrorIs(t, err, sender.ErrUnknownService)
	})
}

func TestNewPostmarkSender_ConfigValidation(t *testing.T) {
	t.Parallel()

	valid := sender.PostmarkConfig{
		ServerToken:  "st",
		AccountToken: "at",
		DefaultFrom:  "noreply@x.com",
	}

	s, err := sender.NewPostmarkSender(valid)
	require.NoError(t, err)
	require.NotNil(t, s)

	for name, mutate := range map[string]func(*sender.PostmarkConfig){
		"missing server token":  func(c *sender.PostmarkConfig) { c.ServerToken = "" },
		"missing account token": func(c *sender.PostmarkConfig) { c.AccountToken = "" },
		"missing default from":  func(c *sender.PostmarkConfig) { c.DefaultFrom = "" },
	} {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			mutate(&cfg)
			_, err := sender.NewPostmarkSender(cfg)
			assert.ErrorIs(t, err, sender.ErrInvalidConfig)
		})
	}
}
