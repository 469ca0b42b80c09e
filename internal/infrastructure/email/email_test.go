package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewPasswordResetMessage(t *testing.T) {
	msg, err := NewPasswordResetMessage("ana@example.com", "Ana", PasswordResetData{
		Name:     "Ana <admin>",
		Token:    "tok123",
		ResetURL: "https://pontos.example.com/reset?token=tok123",
		TTLHours: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", msg.ToAddress)
	assert.Equal(t, passwordResetSubject, msg.Subject)
	assert.Contains(t, msg.Text, "tok123")
	assert.Contains(t, msg.Text, "Ana <admin>")
	assert.Contains(t, msg.HTML, "Ana &lt;admin&gt;", "html body escapes names")
	assert.Contains(t, msg.HTML, `href="https://pontos.example.com/reset?token=tok123"`)
}

func TestNewPasswordResetMessage_WithoutURL(t *testing.T) {
	msg, err := NewPasswordResetMessage("ana@example.com", "Ana", PasswordResetData{Name: "Ana", Token: "t", TTLHours: 1})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "href")
	assert.NotContains(t, msg.Text, "acesse")
}

func TestSendGridSender_Send(t *testing.T) {
	var (
		gotAuth string
		gotPath string
		payload map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewSendGridSender("SG.key", server.URL, "Pontos", "", "no-reply@pontos.app", zap.NewNop())
	err := sender.Send(context.Background(), Message{
		ToAddress: "ana@example.com",
		ToName:    "Ana",
		Subject:   "Olá",
		Text:      "texto",
		HTML:      "<p>html</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.key", gotAuth)
	assert.Equal(t, "/v3/mail/send", gotPath)

	from := payload["from"].(map[string]any)
	assert.Equal(t, "Pontos", from["name"])
	assert.Equal(t, "no-reply@pontos.app", from["email"])

	personalization := payload["personalizations"].([]any)[0].(map[string]any)
	assert.Equal(t, "[Pontos] Olá", personalization["subject"])
	to := personalization["to"].([]any)[0].(map[string]any)
	assert.Equal(t, "ana@example.com", to["email"])

	content := payload["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text/plain", content[0].(map[string]any)["type"])
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer server.Close()

	core, logs := observer.New(zap.ErrorLevel)
	sender := NewSendGridSender("bad", server.URL, "Pontos", "Pontos", "no-reply@pontos.app", zap.New(core))

	err := sender.Send(context.Background(), Message{ToAddress: "a@b.co", Subject: "x", Text: "y", HTML: "z"})
	assert.ErrorContains(t, err, "401")
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap()["body"], "bad key")
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := NewLogSender(zap.New(core))

	require.NoError(t, sender.Send(context.Background(), Message{ToAddress: "a@b.co", Subject: "Reset", Text: "token"}))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "a@b.co", fields["to"])
	assert.Equal(t, "Reset", fields["subject"])
}
