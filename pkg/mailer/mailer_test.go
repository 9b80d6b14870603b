package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPasswordResetHTMLEscapesUsername(t *testing.T) {
	body, err := passwordResetHTML(`<script>alert("x")</script>`, "http://frontend.test/reset-password?token=abc&x=1")
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, `href="http://frontend.test/reset-password?token=abc&amp;x=1"`)
}

func TestPasswordResetHTMLRejectsScriptURL(t *testing.T) {
	body, err := passwordResetHTML("alice", "javascript:alert(1)")
	require.NoError(t, err)
	assert.NotContains(t, body, "javascript:")
}

func TestPasswordResetText(t *testing.T) {
	body := passwordResetText("alice", "http://frontend.test/reset-password?token=abc")
	assert.Contains(t, body, "Hello alice,")
	assert.Contains(t, body, "http://frontend.test/reset-password?token=abc")
}

func TestLogMailer(t *testing.T) {
	m := NewLogMailer(zap.NewNop())
	assert.NoError(t, m.SendPasswordReset(context.Background(), "alice@example.com", "alice", "http://frontend.test"))
}
