package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithoutHostIsNoop(t *testing.T) {
	m := New(Config{})
	assert.IsType(t, noopMailer{}, m)
	assert.NoError(t, m.Send(context.Background(), "dr@example.com", "subject", "body"))
}

func TestSendHonoursCanceledContext(t *testing.T) {
	m := New(Config{Host: "127.0.0.1", Port: 1, From: "noreply@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "dr@example.com", "subject", "body"), context.Canceled)
}
