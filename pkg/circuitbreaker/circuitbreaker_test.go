package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "redis", FailureThreshold: 2}, zerolog.Nop())
	boom := errors.New("boom")

	assert.Equal(t, boom, cb.Execute(func() error { return boom }))
	assert.Equal(t, "closed", cb.State())
	assert.Equal(t, boom, cb.Execute(func() error { return boom }))
	assert.Equal(t, "open", cb.State())

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestSuccessResetsFailureRun(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "redis", FailureThreshold: 2}, zerolog.Nop())
	boom := errors.New("boom")

	_ = cb.Execute(func() error { return boom })
	assert.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return boom })

	assert.Equal(t, "closed", cb.State())
}
