package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduleQuery struct {
	Room    string `json:"consultorio" validate:"required"`
	Day     string `json:"dia" validate:"weekday"`
	Week    string `json:"semana" validate:"weekref"`
	Period  string `json:"periodo" validate:"omitempty,period"`
	Kind    string `json:"kind" validate:"omitempty,roomkind"`
	Status  string `json:"status" validate:"omitempty,apptstatus"`
	Minutes int    `json:"duration_minutes" validate:"lte=720"`
}

func newValidate(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, Register(v))
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate(t)

	ok := scheduleQuery{Room: "C6", Day: "segunda", Week: "2024-W05", Period: "Manhã", Kind: "fixo", Status: "agendado", Minutes: 30}
	assert.NoError(t, v.Struct(ok))

	bad := scheduleQuery{Day: "domingo", Week: "2024-05", Period: "noite", Kind: "shared", Status: "lost", Minutes: 900}
	err := v.Struct(bad)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	msg := Describe(err)
	assert.Contains(t, msg, "consultorio is required")
	assert.Contains(t, msg, "dia must be a weekday")
	assert.Contains(t, msg, "semana must be a week reference")
	assert.Contains(t, msg, "periodo must be a known period")
	assert.Contains(t, msg, "kind must be fixed or rotating")
	assert.Contains(t, msg, "status must be a known appointment status")
	assert.Contains(t, msg, "duration_minutes must satisfy lte=720")
}

func TestDescribePlainError(t *testing.T) {
	err := errors.New("unexpected EOF")
	assert.Equal(t, "unexpected EOF", Describe(err))
	assert.False(t, IsValidationError(err))
}
