package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam-studio/qalam/pkg/validator"
)

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule validator.Rule
		ok   bool
	}{
		{"required present", validator.RequiredString("name", "research"), true},
		{"required blank", validator.RequiredString("name", " \t"), false},
		{"max len counts runes", validator.MaxLenString("name", "بحث", 3), true},
		{"max len exceeded", validator.MaxLenString("name", "abcd", 3), false},
		{"positive", validator.PositiveNum("tokens", int64(1)), true},
		{"zero is not positive", validator.PositiveNum("tokens", int64(0)), false},
		{"non-nil uuid", validator.NonNilUUID("user_id", uuid.New()), true},
		{"nil uuid", validator.NonNilUUID("user_id", uuid.Nil), false},
		{"zero cost", validator.NonNegativeDecimal("cost", decimal.Zero), true},
		{"negative cost", validator.NonNegativeDecimal("cost", decimal.RequireFromString("-0.01")), false},
		{"places within limit", validator.MaxDecimalPlaces("cost", decimal.RequireFromString("0.012500"), 4), true},
		{"too many places", validator.MaxDecimalPlaces("cost", decimal.RequireFromString("0.00001"), 4), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.ok, tt.rule.Check())
			assert.NotEmpty(t, tt.rule.Error.Key)
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validator.Apply(validator.PositiveNum("tokens", 5)))

	err := validator.Apply(
		validator.PositiveNum("tokens", 0),
		validator.RequiredString("function_name", ""),
		validator.MaxLenString("function_name", "", 10),
		validator.NonNegativeDecimal("cost", decimal.NewFromInt(-1)),
	)
	require.Error(t, err)
	assert.True(t, validator.IsValidationError(err))

	ve := validator.ExtractValidationErrors(err)
	assert.Equal(t, []string{"tokens", "function_name", "cost"}, ve.Fields())
	assert.True(t, ve.Has("cost"))
	assert.False(t, ve.Has("user_id"))
	assert.Equal(t, map[string][]string{
		"tokens":        {"must be positive"},
		"function_name": {"is required"},
		"cost":          {"must not be negative"},
	}, ve.Map())
	assert.Equal(t, "validation failed: tokens: must be positive; function_name: is required; cost: must not be negative", err.Error())
}

func TestExtractValidationErrors_Wrapped(t *testing.T) {
	t.Parallel()

	base := errors.New("usage.errors.invalid")
	err := fmt.Errorf("record: %w", errors.Join(base, validator.Apply(validator.RequiredString("name", ""))))

	assert.ErrorIs(t, err, base)
	assert.Equal(t, []string{"is required"}, validator.ExtractValidationErrors(err).Get("name"))
	assert.Nil(t, validator.ExtractValidationErrors(base))
	assert.False(t, validator.IsValidationError(nil))
}
