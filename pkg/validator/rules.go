package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequiredString fails on empty or whitespace-only values.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required", Key: "validation.required"},
	}
}

// MaxLenString counts runes, not bytes.
func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters", max),
			Key:     "validation.max_length",
		},
	}
}

func PositiveNum[T Numeric](field string, value T) Rule {
	return Rule{
		Check: func() bool { return value > 0 },
		Error: ValidationError{Field: field, Message: "must be positive", Key: "validation.positive"},
	}
}

func NonNilUUID(field string, value uuid.UUID) Rule {
	return Rule{
		Check: func() bool { return value != uuid.Nil },
		Error: ValidationError{Field: field, Message: "must be a non-nil uuid", Key: "validation.uuid_not_nil"},
	}
}

func NonNegativeDecimal(field string, value decimal.Decimal) Rule {
	return Rule{
		Check: func() bool { return !value.IsNegative() },
		Error: ValidationError{Field: field, Message: "must not be negative", Key: "validation.non_negative"},
	}
}

// MaxDecimalPlaces fails when value has more than places fractional digits.
// Trailing zeros do not count.
func MaxDecimalPlaces(field string, value decimal.Decimal, places int32) Rule {
	return Rule{
		Check: func() bool { return value.Equal(value.Truncate(places)) },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must have at most %d decimal places", places),
			Key:     "validation.decimal_places",
		},
	}
}
