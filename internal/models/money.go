package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Money is a currency amount in integer minor units (cents).
//
// Config files, the catalog document and API inputs carry decimal strings
// such as "18.99"; they are converted once at the boundary so that repeated
// additions never drift. JSON encodes the cent count as an integer.
type Money int64

// ParseMoney parses a decimal amount such as "2.99"
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// MustParseMoney is ParseMoney for literals known to be valid
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal rounds d half away from zero to whole cents
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats the amount with two decimals, e.g. "12.99"
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Cents returns the raw minor-unit count
func (m Money) Cents() int64 {
	return int64(m)
}

func (m Money) Mul(quantity int) Money {
	return m * Money(quantity)
}

// MulRate multiplies by a rate such as 0.08 and rounds to cents
func (m Money) MulRate(rate decimal.Decimal) Money {
	return FromDecimal(m.Decimal().Mul(rate))
}

func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(m), 10), nil
}

// UnmarshalJSON accepts an integer cent count or a quoted decimal amount
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid money amount %s: %w", s, err)
		}
		parsed, err := ParseMoney(unquoted)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	cents, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("money must be an integer number of cents: %w", err)
	}
	*m = Money(cents)
	return nil
}

// UnmarshalText parses a decimal amount; used for environment overrides
func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := ParseMoney(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// UnmarshalYAML parses a decimal scalar such as `price: 18.99`
func (m *Money) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: money must be a scalar", node.Line)
	}
	parsed, err := ParseMoney(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = parsed
	return nil
}
