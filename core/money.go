package core

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Quantity of currency (CNY throughout this system)
// =============================================================================

// Money is a currency amount backed by decimal.Decimal to avoid
// floating-point drift in quota arithmetic.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(v float64) Money {
	return Money{Value: decimal.NewFromFloat(v)}
}

func MoneyFromInt(v int64) Money {
	return Money{Value: decimal.NewFromInt(v)}
}

// MoneyFromString parses a decimal string. Invalid input yields zero.
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

func (m Money) Add(o Money) Money          { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money          { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money                 { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool               { return m.Value.IsZero() }
func (m Money) IsPositive() bool           { return m.Value.IsPositive() }
func (m Money) IsNegative() bool           { return m.Value.IsNegative() }
func (m Money) GreaterThan(o Money) bool   { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool      { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool         { return m.Value.Equal(o.Value) }
func (m Money) Float64() float64           { f, _ := m.Value.Float64(); return f }
func (m Money) String() string             { return m.Value.String() }

// ClampZero returns the amount floored at zero. Used for aggregate
// "available quota" displays; validation math must use the raw value.
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return Money{}
	}
	return m
}

// MarshalJSON encodes Money as a bare JSON number so documents match the
// shape produced by earlier versions of the system.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Value.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		m.Value = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	m.Value = d
	return nil
}
