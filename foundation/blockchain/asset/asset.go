// Package asset provides support for symbol tagged currency amounts.
package asset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPrecision is the largest number of decimal places a symbol may carry.
const MaxPrecision = 18

// Set of error variables for handling asset errors.
var (
	ErrSymbolMismatch = errors.New("symbol mismatch")
	ErrInvalidSymbol  = errors.New("invalid symbol")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// =============================================================================

// Symbol represents a currency code and the number of decimal places used
// when the raw amount is displayed.
type Symbol struct {
	Code      string `json:"code"`
	Precision uint8  `json:"precision"`
}

// NewSymbol constructs a symbol and validates the code is made of 1 to 7
// upper case letters.
func NewSymbol(code string, precision uint8) (Symbol, error) {
	if len(code) == 0 || len(code) > 7 {
		return Symbol{}, fmt.Errorf("%w: code %q must be 1-7 characters", ErrInvalidSymbol, code)
	}

	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return Symbol{}, fmt.Errorf("%w: code %q must be upper case letters", ErrInvalidSymbol, code)
		}
	}

	if precision > MaxPrecision {
		return Symbol{}, fmt.Errorf("%w: precision %d exceeds %d", ErrInvalidSymbol, precision, MaxPrecision)
	}

	return Symbol{Code: code, Precision: precision}, nil
}

// Unit returns the raw amount that represents one whole token.
func (s Symbol) Unit() int64 {
	unit := int64(1)
	for i := uint8(0); i < s.Precision; i++ {
		unit *= 10
	}
	return unit
}

// String returns the symbol in the "4,SNAX" form.
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// IsZero reports whether the symbol has been set.
func (s Symbol) IsZero() bool {
	return s.Code == ""
}

// =============================================================================

// Asset represents a raw amount of a given symbol. The amount is kept in the
// smallest unit so 1.0000 SNAX is stored as 10000.
type Asset struct {
	Amount int64  `json:"amount"`
	Symbol Symbol `json:"symbol"`
}

// New constructs an asset for the specified raw amount.
func New(amount int64, symbol Symbol) Asset {
	return Asset{Amount: amount, Symbol: symbol}
}

// Zero returns an empty asset of the specified symbol.
func Zero(symbol Symbol) Asset {
	return Asset{Symbol: symbol}
}

// Parse converts a string like "20.0000 SNAX" into an asset. The number of
// decimals defines the precision of the symbol.
func Parse(s string) (Asset, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	number := parts[0]
	var precision uint8
	if i := strings.IndexByte(number, '.'); i >= 0 {
		precision = uint8(len(number) - i - 1)
		number = number[:i] + number[i+1:]
	}

	symbol, err := NewSymbol(parts[1], precision)
	if err != nil {
		return Asset{}, err
	}

	amount, err := strconv.ParseInt(number, 10, 64)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %q: %s", ErrInvalidAmount, s, err)
	}

	return Asset{Amount: amount, Symbol: symbol}, nil
}

// String returns the asset in the "20.0000 SNAX" form.
func (a Asset) String() string {
	sign := ""
	amount := a.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	if a.Symbol.Precision == 0 {
		return fmt.Sprintf("%s%d %s", sign, amount, a.Symbol.Code)
	}

	unit := a.Symbol.Unit()
	return fmt.Sprintf("%s%d.%0*d %s", sign, amount/unit, int(a.Symbol.Precision), amount%unit, a.Symbol.Code)
}

// IsPositive reports whether the amount is larger than zero.
func (a Asset) IsPositive() bool {
	return a.Amount > 0
}

// Add returns the sum of both assets. The symbols must match.
func (a Asset) Add(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, fmt.Errorf("%w: %s and %s", ErrSymbolMismatch, a.Symbol, b.Symbol)
	}
	return Asset{Amount: a.Amount + b.Amount, Symbol: a.Symbol}, nil
}

// Sub returns the difference of both assets. The symbols must match.
func (a Asset) Sub(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, fmt.Errorf("%w: %s and %s", ErrSymbolMismatch, a.Symbol, b.Symbol)
	}
	return Asset{Amount: a.Amount - b.Amount, Symbol: a.Symbol}, nil
}
