package emission

import (
	"fmt"
	"math"
)

// Curve represents the bonding curve parameters used to size the supply
// released each round. The curve is evaluated in whole token units.
type Curve struct {
	A              float64 `json:"a"`
	B              float64 `json:"b"`
	SoftCapDivisor int64   `json:"soft_cap_divisor"` // Soft cap is the max supply divided by this value.
	MinSupplyGap   int64   `json:"min_supply_gap"`   // Floor for the distance to the soft cap in raw units.
}

// Validate checks the curve can be evaluated.
func (c Curve) Validate() error {
	if c.A == 0 {
		return fmt.Errorf("%w: curve coefficient a can't be zero", ErrInvalidConfig)
	}

	if c.SoftCapDivisor <= 0 {
		return fmt.Errorf("%w: soft cap divisor must be positive", ErrInvalidConfig)
	}

	if c.MinSupplyGap < 0 {
		return fmt.Errorf("%w: min supply gap can't be negative", ErrInvalidConfig)
	}

	return nil
}

// Supply captures the public ledger figures the curve is evaluated
// against. All amounts are raw amounts.
type Supply struct {
	Max       int64 // Maximum supply of the token.
	Issued    int64 // Currently issued supply.
	System    int64 // Balance held by the emission authority.
	Platforms int64 // Sum of the balances held by all configured platforms.
	Unit      int64 // Raw amount that represents one whole token.
}

// Circulating returns the supply held outside the system and platform
// accounts, floored at zero.
func (s Supply) Circulating() int64 {
	circulating := s.Issued - s.System - s.Platforms
	if circulating < 0 {
		return 0
	}
	return circulating
}

// RoundSupply computes the network wide supply to release for a round
// index offset of roundOffset. The value is deterministic for the same
// public ledger figures.
func (c Curve) RoundSupply(s Supply, roundOffset int64) (int64, error) {
	unit := s.Unit
	if unit <= 0 {
		unit = 1
	}

	softCap := s.Max / c.SoftCapDivisor
	circulating := s.Circulating()

	supplyGap := softCap - circulating
	if supplyGap < c.MinSupplyGap {
		supplyGap = c.MinSupplyGap
	}

	// Locate where on the curve the circulating supply sits today.
	_, offset, err := solveQuadratic(c.A, c.B, float64(circulating/unit))
	if err != nil {
		return 0, err
	}

	value := parabola(c.A, c.B, float64(softCap/unit), offset+float64(roundOffset))

	roundSupply := (supplyGap/unit - int64(value)) * unit
	if roundSupply < 0 {
		return 0, nil
	}

	return roundSupply, nil
}

// =============================================================================

// solveQuadratic returns both roots of a·x² + b·x + c = 0.
func solveQuadratic(a, b, c float64) (float64, float64, error) {
	d := b*b - 4*a*c
	if d < 0 {
		return 0, 0, fmt.Errorf("%w: discriminant %g", ErrCurveUnsolvable, d)
	}

	sd := math.Sqrt(d)
	return (-b + sd) / 2 / a, (-b - sd) / 2 / a, nil
}

// parabola evaluates a·x² + b·x + c.
func parabola(a, b, c, x float64) float64 {
	return a*x*x + b*x + c
}
