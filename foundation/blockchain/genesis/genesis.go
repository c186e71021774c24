// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time                     `json:"date"`
	MaxSupply     string                        `json:"max_supply"`     // Maximum supply of the token, ex. "10000000000.0000 SNAX".
	System        ledger.AccountName            `json:"system"`         // Account of the emission authority and issuer of the token.
	Escrow        ledger.AccountName            `json:"escrow"`         // Account holding social transfers for unbound users.
	Curve         emission.Curve                `json:"curve"`          // Bonding curve used to size the round supply.
	LockDuration  Duration                      `json:"lock_duration"`  // Time a platform waits between lock and emission request.
	PeriodUnit    Duration                      `json:"period_unit"`    // Length of one unit of a platform period.
	MinAttention  float64                       `json:"min_attention"`  // Scores at or below this value are not paid.
	Balances      map[ledger.AccountName]string `json:"balances"`       // Balances issued when the ledger is created.
	Platforms     []emission.PlatformConfig     `json:"platforms"`      // Platforms receiving a share of the emission.
	PlatformNames map[ledger.AccountName]string `json:"platform_names"` // Display names used to initialize platforms.
	Treasury      ledger.AccountName            `json:"treasury"`       // Account receiving the rest of every round supply.
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values can be used to build the ledger.
func (g Genesis) Validate() error {
	if _, err := g.Supply(); err != nil {
		return err
	}

	if g.System == "" || g.Escrow == "" || g.Treasury == "" {
		return fmt.Errorf("genesis: system, escrow and treasury accounts are required")
	}

	if err := g.Curve.Validate(); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	return nil
}

// Supply returns the maximum supply as an asset.
func (g Genesis) Supply() (asset.Asset, error) {
	maxSupply, err := asset.Parse(g.MaxSupply)
	if err != nil {
		return asset.Asset{}, fmt.Errorf("genesis: max supply: %w", err)
	}
	return maxSupply, nil
}

// =============================================================================

// Duration is a time.Duration that reads and writes as a string like "24h".
type Duration time.Duration

// MarshalText implements the encoding.TextMarshaler interface.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (d *Duration) UnmarshalText(data []byte) error {
	v, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
