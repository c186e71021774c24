package platform

import (
	"fmt"
	"time"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
)

// Phase represents where the platform is inside a round.
type Phase uint8

// Set of phases a round moves through, in order.
const (
	PhaseIdle Phase = iota
	PhaseCollectingScores
	PhaseLocked
	PhaseDistributing
)

var phaseNames = map[Phase]string{
	PhaseIdle:             "idle",
	PhaseCollectingScores: "collecting_scores",
	PhaseLocked:           "locked",
	PhaseDistributing:     "distributing",
}

// String implements the fmt.Stringer interface.
func (p Phase) String() string {
	if name, exists := phaseNames[p]; exists {
		return name
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// MarshalText implements the encoding.TextMarshaler interface.
func (p Phase) MarshalText() ([]byte, error) {
	if _, exists := phaseNames[p]; !exists {
		return nil, fmt.Errorf("unknown phase %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (p *Phase) UnmarshalText(data []byte) error {
	for phase, name := range phaseNames {
		if name == string(data) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", data)
}

// =============================================================================

// State is the singleton describing the platform and the round in flight.
type State struct {
	Name                string             `json:"name"`
	Account             ledger.AccountName `json:"account"`
	EmissionAuthority   ledger.AccountName `json:"emission_authority"`
	Treasury            ledger.AccountName `json:"treasury"`
	RoundSupply         asset.Asset        `json:"round_supply"`
	StepNumber          uint64             `json:"step_number"`
	Phase               Phase              `json:"phase"`
	TotalAttention      float64            `json:"total_attention"`
	RegisteredAttention float64            `json:"registered_attention"`
	RoundPaidCount      uint32             `json:"round_paid_count"`
	RoundUpdatedCount   uint32             `json:"round_updated_count"`
	TotalUserCount      uint32             `json:"total_user_count"`
	RegisteredUserCount uint32             `json:"registered_user_count"`
	SentAmount          asset.Asset        `json:"sent_amount"`
	TokenSymbols        []asset.Symbol     `json:"token_symbols"`
}

// User represents an identity on the platform and its attention score.
type User struct {
	ID             uint64  `json:"id"`
	Handle         string  `json:"handle"`
	AttentionRate  float64 `json:"attention_rate"`
	RatingPosition uint32  `json:"rating_position"`
	RateVersion    uint64  `json:"rate_version"`
	PostsRanked    uint8   `json:"posts_ranked"`
}

// Account represents the spendable identity bound to a user. An account
// with an empty name is a placeholder for a user that isn't bound yet.
type Account struct {
	ID               uint64             `json:"id"`
	Name             ledger.AccountName `json:"name"`
	Active           bool               `json:"active"`
	LastPaidStep     uint64             `json:"last_paid_step"`
	VerificationPost uint64             `json:"verification_post"`
	VerificationSalt string             `json:"verification_salt"`
	StatDiff         []uint32           `json:"stat_diff"`
	Created          time.Time          `json:"created"`
}

// IsBound reports whether the account is bound to a ledger account.
func (a Account) IsBound() bool {
	return a.Name != ""
}

// HistoryRecord is the snapshot stored for every finalized round.
type HistoryRecord struct {
	StepNumber          uint64      `json:"step_number"`
	RegisteredUserCount uint32      `json:"registered_user_count"`
	TotalUserCount      uint32      `json:"total_user_count"`
	TotalAttention      float64     `json:"total_attention"`
	RegisteredAttention float64     `json:"registered_attention"`
	RoundSupply         asset.Asset `json:"round_supply"`
	SentAmount          asset.Asset `json:"sent_amount"`
	Swept               asset.Asset `json:"swept"`
	RoundPaidCount      uint32      `json:"round_paid_count"`
	RoundUpdatedCount   uint32      `json:"round_updated_count"`
	Finalized           time.Time   `json:"finalized"`
}

// Article represents a post enrolled in the bounty program.
type Article struct {
	Seq       uint64      `json:"seq"`
	Author    uint64      `json:"author"`
	Permalink string      `json:"permalink"`
	Title     string      `json:"title"`
	Created   time.Time   `json:"created"`
	Paid      asset.Asset `json:"paid"`
}

// Bounty holds the totals of the bounty program.
type Bounty struct {
	TotalPaid  asset.Asset `json:"total_paid"`
	LastUpdate time.Time   `json:"last_update"`
}

// =============================================================================

// Init represents the parameters used to initialize a platform.
type Init struct {
	Name              string             `json:"name" validate:"required"`
	EmissionAuthority ledger.AccountName `json:"emission_authority" validate:"required"`
	Symbol            string             `json:"symbol" validate:"required"`
	Precision         uint8              `json:"precision" validate:"lte=18"`
	Treasury          ledger.AccountName `json:"treasury" validate:"required"`
}

// Score represents an attention score measured for a user.
type Score struct {
	ID             uint64   `json:"id" validate:"required"`
	Handle         string   `json:"handle"`
	AttentionRate  float64  `json:"attention_rate" validate:"gte=0"`
	RatingPosition uint32   `json:"rating_position"`
	StatDiff       []uint32 `json:"stat_diff"`
	PostsRanked    uint8    `json:"posts_ranked"`
}

// NewAccount represents a user registration, optionally bound to a
// ledger account.
type NewAccount struct {
	ID               uint64             `json:"id" validate:"required"`
	Handle           string             `json:"handle" validate:"required"`
	Account          ledger.AccountName `json:"account"`
	VerificationPost uint64             `json:"verification_post"`
	VerificationSalt string             `json:"verification_salt"`
	StatDiff         []uint32           `json:"stat_diff"`
}

// BatchResult describes the work done by a single PayBatch call.
type BatchResult struct {
	Processed  uint32      `json:"processed"`
	Paid       uint32      `json:"paid"`
	Sent       asset.Asset `json:"sent"`
	NextCursor uint64      `json:"next_cursor"`
	More       bool        `json:"more"`
	Finalized  bool        `json:"finalized"`
	Swept      asset.Asset `json:"swept"`
}
