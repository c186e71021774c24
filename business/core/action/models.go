package action

import (
	"time"

	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/platform"
)

// Result is returned for every executed action.
type Result struct {
	Action string `json:"action"`
	Number uint64 `json:"number"`
	Data   any    `json:"data,omitempty"`
}

// Transfer moves funds from the signing account.
type Transfer struct {
	To       ledger.AccountName `json:"to" validate:"required"`
	Quantity string             `json:"quantity" validate:"required"`
	Memo     string             `json:"memo" validate:"max=256"`
}

// SetPlatforms replaces the platforms of the emission authority.
type SetPlatforms struct {
	Platforms []emission.PlatformConfig `json:"platforms" validate:"dive"`
}

// Target names the platform an action runs against.
type Target struct {
	Platform ledger.AccountName `json:"platform" validate:"required"`
}

// Initialize creates the platform singleton.
type Initialize struct {
	Target
	platform.Init
}

// SubmitScores records attention scores.
type SubmitScores struct {
	Target
	Scores          []platform.Score `json:"scores" validate:"required,dive"`
	CreateIfMissing bool             `json:"create_if_missing"`
}

// PayBatch pays the next batch of accounts.
type PayBatch struct {
	Target
	Cursor   uint64 `json:"cursor"`
	MaxCount uint32 `json:"max_count" validate:"required"`
}

// UserTarget names a user of the platform.
type UserTarget struct {
	Target
	ID uint64 `json:"id" validate:"required"`
}

// AddAccounts registers users signed for by a creator.
type AddAccounts struct {
	Target
	Accounts []platform.NewAccount `json:"accounts" validate:"required,dive"`
}

// BindAccount binds a user to a ledger account.
type BindAccount struct {
	Target
	ID               uint64             `json:"id" validate:"required"`
	Account          ledger.AccountName `json:"account" validate:"required"`
	VerificationPost uint64             `json:"verification_post" validate:"required"`
	VerificationSalt string             `json:"verification_salt" validate:"required"`
}

// Creator names a creator of the platform.
type Creator struct {
	Target
	Creator ledger.AccountName `json:"creator" validate:"required"`
}

// AddSymbol adds a currency to the platform.
type AddSymbol struct {
	Target
	Code      string `json:"code" validate:"required"`
	Precision uint8  `json:"precision" validate:"lte=18"`
}

// TransferSocial pays a platform user by id or handle.
type TransferSocial struct {
	Target
	To       uint64 `json:"to"`
	Handle   string `json:"handle"`
	Quantity string `json:"quantity" validate:"required"`
	Memo     string `json:"memo" validate:"max=256"`
}

// AddArticle enrolls an article in the bounty program.
type AddArticle struct {
	Target
	Author    uint64    `json:"author" validate:"required"`
	Permalink string    `json:"permalink" validate:"required"`
	Title     string    `json:"title"`
	Created   time.Time `json:"created"`
}

// Article names an article of the bounty program.
type Article struct {
	Target
	Permalink string `json:"permalink" validate:"required"`
}

// PayBounty pays the author of an article.
type PayBounty struct {
	Target
	Permalink string `json:"permalink" validate:"required"`
	Quantity  string `json:"quantity" validate:"required"`
}
