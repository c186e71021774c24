package action_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ponpase/snax/business/core/action"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/genesis"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/state"
	"github.com/ponpase/snax/foundation/blockchain/storage/memory"
	"github.com/ponpase/snax/foundation/nameservice"
	"github.com/ponpase/snax/foundation/validate"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type signer struct {
	account ledger.AccountName
	pk      *ecdsa.PrivateKey
	nonce   uint64
}

func (s *signer) sign(t *testing.T, name string, data string) auth.SignedAction {
	t.Helper()

	s.nonce++
	act := auth.Action{
		Account: s.account,
		Name:    name,
		Nonce:   s.nonce,
		Data:    []byte(data),
	}

	sa, err := act.Sign(s.pk)
	if err != nil {
		t.Fatalf("Should be able to sign the action: %s", err)
	}
	return sa
}

func newCore(t *testing.T) (*action.Core, *state.State, map[ledger.AccountName]*signer) {
	t.Helper()

	gen := genesis.Genesis{
		MaxSupply: "10000.0000 SNAX",
		System:    "snax",
		Escrow:    "snax.transf",
		Treasury:  "snax.team",
		Curve:     emission.Curve{A: 1, B: -100, SoftCapDivisor: 10},
		Balances: map[ledger.AccountName]string{
			"alice": "100.0000 SNAX",
		},
		Platforms: []emission.PlatformConfig{
			{Account: "p.steem", Weight: 1, Period: 1},
		},
		PlatformNames: map[ledger.AccountName]string{
			"p.steem": "steem",
		},
	}

	st, err := state.New(state.Config{Genesis: gen, Storage: memory.New(), Now: time.Now})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	ns, err := nameservice.New(t.TempDir())
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}

	signers := make(map[ledger.AccountName]*signer)
	for _, account := range []ledger.AccountName{"alice", "p.steem"} {
		pk, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("Should be able to generate a key: %s", err)
		}
		ns.Register(account, crypto.PubkeyToAddress(pk.PublicKey).String())
		signers[account] = &signer{account: account, pk: pk}
	}

	return action.NewCore(zap.NewNop().Sugar(), st, ns), st, signers
}

func Test_Execute(t *testing.T) {
	core, st, signers := newCore(t)
	alice, steem := signers["alice"], signers["p.steem"]
	ctx := context.Background()

	t.Log("Given the need to run signed actions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen alice signs a transfer.", testID)
		{
			result, err := core.Execute(ctx, alice.sign(t, "transfer", `{"to":"bob","quantity":"10.0000 SNAX","memo":"rent"}`))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to run the transfer : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to run the transfer.", success, testID)

			if result.Action != "transfer" || result.Number != st.Number() {
				t.Fatalf("\t%s\tTest %d:\tShould report the committed number : %+v", failed, testID, result)
			}
			t.Logf("\t%s\tTest %d:\tShould report the committed number.", success, testID)

			bals := st.Balances("bob")
			if len(bals) != 1 || bals[0].String() != "10.0000 SNAX" {
				t.Fatalf("\t%s\tTest %d:\tShould credit bob : %v", failed, testID, bals)
			}
			t.Logf("\t%s\tTest %d:\tShould credit bob.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the action is replayed.", testID)
		{
			sa := alice.sign(t, "transfer", `{"to":"bob","quantity":"1.0000 SNAX"}`)
			if _, err := core.Execute(ctx, sa); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould run the first submission : %s", failed, testID, err)
			}

			if _, err := core.Execute(ctx, sa); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the replay : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the replay.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen alice acts for the platform.", testID)
		{
			if _, err := core.Execute(ctx, alice.sign(t, "openround", `{"platform":"p.steem"}`)); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould be rejected : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be rejected.", success, testID)

			if _, err := core.Execute(ctx, steem.sign(t, "openround", `{"platform":"p.steem"}`)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the platform : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the platform.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the payload is wrong.", testID)
		{
			if _, err := core.Execute(ctx, steem.sign(t, "launch", `{}`)); !errors.Is(err, action.ErrUnknownAction) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an unknown action : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an unknown action.", success, testID)

			if _, err := core.Execute(ctx, steem.sign(t, "submitscores", `{"platform":"p.steem","scores":[{"id":1,"rate":3}]}`)); !errors.Is(err, action.ErrInvalidPayload) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an unknown field : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an unknown field.", success, testID)

			if _, err := core.Execute(ctx, steem.sign(t, "paybatch", `{"platform":"p.steem"}`)); !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest %d:\tShould report the missing fields : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the missing fields.", success, testID)

			if _, err := core.Execute(ctx, alice.sign(t, "transfer", `{"to":"bob","quantity":"lots"}`)); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a malformed quantity.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a malformed quantity.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen scores are submitted.", testID)
		{
			data := `{"platform":"p.steem","scores":[{"id":1,"handle":"alice","attention_rate":3.5}],"create_if_missing":true}`
			if _, err := core.Execute(ctx, steem.sign(t, "submitscores", data)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit : %s", failed, testID, err)
			}

			p, err := st.Platform("p.steem")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould find the platform : %s", failed, testID, err)
			}

			user, err := p.UserByHandle("alice")
			if err != nil || user.AttentionRate != 3.5 {
				t.Fatalf("\t%s\tTest %d:\tShould record the score : %v %+v", failed, testID, err, user)
			}
			t.Logf("\t%s\tTest %d:\tShould record the score.", success, testID)
		}
	}
}
