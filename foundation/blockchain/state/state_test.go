package state_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/genesis"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/platform"
	"github.com/ponpase/snax/foundation/blockchain/state"
	"github.com/ponpase/snax/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const steem ledger.AccountName = "p.steem"

var operator = auth.NewSigners(steem)

func newGenesis() genesis.Genesis {
	return genesis.Genesis{
		MaxSupply: "10000.0000 SNAX",
		System:    "snax",
		Escrow:    "snax.transf",
		Treasury:  "snax.team",
		Curve: emission.Curve{
			A:              1,
			B:              -100,
			SoftCapDivisor: 10,
		},
		LockDuration: genesis.Duration(time.Hour),
		PeriodUnit:   genesis.Duration(24 * time.Hour),
		Balances: map[ledger.AccountName]string{
			"alice": "100.0000 SNAX",
		},
		Platforms: []emission.PlatformConfig{
			{Account: steem, Weight: 1, Period: 1},
		},
		PlatformNames: map[ledger.AccountName]string{
			steem: "steem",
		},
	}
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func newState(t *testing.T, mem *memory.Memory, clk *clock) *state.State {
	t.Helper()

	cfg := state.Config{
		Genesis:   newGenesis(),
		Storage:   mem,
		EvHandler: t.Logf,
		Now:       clk.Now,
	}

	st, err := state.New(cfg)
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	return st
}

func snax(t *testing.T) asset.Symbol {
	t.Helper()

	symbol, err := asset.NewSymbol("SNAX", 4)
	if err != nil {
		t.Fatalf("Should be able to create the symbol: %s", err)
	}
	return symbol
}

func balance(st *state.State, account ledger.AccountName) int64 {
	for _, bal := range st.Balances(account) {
		if bal.Symbol.Code == "SNAX" {
			return bal.Amount
		}
	}
	return 0
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	mem := memory.New()
	st := newState(t, mem, &clock{now: time.Now()})

	t.Log("Given the need to build the state from the genesis values.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen no snapshot exists.", testID)
		{
			if st.Number() != 1 || mem.Writes() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould persist the genesis snapshot : number[%d] writes[%d]", failed, testID, st.Number(), mem.Writes())
			}
			t.Logf("\t%s\tTest %d:\tShould persist the genesis snapshot.", success, testID)

			if balance(st, "alice") != 1_000_000 {
				t.Fatalf("\t%s\tTest %d:\tShould issue the genesis balances : %d", failed, testID, balance(st, "alice"))
			}
			t.Logf("\t%s\tTest %d:\tShould issue the genesis balances.", success, testID)

			p, err := st.Platform(steem)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould create the platform : %s", failed, testID, err)
			}

			s, err := p.State()
			if err != nil || s.Name != "steem" || s.Treasury != "snax.team" {
				t.Fatalf("\t%s\tTest %d:\tShould initialize the named platform : %v %+v", failed, testID, err, s)
			}
			t.Logf("\t%s\tTest %d:\tShould initialize the named platform.", success, testID)

			if _, err := st.Platform("p.twitter"); !errors.Is(err, state.ErrUnknownPlatform) {
				t.Fatalf("\t%s\tTest %d:\tShould not know other platforms : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not know other platforms.", success, testID)
		}
	}
}

func Test_Atomicity(t *testing.T) {
	mem := memory.New()
	st := newState(t, mem, &clock{now: time.Now()})

	t.Log("Given the need to keep a failed operation from changing anything.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the second account of a batch is rejected.", testID)
		{
			accounts := []platform.NewAccount{
				{ID: 1, Handle: "alice", Account: "alice", VerificationPost: 1, VerificationSalt: "s"},
				{ID: 2, Handle: "bob", Account: "alice", VerificationPost: 2, VerificationSalt: "s"},
			}

			err := st.AddAccounts(operator, steem, steem, accounts)
			if !errors.Is(err, platform.ErrAccountBound) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the batch : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the batch.", success, testID)

			p, _ := st.Platform(steem)
			if _, err := p.User(1); !errors.Is(err, platform.ErrUserNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould not keep the first account : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not keep the first account.", success, testID)

			if st.Number() != 1 || mem.Writes() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not write a snapshot : number[%d] writes[%d]", failed, testID, st.Number(), mem.Writes())
			}
			t.Logf("\t%s\tTest %d:\tShould not write a snapshot.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen an operation fails after moving funds.", testID)
		{
			err := st.Execute("test", func(tx *state.Tx) error {
				if err := tx.Ledger.Transfer("alice", "bob", asset.New(500_000, snax(t)), ""); err != nil {
					return err
				}
				return tx.Ledger.Transfer("alice", "bob", asset.New(600_000, snax(t)), "")
			})
			if !errors.Is(err, ledger.ErrInsufficientFunds) {
				t.Fatalf("\t%s\tTest %d:\tShould fail the operation : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail the operation.", success, testID)

			if balance(st, "alice") != 1_000_000 || balance(st, "bob") != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould roll back the first transfer : alice[%d] bob[%d]", failed, testID, balance(st, "alice"), balance(st, "bob"))
			}
			t.Logf("\t%s\tTest %d:\tShould roll back the first transfer.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the operation succeeds.", testID)
		{
			if err := st.Transfer(auth.NewSigners("alice"), "alice", "bob", asset.New(500_000, snax(t)), "rent"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to transfer : %s", failed, testID, err)
			}

			if st.Number() != 2 || mem.Writes() != 2 || balance(st, "bob") != 500_000 {
				t.Fatalf("\t%s\tTest %d:\tShould commit and persist : number[%d] writes[%d]", failed, testID, st.Number(), mem.Writes())
			}
			t.Logf("\t%s\tTest %d:\tShould commit and persist.", success, testID)

			snapshot, err := mem.Read()
			if err != nil || snapshot.Number != 2 || snapshot.Action != "transfer" {
				t.Fatalf("\t%s\tTest %d:\tShould store the snapshot of the operation : %v %d %s", failed, testID, err, snapshot.Number, snapshot.Action)
			}
			t.Logf("\t%s\tTest %d:\tShould store the snapshot of the operation.", success, testID)
		}
	}
}

func Test_RoundAndRestore(t *testing.T) {
	mem := memory.New()
	clk := clock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	st := newState(t, mem, &clk)

	t.Log("Given the need to run a round and restore it from storage.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen running a full round.", testID)
		{
			accounts := []platform.NewAccount{{ID: 7, Handle: "carol", Account: "carol", VerificationPost: 1, VerificationSalt: "s"}}
			if err := st.AddAccounts(operator, steem, steem, accounts); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add carol : %s", failed, testID, err)
			}

			if err := st.OpenRound(operator, steem); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the round : %s", failed, testID, err)
			}
			if err := st.SubmitScores(operator, steem, []platform.Score{{ID: 7, AttentionRate: 42}}, false); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit scores : %s", failed, testID, err)
			}
			if err := st.RequestLock(operator, steem); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to lock : %s", failed, testID, err)
			}

			if err := st.StartDistribution(operator, steem); !errors.Is(err, emission.ErrCooldownActive) {
				t.Fatalf("\t%s\tTest %d:\tShould wait for the lock window : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould wait for the lock window.", success, testID)

			clk.now = clk.now.Add(2 * time.Hour)
			if err := st.StartDistribution(operator, steem); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to start the distribution : %s", failed, testID, err)
			}

			result, err := st.PayBatch(operator, steem, 0, 10)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to pay : %s", failed, testID, err)
			}

			reqs := st.Requests(steem)
			if len(reqs) != 1 || !result.Finalized || result.Sent != reqs[0].Amount || balance(st, "carol") != reqs[0].Amount.Amount {
				t.Fatalf("\t%s\tTest %d:\tShould pay carol the whole emission : %+v %+v", failed, testID, result, reqs)
			}
			t.Logf("\t%s\tTest %d:\tShould pay carol the whole emission.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen restoring from the stored snapshot.", testID)
		{
			number := st.Number()

			restored := newState(t, mem, &clk)

			if restored.Number() != number {
				t.Fatalf("\t%s\tTest %d:\tShould restore the number : got[%d] exp[%d]", failed, testID, restored.Number(), number)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the number.", success, testID)

			if balance(restored, "carol") != balance(st, "carol") {
				t.Fatalf("\t%s\tTest %d:\tShould restore the balances.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the balances.", success, testID)

			p, err := restored.Platform(steem)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould restore the platform : %s", failed, testID, err)
			}

			s, _ := p.State()
			if s.StepNumber != 2 || s.Phase != platform.PhaseIdle || len(p.History()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould restore the round history : %+v", failed, testID, s)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the round history.", success, testID)

			if len(restored.Requests(steem)) != 1 || len(restored.Locks(steem)) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould restore the emission log.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the emission log.", success, testID)

			if err := restored.OpenRound(operator, steem); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould keep working after the restore : %s", failed, testID, err)
			}
			if err := restored.RequestLock(operator, steem); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to lock after the restore : %s", failed, testID, err)
			}

			clk.now = clk.now.Add(2 * time.Hour)
			if err := restored.StartDistribution(operator, steem); !errors.Is(err, emission.ErrCooldownActive) {
				t.Fatalf("\t%s\tTest %d:\tShould keep the period cooldown after the restore : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the period cooldown after the restore.", success, testID)
		}
	}
}

func Test_SetPlatforms(t *testing.T) {
	st := newState(t, memory.New(), &clock{now: time.Now()})

	t.Log("Given the need to add platforms after genesis.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a new platform is configured.", testID)
		{
			configs := []emission.PlatformConfig{
				{Account: steem, Weight: 0.5, Period: 1},
				{Account: "p.twitter", Weight: 0.5, Period: 2},
			}

			if err := st.SetPlatforms(auth.NewSigners("snax"), configs); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to set the platforms : %s", failed, testID, err)
			}

			accounts := st.PlatformAccounts()
			if len(accounts) != 2 || accounts[0] != steem || accounts[1] != "p.twitter" {
				t.Fatalf("\t%s\tTest %d:\tShould create the new platform : %v", failed, testID, accounts)
			}
			t.Logf("\t%s\tTest %d:\tShould create the new platform.", success, testID)

			init := platform.Init{Name: "twitter", EmissionAuthority: "snax", Symbol: "SNAX", Precision: 4, Treasury: "snax.team"}
			if err := st.Initialize(auth.NewSigners("p.twitter"), "p.twitter", init); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to initialize the new platform : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to initialize the new platform.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the system account doesn't sign.", testID)
		{
			err := st.SetPlatforms(operator, []emission.PlatformConfig{{Account: steem, Weight: 1, Period: 1}})
			if !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould be rejected : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be rejected.", success, testID)
		}
	}
}

func Test_DepositDuringDistribution(t *testing.T) {
	mem := memory.New()
	clk := clock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	st := newState(t, mem, &clk)

	t.Log("Given the need to pay out exactly the round supply.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the platform receives funds while distributing.", testID)
		{
			accounts := []platform.NewAccount{
				{ID: 1, Handle: "bob", Account: "bob", VerificationPost: 1, VerificationSalt: "s"},
				{ID: 2, Handle: "carol", Account: "carol", VerificationPost: 2, VerificationSalt: "s"},
			}
			if err := st.AddAccounts(operator, steem, steem, accounts); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add the accounts : %s", failed, testID, err)
			}

			scores := []platform.Score{{ID: 1, AttentionRate: 60}, {ID: 2, AttentionRate: 40}}
			if err := st.OpenRound(operator, steem); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the round : %s", failed, testID, err)
			}
			if err := st.SubmitScores(operator, steem, scores, false); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit scores : %s", failed, testID, err)
			}
			if err := st.RequestLock(operator, steem); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to lock : %s", failed, testID, err)
			}

			clk.now = clk.now.Add(2 * time.Hour)
			if err := st.StartDistribution(operator, steem); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to start the distribution : %s", failed, testID, err)
			}

			first, err := st.PayBatch(operator, steem, 0, 1)
			if err != nil || first.Finalized || !first.More {
				t.Fatalf("\t%s\tTest %d:\tShould pay the first page : %v %+v", failed, testID, err, first)
			}
			t.Logf("\t%s\tTest %d:\tShould pay the first page.", success, testID)

			if err := st.Transfer(auth.NewSigners("alice"), "alice", steem, asset.New(500_000, snax(t)), "deposit"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to fund the platform : %s", failed, testID, err)
			}

			second, err := st.PayBatch(operator, steem, first.NextCursor, 1)
			if err != nil || !second.Finalized {
				t.Fatalf("\t%s\tTest %d:\tShould finalize on the second page : %v %+v", failed, testID, err, second)
			}
			t.Logf("\t%s\tTest %d:\tShould finalize on the second page.", success, testID)

			p, _ := st.Platform(steem)
			history := p.History()
			if len(history) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould archive the round : %d", failed, testID, len(history))
			}
			rec := history[0]

			if rec.SentAmount.Amount+rec.Swept.Amount != rec.RoundSupply.Amount {
				t.Logf("\t\tTest %d:\tsupply[%d] sent[%d] swept[%d]", testID, rec.RoundSupply.Amount, rec.SentAmount.Amount, rec.Swept.Amount)
				t.Fatalf("\t%s\tTest %d:\tShould account for the round supply exactly.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould account for the round supply exactly.", success, testID)

			if supply := rec.RoundSupply.Amount; balance(st, "bob") != supply*60/100 || balance(st, "carol") != supply*40/100 {
				t.Logf("\t\tTest %d:\tsupply[%d] bob[%d] carol[%d]", testID, supply, balance(st, "bob"), balance(st, "carol"))
				t.Fatalf("\t%s\tTest %d:\tShould pay in proportion to the attention.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould pay in proportion to the attention.", success, testID)

			if balance(st, "snax.team") != rec.Swept.Amount {
				t.Fatalf("\t%s\tTest %d:\tShould sweep only the rest of the round supply : %d", failed, testID, balance(st, "snax.team"))
			}
			t.Logf("\t%s\tTest %d:\tShould sweep only the rest of the round supply.", success, testID)

			if balance(st, steem) != 500_000 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the deposit for the next round : %d", failed, testID, balance(st, steem))
			}
			t.Logf("\t%s\tTest %d:\tShould keep the deposit for the next round.", success, testID)
		}
	}
}

func Test_NonceRestore(t *testing.T) {
	mem := memory.New()
	clk := clock{now: time.Now()}
	st := newState(t, mem, &clk)

	t.Log("Given the need to reject replayed actions across restarts.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a nonce is consumed.", testID)
		{
			if err := st.UseNonce("alice", 7); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to use the nonce : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to use the nonce.", success, testID)

			if err := st.UseNonce("alice", 7); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the same nonce : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the same nonce.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the state is restored from storage.", testID)
		{
			restored := newState(t, mem, &clk)

			if restored.Nonce("alice") != 7 {
				t.Fatalf("\t%s\tTest %d:\tShould restore the last nonce : %d", failed, testID, restored.Nonce("alice"))
			}
			t.Logf("\t%s\tTest %d:\tShould restore the last nonce.", success, testID)

			if err := restored.UseNonce("alice", 7); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the replayed nonce : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the replayed nonce.", success, testID)

			if err := restored.UseNonce("alice", 8); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the next nonce : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the next nonce.", success, testID)
		}
	}
}
