package emission_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var curve = emission.Curve{
	A:              1,
	B:              -100,
	SoftCapDivisor: 10,
	MinSupplyGap:   0,
}

// clock is a settable time source.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newAuthority(t *testing.T, clk *clock) (*emission.Authority, *ledger.Ledger, asset.Symbol) {
	t.Helper()

	snax, err := asset.NewSymbol("SNAX", 4)
	if err != nil {
		t.Fatalf("Should be able to create the symbol: %s", err)
	}

	l := ledger.New(nil)
	if err := l.Create("snax", asset.New(10_000*snax.Unit(), snax)); err != nil {
		t.Fatalf("Should be able to create the token: %s", err)
	}

	cfg := emission.Config{
		Account:      "snax",
		Symbol:       snax,
		Curve:        curve,
		LockDuration: time.Hour,
		PeriodUnit:   24 * time.Hour,
		Now:          clk.Now,
	}

	a, err := emission.New(cfg, l)
	if err != nil {
		t.Fatalf("Should be able to construct the authority: %s", err)
	}

	return a, l, snax
}

func Test_RoundSupply(t *testing.T) {
	type table struct {
		name   string
		supply emission.Supply
		offset int64
		exp    int64
	}

	tt := []table{
		{name: "first", supply: emission.Supply{Max: 100_000_000, Unit: 10_000}, offset: 1, exp: 990_000},
		{name: "offset2", supply: emission.Supply{Max: 100_000_000, Unit: 10_000}, offset: 2, exp: 1_960_000},
		{name: "held", supply: emission.Supply{Max: 100_000_000, Issued: 5_000_000, System: 2_000_000, Platforms: 3_000_000, Unit: 10_000}, offset: 1, exp: 990_000},
	}

	t.Log("Given the need to size the round supply from the curve.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s case.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got, err := curve.RoundSupply(tst.supply, tst.offset)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to size the round : %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to size the round.", success, testID)

					if got != tst.exp {
						t.Logf("\t\tTest %d:\tgot: %d", testID, got)
						t.Logf("\t\tTest %d:\texp: %d", testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get the right round supply.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the right round supply.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}

		testID := len(tt)
		t.Logf("\tTest %d:\tWhen the circulating supply is past the curve.", testID)
		{
			s := emission.Supply{Max: 100_000_000, Issued: 30_000_000, Unit: 10_000}
			if _, err := curve.RoundSupply(s, 1); !errors.Is(err, emission.ErrCurveUnsolvable) {
				t.Fatalf("\t%s\tTest %d:\tShould fail as unsolvable : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail as unsolvable.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the curve is invalid.", testID)
		{
			if err := (emission.Curve{B: 1, SoftCapDivisor: 10}).Validate(); !errors.Is(err, emission.ErrInvalidConfig) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a zero coefficient : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a zero coefficient.", success, testID)

			if err := (emission.Curve{A: 1}).Validate(); !errors.Is(err, emission.ErrInvalidConfig) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a zero divisor : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a zero divisor.", success, testID)
		}
	}
}

func Test_SetPlatforms(t *testing.T) {
	a, _, _ := newAuthority(t, &clock{now: time.Now()})
	system := auth.NewSigners("snax")

	type table struct {
		name    string
		signers auth.Signers
		configs []emission.PlatformConfig
		err     error
	}

	tt := []table{
		{name: "unauthorized", signers: auth.NewSigners("p.steem"), configs: []emission.PlatformConfig{{Account: "p.steem", Weight: 1, Period: 1}}, err: auth.ErrUnauthorized},
		{name: "overweight", signers: system, configs: []emission.PlatformConfig{{Account: "p.steem", Weight: 0.6, Period: 1}, {Account: "p.twitter", Weight: 0.5, Period: 1}}, err: emission.ErrInvalidConfig},
		{name: "negative", signers: system, configs: []emission.PlatformConfig{{Account: "p.steem", Weight: -0.1, Period: 1}}, err: emission.ErrInvalidConfig},
		{name: "period", signers: system, configs: []emission.PlatformConfig{{Account: "p.steem", Weight: 1, Period: 0}}, err: emission.ErrInvalidConfig},
		{name: "duplicate", signers: system, configs: []emission.PlatformConfig{{Account: "p.steem", Weight: 0.1, Period: 1}, {Account: "p.steem", Weight: 0.1, Period: 1}}, err: emission.ErrInvalidConfig},
		{name: "valid", signers: system, configs: []emission.PlatformConfig{{Account: "p.twitter", Weight: 0.5, Period: 2}, {Account: "p.steem", Weight: 0.5, Period: 1}}},
	}

	t.Log("Given the need to configure the platforms.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s case.", testID, tst.name)
			{
				err := a.SetPlatforms(tst.signers, tst.configs)
				if !errors.Is(err, tst.err) {
					t.Logf("\t\tTest %d:\tgot: %v", testID, err)
					t.Logf("\t\tTest %d:\texp: %v", testID, tst.err)
					t.Fatalf("\t%s\tTest %d:\tShould get the expected result.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get the expected result.", success, testID)
			}
		}

		testID := len(tt)
		t.Logf("\tTest %d:\tWhen reading the configured platforms.", testID)
		{
			pcs := a.Platforms()
			if len(pcs) != 2 || pcs[0].Account != "p.steem" || pcs[1].Account != "p.twitter" {
				t.Fatalf("\t%s\tTest %d:\tShould get the valid config sorted by account : %+v", failed, testID, pcs)
			}
			t.Logf("\t%s\tTest %d:\tShould get the valid config sorted by account.", success, testID)
		}
	}
}

func Test_Cooldowns(t *testing.T) {
	clk := clock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	a, l, snax := newAuthority(t, &clk)

	if err := a.SetPlatforms(auth.NewSigners("snax"), []emission.PlatformConfig{{Account: "p.steem", Weight: 1, Period: 1}}); err != nil {
		t.Fatalf("Should be able to configure the platforms: %s", err)
	}

	t.Log("Given the need to release supply to a platform.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen requesting without a configured platform.", testID)
		{
			if err := a.Lock("p.twitter"); !errors.Is(err, emission.ErrPlatformNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the lock : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the lock.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen requesting inside the lock window.", testID)
		{
			if err := a.Lock("p.steem"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to lock : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to lock.", success, testID)

			clk.Advance(30 * time.Minute)
			if _, err := a.RequestEmission("p.steem"); !errors.Is(err, emission.ErrCooldownActive) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the request : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the request.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen requesting after the lock window.", testID)
		{
			clk.Advance(time.Hour)

			share, err := a.RequestEmission("p.steem")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to request : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to request.", success, testID)

			if share.String() != "99.0000 SNAX" {
				t.Fatalf("\t%s\tTest %d:\tShould get 99.0000 SNAX, got %s.", failed, testID, share)
			}
			t.Logf("\t%s\tTest %d:\tShould get 99.0000 SNAX.", success, testID)

			if bal := l.Balance("p.steem", snax); bal.Amount != 990_000 {
				t.Fatalf("\t%s\tTest %d:\tShould credit the platform, got %s.", failed, testID, bal)
			}
			t.Logf("\t%s\tTest %d:\tShould credit the platform.", success, testID)

			if supply, _ := l.Supply(snax); supply.Amount != 990_000 {
				t.Fatalf("\t%s\tTest %d:\tShould issue the shortfall, got %s.", failed, testID, supply)
			}
			t.Logf("\t%s\tTest %d:\tShould issue the shortfall.", success, testID)

			reqs := a.Requests("p.steem")
			if len(reqs) != 1 || reqs[0].Amount != share || !reqs[0].Time.Equal(clk.Now()) {
				t.Fatalf("\t%s\tTest %d:\tShould log the request : %+v", failed, testID, reqs)
			}
			t.Logf("\t%s\tTest %d:\tShould log the request.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen requesting inside the period.", testID)
		{
			clk.Advance(12 * time.Hour)
			if err := a.Lock("p.steem"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to lock inside the period : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to lock inside the period.", success, testID)

			clk.Advance(2 * time.Hour)
			if _, err := a.RequestEmission("p.steem"); !errors.Is(err, emission.ErrCooldownActive) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the request : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the request.", success, testID)

			if reqs := a.Requests("p.steem"); len(reqs) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not log the rejected request : %d", failed, testID, len(reqs))
			}
			t.Logf("\t%s\tTest %d:\tShould not log the rejected request.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the system holds enough to pay the share.", testID)
		{
			if err := l.Issue("snax", asset.New(2_000_000, snax), "reserve"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to fund the system : %s", failed, testID, err)
			}

			clk.Advance(11 * time.Hour)
			if err := a.Lock("p.steem"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to lock after the period : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to lock after the period.", success, testID)

			clk.Advance(time.Hour)
			share, err := a.RequestEmission("p.steem")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to request : %s", failed, testID, err)
			}

			if supply, _ := l.Supply(snax); supply.Amount != 2_990_000 {
				t.Fatalf("\t%s\tTest %d:\tShould not issue new supply, got %s.", failed, testID, supply)
			}
			t.Logf("\t%s\tTest %d:\tShould not issue new supply.", success, testID)

			if bal := l.Balance("snax", snax); bal.Amount != 2_000_000-share.Amount {
				t.Fatalf("\t%s\tTest %d:\tShould pay the share from the system balance, got %s.", failed, testID, bal)
			}
			t.Logf("\t%s\tTest %d:\tShould pay the share from the system balance.", success, testID)
		}
	}
}
