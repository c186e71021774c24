package auth_test

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Signers(t *testing.T) {
	signers := auth.NewSigners("p.steem", "snax")

	t.Log("Given the need to check the authority of a call.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the account signed the call.", testID)
		{
			if err := signers.Require("p.steem"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the account : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the account.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the account did not sign the call.", testID)
		{
			if err := signers.Require("alice"); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the account : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the account.", success, testID)
		}
	}
}

func Test_Verifier(t *testing.T) {
	alicePK, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	bobPK, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	ns, err := nameservice.New(t.TempDir())
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}
	ns.Register("alice", crypto.PubkeyToAddress(alicePK.PublicKey).String())

	nonces := auth.NewNonces()
	v := auth.NewVerifier(ns, nonces)

	sign := func(account ledger.AccountName, nonce uint64, pk *ecdsa.PrivateKey) auth.SignedAction {
		act := auth.Action{
			Account: account,
			Name:    "transfer",
			Nonce:   nonce,
			Data:    []byte(`{"to":"bob"}`),
		}

		sa, err := act.Sign(pk)
		if err != nil {
			t.Fatalf("Should be able to sign the action: %s", err)
		}
		return sa
	}

	t.Log("Given the need to verify signed actions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the action is signed by the registered key.", testID)
		{
			signers, err := v.Verify(sign("alice", 1, alicePK))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould verify the action : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould verify the action.", success, testID)

			if err := signers.Require("alice"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould get alice as signer : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get alice as signer.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the nonce is replayed.", testID)
		{
			if _, err := v.Verify(sign("alice", 1, alicePK)); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the action : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the action.", success, testID)

			if _, err := v.Verify(sign("alice", 2, alicePK)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the next nonce : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the next nonce.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the action is signed by another key.", testID)
		{
			if _, err := v.Verify(sign("alice", 10, bobPK)); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the action : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the action.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the account has no registered key.", testID)
		{
			if _, err := v.Verify(sign("bob", 1, bobPK)); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the action : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the action.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the action is changed after signing.", testID)
		{
			sa := sign("alice", 20, alicePK)
			sa.Name = "setplatforms"

			if _, err := v.Verify(sa); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the action : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the action.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the nonces are restored into a new verifier.", testID)
		{
			data, err := json.Marshal(nonces)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to marshal the nonces : %s", failed, testID, err)
			}

			restored := auth.NewNonces()
			if err := json.Unmarshal(data, restored); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the nonces : %s", failed, testID, err)
			}
			if restored.Last("alice") != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould restore the last nonce : got %d", failed, testID, restored.Last("alice"))
			}
			t.Logf("\t%s\tTest %d:\tShould restore the last nonce.", success, testID)

			v2 := auth.NewVerifier(ns, restored)
			if _, err := v2.Verify(sign("alice", 2, alicePK)); !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a replayed action after a restore : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a replayed action after a restore.", success, testID)
		}
	}
}
