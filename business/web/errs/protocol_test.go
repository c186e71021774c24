package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ponpase/snax/business/web/errs"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/platform"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_FromProtocol(t *testing.T) {
	type table struct {
		name   string
		err    error
		status int
	}

	tt := []table{
		{name: "unauthorized", err: fmt.Errorf("%w: missing authority of p.steem", auth.ErrUnauthorized), status: http.StatusUnauthorized},
		{name: "phase", err: fmt.Errorf("%w: phase locked", platform.ErrWrongPhase), status: http.StatusConflict},
		{name: "cooldown", err: emission.ErrCooldownActive, status: http.StatusConflict},
		{name: "user", err: fmt.Errorf("%w: 7", platform.ErrUserNotFound), status: http.StatusNotFound},
		{name: "funds", err: fmt.Errorf("transfer: %w", ledger.ErrInsufficientFunds), status: http.StatusBadRequest},
		{name: "curve", err: emission.ErrCurveUnsolvable, status: http.StatusInternalServerError},
	}

	t.Log("Given the need to return protocol errors to callers.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s error.", testID, tst.name)
			{
				trusted := errs.GetTrusted(errs.FromProtocol(tst.err))
				if trusted == nil || trusted.Status != tst.status {
					t.Logf("\t\tTest %d:\tgot: %+v", testID, trusted)
					t.Logf("\t\tTest %d:\texp: %d", testID, tst.status)
					t.Fatalf("\t%s\tTest %d:\tShould get the expected status.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get the expected status.", success, testID)

				if trusted.Error() != tst.err.Error() {
					t.Fatalf("\t%s\tTest %d:\tShould keep the message : %s", failed, testID, trusted.Error())
				}
				t.Logf("\t%s\tTest %d:\tShould keep the message.", success, testID)

				if !errors.Is(trusted, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould still match the protocol error.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould still match the protocol error.", success, testID)
			}
		}

		testID := len(tt)
		t.Logf("\tTest %d:\tWhen handling an unknown error.", testID)
		{
			err := errors.New("disk on fire")
			if errs.FromProtocol(err) != err {
				t.Fatalf("\t%s\tTest %d:\tShould leave the error untouched.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the error untouched.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen handling an already trusted error.", testID)
		{
			err := errs.NewTrusted(fmt.Errorf("%w: 7", platform.ErrUserNotFound), http.StatusBadRequest)
			if trusted := errs.GetTrusted(errs.FromProtocol(err)); trusted == nil || trusted.Status != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould keep the status set by the handler : %+v", failed, testID, trusted)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the status set by the handler.", success, testID)
		}
	}
}
