// This program performs administrative tasks against a stored snapshot of
// the ledger.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ponpase/snax/app/tooling/admin/commands"
	"github.com/ponpase/snax/foundation/blockchain/genesis"
	"github.com/ponpase/snax/foundation/blockchain/state"
	"github.com/ponpase/snax/foundation/blockchain/storage"
	"github.com/ponpase/snax/foundation/blockchain/storage/disk"
	"github.com/ponpase/snax/foundation/blockchain/storage/leveldb"
	"github.com/ponpase/snax/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args  conf.Args
		State struct {
			GenesisPath string `conf:"default:zblock/genesis.json"`
			Storage     string `conf:"default:disk"`
			DBPath      string `conf:"default:zblock/snapshot"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "snapshot inspection tooling",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	var serializer storage.Serializer
	switch cfg.State.Storage {
	case "disk":
		serializer, err = disk.New(cfg.State.DBPath)
	case "leveldb":
		serializer, err = leveldb.New(cfg.State.DBPath)
	default:
		err = fmt.Errorf("unknown storage kind %q", cfg.State.Storage)
	}
	if err != nil {
		return err
	}

	// Refuse to build a new ledger from genesis when nothing was stored.
	snapshot, err := serializer.Read()
	if err != nil {
		serializer.Close()
		return fmt.Errorf("reading snapshot: %w", err)
	}

	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: serializer,
	})
	if err != nil {
		serializer.Close()
		return err
	}
	defer st.Shutdown()

	return processCommands(cfg.Args, st, snapshot)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, st *state.State, snapshot storage.Snapshot) error {
	switch args.Num(0) {
	case "snap":
		commands.Snapshot(snapshot)

	case "bals":
		if err := commands.Balances(args.Num(1), st); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "history":
		if err := commands.History(args.Num(1), st); err != nil {
			return fmt.Errorf("getting history: %w", err)
		}

	case "platform":
		if err := commands.Platform(args.Num(1), st); err != nil {
			return fmt.Errorf("getting platform: %w", err)
		}

	default:
		fmt.Println("snap:     show the number and action of the stored snapshot")
		fmt.Println("bals:     show the balances of an account, bals <account>")
		fmt.Println("history:  show the finalized rounds of a platform, history <platform>")
		fmt.Println("platform: show the state of a platform, platform <platform>")
		fmt.Println("provide a command to get more help.")
	}

	return nil
}
