package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/spf13/cobra"
)

var (
	actionName string
	actionData string
	nonce      uint64
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Sign an action and submit it to the node",
	Example: `  wallet action -a p.steem -n openround -d '{"platform":"p.steem"}'
  wallet action -a alice -n transfer -d '{"to":"bob","quantity":"1.0000 SNAX","memo":"hi"}'`,
	Run: actionRun,
}

func init() {
	rootCmd.AddCommand(actionCmd)
	actionCmd.Flags().StringVarP(&actionName, "name", "n", "", "Name of the action.")
	actionCmd.Flags().StringVarP(&actionData, "data", "d", "{}", "JSON payload of the action.")
	actionCmd.Flags().Uint64Var(&nonce, "nonce", 0, "Nonce of the action, defaults to the current time.")
	actionCmd.MarkFlagRequired("name")
}

func actionRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	if !json.Valid([]byte(actionData)) {
		log.Fatal("data is not valid json")
	}

	if nonce == 0 {
		nonce = uint64(time.Now().UnixNano())
	}

	a := auth.Action{
		Account: ledger.AccountName(getAccount()),
		Name:    actionName,
		Nonce:   nonce,
		Data:    json.RawMessage(actionData),
	}

	signed, err := a.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(signed)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/actions/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(resp.Status)
	fmt.Println(string(body))
}
