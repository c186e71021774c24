package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

type balances struct {
	Account  string   `json:"account"`
	Balances []string `json:"balances"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balances of the account",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	account := getAccount()
	fmt.Println("For Account:", account)

	resp, err := http.Get(fmt.Sprintf("%s/v1/balances/list/%s", url, account))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var bals balances
	if err := json.NewDecoder(resp.Body).Decode(&bals); err != nil {
		log.Fatal(err)
	}

	for _, bal := range bals.Balances {
		fmt.Println(bal)
	}
}
