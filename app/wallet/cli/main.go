package main

import "github.com/ponpase/snax/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
