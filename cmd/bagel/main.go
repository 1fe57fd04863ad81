// Command bagel talks to a BagelDB service from the shell.
package main

import (
	"os"

	"github.com/bageldb/bagel-go/cmd/bagel/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
