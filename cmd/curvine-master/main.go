// Command curvine-master runs the Curvine metadata master: the RPC
// dispatch and idempotency core that arbitrates namespace, worker, mount,
// and load-job operations behind a single leader-gated entry point.
package main

import (
	"os"

	"github.com/curviron/master/cmd/curvine-master/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		commands.PrintErr(err)
		os.Exit(1)
	}
}
