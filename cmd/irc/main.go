// irc encodes, inspects and caches binary IR archives.
//
// Usage:
//
//	irc encode prog.yaml -o prog.irb
//	irc dump prog.irb --scope 0
//	irc verify prog.cue
//	irc cache put prog.yaml
package main

import (
	"os"

	"github.com/tdaitx/irpersist/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
