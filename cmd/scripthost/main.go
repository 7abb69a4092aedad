// Command scripthost runs a Lua script as an audio plugin.
package main

import (
	"fmt"
	"os"

	"github.com/justyntemme/scripthost/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
