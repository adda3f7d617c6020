// Command hostrecon runs the reachability, port discovery and detailed scan
// pipeline against one target.
package main

import (
	"os"

	"github.com/vulntor/hostrecon/cmd/hostrecon/commands"
)

func main() {
	os.Exit(commands.Execute(commands.NewCommand()))
}
