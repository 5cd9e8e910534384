// Command hearthctl is the operator-facing CLI over the local operations
// core: runtime install/start/repair, update pipeline control, permission
// policy, and audit/export.
package main

import (
	"fmt"
	"os"

	"github.com/hearthcore/hearth/cmd/hearthctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
