// Command quillctl manages blog types and labels against a running server
// through the optimistic client library.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
