// Command ailawyer finds the persons named in legal documents.
package main

import (
	"fmt"
	"os"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
