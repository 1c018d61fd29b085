// Command hazardmap shows a clustered place overlay in a window, or reports
// how a places file clusters at a given camera without opening one.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Local .env overrides are optional.
	_ = godotenv.Load(".env")

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hazardmap:", err)
		os.Exit(1)
	}
}
