package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/d20stats/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "d20stats:", err)
		os.Exit(1)
	}
}
