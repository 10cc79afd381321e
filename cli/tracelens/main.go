package main

import (
	"os"

	tracelenscmder "github.com/tracelens/tracelens/cmd/tracelens"
)

func main() {
	cmd := tracelenscmder.NewTracelensCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
