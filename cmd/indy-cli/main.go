package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pradeepp88/indy-cli-go/internal/cli/command"
	"github.com/pradeepp88/indy-cli-go/internal/cli/repl"
)

func main() {
	err := command.App().Run(os.Args)

	// An aborted batch has already reported its failing line.
	var abort *repl.AbortError
	if err != nil && !errors.As(err, &abort) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(command.ExitCode(err))
}
