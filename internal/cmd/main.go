package cmd

import (
	"bufio"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Version is set at build time.
var Version = "dev"

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := args[0]

	log := hclog.New(&hclog.LoggerOptions{
		Name:   cliName,
		Output: os.Stderr,
	})

	if len(args) == 2 &&
		(args[1] == "-version" ||
			args[1] == "-v") {
		args = []string{cliName, "version"}
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := &cli.CLI{
		Name:     cliName,
		Args:     args[1:],
		Version:  Version,
		Commands: Commands(log, ui),
	}

	exitCode, err := c.Run()
	if err != nil {
		log.Error("running command", "error", err)
		return 1
	}

	return exitCode
}
