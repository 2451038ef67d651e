package main

import (
	"os"

	"github.com/nhle/jira-flow-nodes/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
