package main

import (
	"log/slog"
	"os"

	"github.com/ayusman/mudra/cmd/mudra/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
)

func main() {
	root := commands.NewRootCmd(version, commit)
	if err := root.Execute(); err != nil {
		slog.Error("mudra failed", "err", err)
		os.Exit(1)
	}
}
