package main

import (
	"context"
	"os"

	"github.com/dgallion1/docnav/internal/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cmd.SetVersionInfo(version, commit)
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
