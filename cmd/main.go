package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"oxbowlabs/oxbow/cmd/admin"
	"oxbowlabs/oxbow/cmd/serve"
	"oxbowlabs/oxbow/cmd/version"
)

func main() {
	root := &cli.Command{
		Name:  "oxbow",
		Usage: "self-hosted event invitation and RSVP service",
		Commands: []*cli.Command{
			serve.GetCommand(),
			admin.GetCommand(),
			version.GetCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("[!] Error: %s\n", err)
		os.Exit(1)
	}
}
