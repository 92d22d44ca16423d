package serve

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"oxbowlabs/oxbow/cmd/shared"
	"oxbowlabs/oxbow/pkg/config"
	"oxbowlabs/oxbow/pkg/log"
	"oxbowlabs/oxbow/pkg/server"
)

// GetCommand returns the serve command, which runs the web service until
// interrupted.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the invitation web service",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String(shared.ConfigFlag))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Bool(shared.VerboseFlag) {
				cfg.Verbose = true
			}

			if errors := cfg.Validate(); len(errors) > 0 {
				log.ErrorMsg("Configuration errors:\n")
				for _, err := range errors {
					log.ErrorMsg(" - %s\n", err)
				}
				return fmt.Errorf("exiting")
			}

			logger := log.NewLogger(cfg.Verbose)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			shared.SetupSignalHandling(cancel)

			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}

			if err := srv.Run(runCtx); err != nil {
				return fmt.Errorf("serving: %w", err)
			}
			return nil
		},
		Flags: shared.GetCommonFlags(),
	}
}
