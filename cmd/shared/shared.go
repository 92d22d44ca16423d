// Package shared provides common CLI flag definitions and signal
// handling used across oxbow's command-line interface.
package shared

import (
	"github.com/urfave/cli/v3"
)

// ConfigFlag is the name of the flag specifying the config file path.
const ConfigFlag = "config"

// VerboseFlag is the name of the flag enabling verbose logging.
const VerboseFlag = "verbose"

// GetCommonFlags returns the flags shared by all oxbow commands.
func GetCommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     ConfigFlag,
			Aliases:  []string{"c"},
			Usage:    "Path to the configuration file",
			Value:    "oxbow.yaml",
			Required: false,
		},
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Verbose logging",
			Value:    false,
			Required: false,
		},
	}
}
