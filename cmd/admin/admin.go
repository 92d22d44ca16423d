// Package admin implements the admin CLI commands talking to a running
// oxbow server over its control channel.
package admin

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	adminpkg "oxbowlabs/oxbow/pkg/admin"
	"oxbowlabs/oxbow/pkg/admin/msg"
	"oxbowlabs/oxbow/pkg/config"
	"oxbowlabs/oxbow/pkg/log"
)

const addrFlag = "addr"
const timeoutFlag = "timeout"

// GetCommand returns the admin command group.
func GetCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     addrFlag,
			Aliases:  []string{"a"},
			Usage:    "Admin address of the running server",
			Value:    config.Default().AdminAddr,
			Required: false,
		},
		&cli.IntFlag{
			Name:     timeoutFlag,
			Aliases:  []string{"t"},
			Usage:    "Connect timeout in milliseconds",
			Value:    10000,
			Required: false,
		},
	}

	return &cli.Command{
		Name:  "admin",
		Usage: "Manage the guest list of a running server",
		Commands: []*cli.Command{
			{
				Name:      "invite",
				Usage:     "Add a name to the guest list",
				ArgsUsage: "name",
				Flags:     flags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("usage: oxbow admin invite <name>")
					}

					client, err := dial(cmd)
					if err != nil {
						return err
					}
					defer client.Close()

					result, err := client.Invite(name)
					if err != nil {
						return fmt.Errorf("inviting %s: %w", name, err)
					}
					log.InfoMsg("Invited %s (ID %d)\n", result.Name, result.ID)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "Print the guest list",
				Flags: flags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					client, err := dial(cmd)
					if err != nil {
						return err
					}
					defer client.Close()

					invitees, err := client.ListInvites()
					if err != nil {
						return fmt.Errorf("listing invites: %w", err)
					}
					printInvitees(invitees)
					return nil
				},
			},
			{
				Name:  "shell",
				Usage: "Interactive admin shell",
				Flags: flags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					client, err := dial(cmd)
					if err != nil {
						return err
					}
					defer client.Close()

					return runShell(ctx, client)
				},
			},
		},
	}
}

func dial(cmd *cli.Command) (*adminpkg.Client, error) {
	timeout := time.Duration(int(cmd.Int(timeoutFlag))) * time.Millisecond
	return adminpkg.Dial(cmd.String(addrFlag), timeout)
}

func printInvitees(invitees []msg.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 2, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tName\tRSVP'd?")
	for _, inv := range invitees {
		rsvped := "No"
		if inv.RSVPedAt != 0 {
			rsvped = fmt.Sprintf("Yes, at %s. %s",
				time.Unix(inv.RSVPedAt, 0).Format("02/01/2006 15:04:05"), inv.Contact)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", inv.ID, inv.Name, rsvped)
	}
	w.Flush()
}
