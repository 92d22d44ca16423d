package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"

	adminpkg "oxbowlabs/oxbow/pkg/admin"
)

// runShell drives the interactive admin loop: one command per line until
// EOF or ctx cancellation. Stdin is wrapped in a cancelable reader where
// the platform supports it, so an interrupt unblocks a pending prompt.
func runShell(ctx context.Context, client *adminpkg.Client) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println("Note: stdin is not a terminal")
	}

	var stdin io.Reader = os.Stdin
	if cr, err := cancelreader.NewReader(os.Stdin); err == nil {
		defer cr.Cancel()
		stop := context.AfterFunc(ctx, func() { cr.Cancel() })
		defer stop()
		stdin = cr
	}

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Println("Enter command: invite, list-invites, quit")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !errors.Is(err, cancelreader.ErrCanceled) {
				return fmt.Errorf("reading stdin: %w", err)
			}
			return nil
		}

		switch command := strings.TrimSpace(scanner.Text()); command {
		case "invite":
			fmt.Println("Enter invitee name")
			if !scanner.Scan() {
				return scanner.Err()
			}
			name := strings.TrimSpace(scanner.Text())
			result, err := client.Invite(name)
			if err != nil {
				fmt.Printf("Inviting failed: %s\n", err)
				continue
			}
			fmt.Printf("Invited %s\n", result.Name)

		case "list-invites":
			invitees, err := client.ListInvites()
			if err != nil {
				fmt.Printf("Listing failed: %s\n", err)
				continue
			}
			printInvitees(invitees)

		case "quit", "exit":
			return nil

		case "":
			// ignore blank lines

		default:
			fmt.Printf("Unknown command %s\n", command)
		}
	}
}
