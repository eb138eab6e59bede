/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/tui/components"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <port>",
	Short: "Print link events as they happen",
	Long: `Open a port and print every link event with a timestamp: open and close,
bytes read, ready transitions, XON/XOFF, modem line changes and errors.
Press Ctrl+C to stop.

Examples:
  seriallink watch /dev/ttyUSB0
  seriallink watch /dev/ttyUSB0 --flow-control hardware
  seriallink watch /dev/ttyUSB0 --flow-control software --manual-read`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePortAt(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, _, err := newLink(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := interruptible(cmd.Context())
		defer cancel()

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (%s)\nPress Ctrl+C to stop\n", args[0], components.Describe(link.Config()))
		return runWatch(ctx, link, cmd.OutOrStdout(), time.Now)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context, link *seriallink.Link, out io.Writer, now func() time.Time) error {
	unsubscribe := link.Subscribe(func(ev seriallink.Event) {
		fmt.Fprintln(out, formatEvent(now(), ev, link))
	})
	defer unsubscribe()

	if err := link.Open(seriallink.ReadOnly); err != nil {
		return err
	}
	defer link.Close()

	_ = link.Run(ctx, nil)
	return nil
}

func formatEvent(at time.Time, ev seriallink.Event, link *seriallink.Link) string {
	line := fmt.Sprintf("[%s] %s", at.Format("15:04:05.000"), ev)
	if ev.Kind == seriallink.EventBytesRead {
		line += " " + components.Hex(link.ReadBuffer())
	}
	return line
}
