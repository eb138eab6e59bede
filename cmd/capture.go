/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	seriallink "github.com/allbin/go-seriallink"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <port> <output-file>",
	Short: "Capture serial data to a file",
	Long: `Capture incoming serial data to a file for later parsing.

Every buffer the link reads is appended to the output file unchanged,
XON/XOFF bytes included. Flow control transitions are reported on stderr.
Runs until interrupted (Ctrl+C) and prints a summary of the link counters.

Example usage:
  seriallink capture /dev/ttyUSB0 data.log
  seriallink capture /dev/ttyUSB0 output.txt --baud 9600
  seriallink capture /dev/ttyUSB0 capture.log --flow-control software -c`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completePortAt(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		showConsole, _ := cmd.Flags().GetBool("console")

		link, _, err := newLink(args[0])
		if err != nil {
			return err
		}
		// capture only makes sense with eager reads
		link.SetAutoRead(true)

		file, err := os.OpenFile(args[1], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer file.Close()

		var console io.Writer
		if showConsole {
			console = cmd.OutOrStdout()
		}

		ctx, cancel := interruptible(cmd.Context())
		defer cancel()

		fmt.Fprintf(cmd.ErrOrStderr(), "Capturing data from %s to %s\nPress Ctrl+C to stop\n\n", args[0], args[1])
		return runCapture(ctx, link, file, console, cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

// runCapture opens link read-only and copies everything it reads to out, and
// to console when set, until ctx is done.
func runCapture(ctx context.Context, link *seriallink.Link, out, console, status io.Writer) error {
	var writeErr error
	unsubscribe := link.Subscribe(func(ev seriallink.Event) {
		switch ev.Kind {
		case seriallink.EventBytesRead:
			data := link.ReadBuffer()
			if _, err := out.Write(data); err != nil && writeErr == nil {
				writeErr = err
			}
			if console != nil {
				console.Write(data)
			}
		case seriallink.EventXON:
			if ev.State {
				fmt.Fprintf(status, "[%s] XON received\n", time.Now().Format("15:04:05"))
			} else {
				fmt.Fprintf(status, "[%s] XOFF received\n", time.Now().Format("15:04:05"))
			}
		case seriallink.EventError:
			fmt.Fprintf(status, "[%s] %v\n", time.Now().Format("15:04:05"), ev.Err)
		}
	})
	defer unsubscribe()

	if err := link.Open(seriallink.ReadOnly); err != nil {
		return err
	}
	defer link.Close()

	start := time.Now()
	_ = link.Run(ctx, nil)

	stats := link.Stats()
	fmt.Fprintf(status, "\nCapture complete: %d bytes in %v (XON %d, XOFF %d, errors %d)\n",
		stats.BytesRead.Value(),
		time.Since(start).Round(time.Millisecond),
		stats.XONCount.Value(),
		stats.XOFFCount.Value(),
		stats.Errors.Value())

	if writeErr != nil {
		return fmt.Errorf("write error: %w", writeErr)
	}
	return nil
}
