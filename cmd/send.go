/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/tui/components"
	"github.com/allbin/go-seriallink/internal/tui/styles"
)

// pollInterval is how long the link is run between attempts when the
// transport accepted nothing.
const pollInterval = 10 * time.Millisecond

var errNotReady = errors.New("peer is not ready")

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port",
	Long: `Send data to a serial port once the peer is ready to receive.

Data can be provided as:
- Command line argument: seriallink send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | seriallink send /dev/ttyUSB0
- Interactive mode: seriallink send /dev/ttyUSB0 (prompts for input)

Under hardware or software flow control the data is held back while the
peer signals busy, for at most --wait-ready per attempt.

Example usage:
  seriallink send "AT+GMR" /dev/ttyUSB0 --newline
  seriallink send "48656c6c6f" /dev/ttyUSB0 --hex
  seriallink send "status" /dev/ttyUSB0 --flow-control software --wait-ready 10s`,
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completePortAt(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw, port string
		if len(args) == 1 {
			port = args[0]
			var err error
			if raw, err = readInput(os.Stdin, cmd.OutOrStdout()); err != nil {
				return err
			}
		} else {
			raw, port = args[0], args[1]
		}

		hexMode, _ := cmd.Flags().GetBool("hex")
		newline, _ := cmd.Flags().GetBool("newline")
		waitReady, _ := cmd.Flags().GetDuration("wait-ready")

		data, err := payload(raw, hexMode, newline)
		if err != nil {
			return err
		}

		link, _, err := newLink(port)
		if err != nil {
			return err
		}

		ctx, cancel := interruptible(cmd.Context())
		defer cancel()

		return runSend(ctx, cmd.OutOrStdout(), link, data, waitReady)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().Duration("wait-ready", 5*time.Second, "How long to wait for the peer to become ready")
}

// readInput takes piped stdin, or prompts for a line when stdin is a terminal.
func readInput(in *os.File, out io.Writer) (string, error) {
	stat, err := in.Stat()
	if err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	prompt := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	fmt.Fprint(out, prompt.Render("Enter data to send: "))
	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	return "", scanner.Err()
}

func payload(raw string, hexMode, newline bool) ([]byte, error) {
	if hexMode {
		data, err := components.ParseHex(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
		return data, nil
	}
	if newline {
		raw += "\n"
	}
	return []byte(raw), nil
}

func runSend(ctx context.Context, out io.Writer, link *seriallink.Link, data []byte, waitReady time.Duration) error {
	fmt.Fprintf(out, "%s Opening %s (%s)...\n", styles.InfoStyle.Render("⚡"), link.PortName(), components.Describe(link.Config()))
	if err := link.Open(seriallink.ReadWrite); err != nil {
		return err
	}
	defer link.Close()

	n, err := sendAll(ctx, link, data, waitReady)
	if err != nil {
		return fmt.Errorf("sent %d of %d bytes: %w", n, len(data), err)
	}

	preview := components.Printable(data)
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	fmt.Fprintf(out, "%s Sent %d bytes: %s\n", styles.SuccessStyle.Render("✓"), n, preview)
	return nil
}

// sendAll writes data in as many writes as the transport needs, waiting for
// the peer before each one.
func sendAll(ctx context.Context, link *seriallink.Link, data []byte, waitReady time.Duration) (int, error) {
	sent := 0
	for sent < len(data) {
		if err := awaitReady(ctx, link, waitReady); err != nil {
			return sent, err
		}
		n, err := link.Write(data[sent:])
		sent += n
		if err != nil {
			return sent, err
		}
		if n == 0 {
			if err := runFor(ctx, link, pollInterval); err != nil {
				return sent, err
			}
		}
	}
	return sent, nil
}

// awaitReady runs the link until the peer is ready or timeout passes.
func awaitReady(ctx context.Context, link *seriallink.Link, timeout time.Duration) error {
	if link.IsReady() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	unsubscribe := link.Subscribe(func(ev seriallink.Event) {
		if ev.Kind == seriallink.EventReadyChanged && ev.State {
			cancel()
		}
	})
	defer unsubscribe()

	_ = link.Run(ctx, nil)

	if link.IsReady() {
		return nil
	}
	if err := context.Cause(ctx); errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", errNotReady, timeout)
	}
	return ctx.Err()
}

// runFor lets the link process transport events for d.
func runFor(ctx context.Context, link *seriallink.Link, d time.Duration) error {
	runCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	_ = link.Run(runCtx, nil)
	return ctx.Err()
}
