/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/tui/models"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect <port>",
	Short: "Connect to a serial port with an interactive terminal",
	Long: `Connect to a serial port through a flow-controlled link with an
interactive terminal interface.

Features include:
- Event log with RX/TX data in hex and ASCII, ready transitions, XON/XOFF
  and modem line changes
- Ready indicator in the status bar (READY, BLOCKED, CLOSED)
- Input field for sending ASCII or hex data, held back while the peer is busy
- Auto or manual reads, with on-demand reads in manual mode
- Closing and reopening the port without leaving the interface

Example usage:
  seriallink connect /dev/ttyUSB0
  seriallink connect /dev/ttyUSB0 --baud 115200 --flow-control hardware
  seriallink connect /dev/ttyUSB0 --flow-control software --manual-read
  seriallink connect /dev/ttyUSB0 --read-only`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePortAt(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		readOnly, _ := cmd.Flags().GetBool("read-only")
		newline, _ := cmd.Flags().GetBool("newline")

		link, transport, err := newLink(args[0])
		if err != nil {
			return err
		}

		mode := seriallink.ReadWrite
		if readOnly {
			mode = seriallink.ReadOnly
		}

		m := models.NewLinkModel(link, transport.Events(), mode, newline)
		_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
		if link.IsOpen() {
			link.Close()
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().Bool("read-only", false, "Open the port read-only and only display incoming data")
	connectCmd.Flags().BoolP("newline", "n", true, "Append a newline to ASCII messages")
}
