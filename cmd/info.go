/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/allbin/go-seriallink/internal/tui/components"
	"github.com/allbin/go-seriallink/transport/termios"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display information about a serial port",
	Long: `Display what is known about a serial port and the link settings that
would be used to open it.

Examples:
  seriallink info /dev/ttyUSB0
  seriallink info /dev/ttyACM0 --flow-control software

For USB devices, vendor and product IDs, serial number and product name
are read from sysfs.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePortAt(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := termios.GetPortInfo(args[0])
		if err != nil {
			return fmt.Errorf("failed to get port info: %w", err)
		}
		link, _, err := newLink(args[0])
		if err != nil {
			return err
		}
		printPortInfo(cmd.OutOrStdout(), info)
		fmt.Fprintf(cmd.OutOrStdout(), "\nLink Settings:\n  %s\n", components.Describe(link.Config()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printPortInfo(w io.Writer, info *termios.PortInfo) {
	fmt.Fprintf(w, "Port Information: %s\n\n", info.Path)
	fmt.Fprintf(w, "  Name:        %s\n", info.Name)
	fmt.Fprintf(w, "  Kind:        %s\n", info.Kind)
	fmt.Fprintf(w, "  Description: %s\n", info.Description)

	if info.VendorID == "" && info.ProductID == "" {
		return
	}
	fmt.Fprintln(w, "\nUSB Device Information:")
	for _, field := range []struct{ label, value string }{
		{"Vendor ID", info.VendorID},
		{"Product ID", info.ProductID},
		{"Serial", info.SerialNumber},
		{"Product", info.Product},
	} {
		if field.value != "" {
			fmt.Fprintf(w, "  %-12s %s\n", field.label+":", field.value)
		}
	}
}
