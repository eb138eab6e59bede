/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/tui/styles"
)

// settingsCmd represents the settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the accepted values for every link setting",
	Long: `Show the values each link setting accepts and the current selection.

Unrecognized values given on the command line, in the environment or in the
config file fall back to the defaults shown here.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printSettings(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func joinValues[T fmt.Stringer](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.String()
	}
	return strings.Join(names, ", ")
}

func printSettings(w io.Writer) {
	rows := []struct {
		name, current, values, fallback string
	}{
		{"baud", settings.BaudRate.String(), joinValues(seriallink.BaudRates()), seriallink.DefaultBaudRate.String()},
		{"data-bits", settings.DataBits.String(), joinValues(seriallink.DataBitsValues()), seriallink.DefaultDataBits.String()},
		{"stop-bits", settings.StopBits.String(), joinValues(seriallink.StopBitsValues()), seriallink.DefaultStopBits.String()},
		{"parity", settings.Parity.String(), joinValues(seriallink.ParityValues()), seriallink.DefaultParity.String()},
		{"flow-control", settings.FlowControl.String(), joinValues(seriallink.FlowControlValues()), seriallink.DefaultFlowControl.String()},
	}

	for _, r := range rows {
		fmt.Fprintf(w, "%s %s\n", styles.InfoStyle.Render(fmt.Sprintf("%-13s", r.name)), r.current)
		fmt.Fprintf(w, "  values:   %s\n", r.values)
		fmt.Fprintf(w, "  fallback: %s\n", r.fallback)
	}
	fmt.Fprintf(w, "%s %#02x / %#02x\n", styles.InfoStyle.Render(fmt.Sprintf("%-13s", "xon/xoff")), settings.XON, settings.XOFF)
}
