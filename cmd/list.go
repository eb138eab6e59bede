/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"

	"github.com/allbin/go-seriallink/internal/config"
	"github.com/allbin/go-seriallink/internal/tui/colors"
	"github.com/allbin/go-seriallink/transport/bugst"
	"github.com/allbin/go-seriallink/transport/termios"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

The termios transport scans /dev for communication-capable devices:
- USB serial adapters (ttyUSB*) and CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- Embedded UARTs (ttyAMA*, ttymxc*, ttySAC*, ttyTHS*, ttyO*)

With --transport bugst the operating system's port list is used instead.
Virtual terminals and pseudo-terminals are excluded from the listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		ports, err := listPorts(settings.Transport)
		if err != nil {
			return fmt.Errorf("failed to list ports: %w", err)
		}

		infos, err := filterPorts(describePorts(ports), filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(infos) == 0 {
			if filter != "" {
				fmt.Fprintf(out, "No serial ports found matching filter: %s\n", filter)
			} else {
				fmt.Fprintln(out, "No serial ports found")
			}
			return nil
		}

		if tableFormat {
			fmt.Fprintf(out, "Found %d serial port(s):\n\n", len(infos))
			fmt.Fprintln(out, renderTable(infos))
			return nil
		}
		for _, info := range infos {
			fmt.Fprintln(out, info.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port kind: usb, standard, embedded, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

func listPorts(transport string) ([]string, error) {
	if transport == config.TransportBugst {
		return bugst.Ports()
	}
	return termios.ListPorts()
}

// describePorts looks up every port. Ports sysfs knows nothing about are
// listed as plain serial ports.
func describePorts(ports []string) []*termios.PortInfo {
	infos := make([]*termios.PortInfo, 0, len(ports))
	for _, port := range ports {
		info, err := termios.GetPortInfo(port)
		if err != nil {
			info = &termios.PortInfo{
				Name:        filepath.Base(port),
				Path:        port,
				Kind:        termios.KindStandard,
				Description: "Serial Port",
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func filterPorts(infos []*termios.PortInfo, filter string) ([]*termios.PortInfo, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	switch filter {
	case "", "all":
		return infos, nil
	case termios.KindUSB.String(), termios.KindStandard.String(), termios.KindEmbedded.String():
	default:
		return nil, fmt.Errorf("unknown filter %q (valid: usb, standard, embedded, all)", filter)
	}

	var filtered []*termios.PortInfo
	for _, info := range infos {
		if info.Kind.String() == filter {
			filtered = append(filtered, info)
		}
	}
	return filtered, nil
}

const (
	columnPort        = "port"
	columnKind        = "kind"
	columnDescription = "description"
	columnUSB         = "usb"
)

func renderTable(infos []*termios.PortInfo) string {
	columns := []table.Column{
		table.NewColumn(columnPort, "Port", 16),
		table.NewColumn(columnKind, "Kind", 10),
		table.NewColumn(columnDescription, "Description", 24),
		table.NewColumn(columnUSB, "USB", 30),
	}

	rows := make([]table.Row, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, table.NewRow(table.RowData{
			columnPort:        info.Path,
			columnKind:        info.Kind.String(),
			columnDescription: info.Description,
			columnUSB:         usbSummary(info),
		}))
	}

	return table.New(columns).
		WithRows(rows).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().Foreground(colors.Text).Align(lipgloss.Left)).
		View()
}

func usbSummary(info *termios.PortInfo) string {
	if info.VendorID == "" {
		return ""
	}
	s := info.VendorID + ":" + info.ProductID
	if info.Product != "" {
		s += " " + info.Product
	}
	if info.SerialNumber != "" {
		s += " #" + info.SerialNumber
	}
	return s
}
