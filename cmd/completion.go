/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/config"
	"github.com/allbin/go-seriallink/internal/logging"
)

type completionFunc func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// completePortAt completes a port path for the positional argument at one of
// positions.
func completePortAt(positions ...int) completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		for _, p := range positions {
			if len(args) == p {
				return portCompletions(v.GetString(config.KeyTransport), toComplete), cobra.ShellCompDirectiveNoFileComp
			}
		}
		return nil, cobra.ShellCompDirectiveDefault
	}
}

func portCompletions(transport, prefix string) []string {
	ports, err := listPorts(transport)
	if err != nil {
		return nil
	}
	var out []string
	for _, p := range ports {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

func completeValues[T fmt.Stringer](values []T) completionFunc {
	names := make([]string, len(values))
	for i, val := range values {
		names[i] = val.String()
	}
	return completeStrings(names...)
}

func completeStrings(names ...string) completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

func registerCompletions(cmd *cobra.Command) error {
	funcs := map[string]completionFunc{
		config.KeyTransport:   completeStrings(config.TransportTermios, config.TransportBugst, config.TransportLoopback),
		config.KeyBaud:        completeValues(seriallink.BaudRates()),
		config.KeyDataBits:    completeValues(seriallink.DataBitsValues()),
		config.KeyStopBits:    completeValues(seriallink.StopBitsValues()),
		config.KeyParity:      completeValues(seriallink.ParityValues()),
		config.KeyFlowControl: completeValues(seriallink.FlowControlValues()),
		config.KeyLogLevel:    completeStrings("debug", "info", "warn", "error"),
		config.KeyLogFormat:   completeStrings(logging.FormatAuto, logging.FormatConsole, logging.FormatJSON),
	}
	for name, fn := range funcs {
		if err := cmd.RegisterFlagCompletionFunc(name, fn); err != nil {
			return err
		}
	}
	return nil
}
