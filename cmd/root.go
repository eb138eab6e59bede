/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/config"
	"github.com/allbin/go-seriallink/internal/logging"
	"github.com/allbin/go-seriallink/transport/bugst"
	"github.com/allbin/go-seriallink/transport/loopback"
	"github.com/allbin/go-seriallink/transport/termios"
)

var (
	cfgFile  string
	v        = viper.New()
	settings config.Settings
	logger   = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seriallink",
	Short: "Flow-controlled serial links from the command line",
	Long: `seriallink opens serial ports through a flow-controlled link.

The link tracks whether the peer is ready to receive, from the CTS line
under hardware flow control or from XON/XOFF bytes under software flow
control, and reports every transition as an event.

Settings come from flags, SERIALLINK_* environment variables and
$HOME/.seriallink.yaml, in that order of precedence. Malformed line
settings fall back to 9600 8N1 without flow control.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(v, cfgFile); err != nil {
			return err
		}
		s, err := config.Resolve(v)
		if err != nil {
			return err
		}
		l, err := logging.New(os.Stderr, s.LogLevel, s.LogFormat)
		if err != nil {
			return err
		}
		settings, logger = s, l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.seriallink.yaml)")
	cobra.CheckErr(config.RegisterFlags(v, rootCmd.PersistentFlags()))
	cobra.CheckErr(registerCompletions(rootCmd))
}

func newTransport(name, port string) seriallink.Transport {
	switch name {
	case config.TransportBugst:
		return bugst.New(port)
	case config.TransportLoopback:
		return loopback.New(port)
	default:
		return termios.New(port)
	}
}

// newLink builds a closed link for port from the resolved settings. The
// transport is returned too, since hosts running their own loop need its
// event channel.
func newLink(port string) (*seriallink.Link, seriallink.Transport, error) {
	t := newTransport(settings.Transport, port)
	link, err := seriallink.New(t, settings.Options(port, logger)...)
	if err != nil {
		return nil, nil, err
	}
	return link, t, nil
}

// interruptible returns a context cancelled by Ctrl+C or SIGTERM.
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
