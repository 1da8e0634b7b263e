package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dwikikusuma/storefront/pkg/logger"
)

type options struct {
	server  string
	session string
	timeout time.Duration
	json    bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Drive storefront carts and checkout over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			log := logger.New(logger.Options{Service: "cartctl", Level: level, Format: "text", Output: cmd.ErrOrStderr()})

			if opts.session == "" {
				opts.session = uuid.NewString()
				log.Warn("no session given, using a new one", "session_id", opts.session)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.server, "server", envOr("CARTCTL_SERVER", "http://localhost:8080"), "storefront API base URL")
	pf.StringVarP(&opts.session, "session", "s", os.Getenv("CARTCTL_SESSION"), "cart session id")
	pf.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	pf.BoolVar(&opts.json, "json", false, "print raw JSON")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newCartCmd(opts), newCheckoutCmd(opts))
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
