package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultHost    = "http://localhost:9080"
	defaultTimeout = 30 * time.Second
)

func newRootCmd() *cobra.Command {
	c := &client{http: &http.Client{}}
	root := &cobra.Command{
		Use:   "bracketctl",
		Short: "A CLI for the bracketry schedule service",
		Long: `A command-line interface for generating schedules, recording results
and reading standings from a running bracketry server. Request files may
be JSON or YAML.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.out = cmd.OutOrStdout()
			c.in = cmd.InOrStdin()
		},
	}
	root.PersistentFlags().StringVar(&c.host, "host", defaultHost, "The base URL of the server")
	root.PersistentFlags().DurationVar(&c.http.Timeout, "timeout", defaultTimeout, "HTTP request timeout")

	root.AddCommand(
		healthCmd(c),
		generateCmd(c),
		seasonCmd(c),
		matchesCmd(c),
		recordCmd(c),
		advanceCmd(c),
		standingsCmd(c),
		promotionsCmd(c),
	)
	return root
}
