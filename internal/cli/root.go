// Package cli implements the graphop command line.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/syssam/graphop/app"
	"github.com/syssam/graphop/config"
	"github.com/syssam/graphop/contrib/graphql"
	"github.com/syssam/graphop/logger"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the graphop CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "graphop",
		Short:         "graphop - declarative GraphQL operations",
		Long:          "Serve declaratively defined operations over GraphQL with guards and pre-hooks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to the YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadConfig reads the config file, or the defaults when no file is given.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath == "" {
		return config.Parse(nil)
	}
	return config.Load(opts.ConfigPath)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL endpoint",
		Long: `Open the configured connections, register the built-in operations and
serve them over HTTP until SIGINT or SIGTERM. Changes to the config file
update the log level without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			s, err := NewServer(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.Run(ctx, rootOpts.ConfigPath)
		},
	}
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the GraphQL schema of the registered operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			// Connections are not opened; the schema does not depend on them.
			s, err := newServer(cfg, app.New(app.WithLogger(logger.Nop())))
			if err != nil {
				return err
			}
			schema, err := s.Builder().Schema()
			if err != nil {
				return err
			}
			return graphql.WriteSchema(cmd.OutOrStdout(), schema)
		},
	}
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "graphop %s\n", Version)
			return err
		},
	}
}
