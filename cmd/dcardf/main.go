// Package main provides the dcardf binary entry point.
// dcardf converts DCA data models and template analyses to RDF Turtle and
// loads the results into a local triple store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anngvu/annotation-meta-analysis/internal/config"
	"github.com/anngvu/annotation-meta-analysis/internal/logger"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "dcardf"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries the settings shared by every subcommand
type app struct {
	configPath     string
	logLevel       string
	ignoreProjects []string

	cfg *config.Config
}

// setup loads the configuration and installs the logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("ignore-project") {
		cfg.IgnoreProjects = ignoreList(a.ignoreProjects)
	}

	logger.Init(logger.NewConsole(logger.ConsoleParams{
		Level:  cfg.LogLevel,
		Output: cmd.ErrOrStderr(),
	}))
	a.cfg = cfg
	logger.Debug("Configuration loaded", "config", a.configPath, "base", cfg.BaseURI, "workers", cfg.Workers)
	return nil
}

// ignoreList turns --ignore-project values into the ignore set; "none"
// clears everything named before it
func ignoreList(values []string) []string {
	out := []string{}
	for _, v := range values {
		if strings.EqualFold(v, "none") {
			out = out[:0]
			continue
		}
		out = append(out, v)
	}
	return out
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Convert DCA data models to RDF",
		Long: `dcardf converts DCA data models (JSON-LD) and template analyses (CSV)
into deterministic RDF Turtle documents, one per project.

Typical run:
  dcardf fetch      download data models and template configs
  dcardf extract    classify templates into <Project>_templates.csv
  dcardf convert    write <Project>_data_model.ttl
  dcardf enrich     write <Project>_enrichment.ttl
  dcardf load       load the generated Turtle into the local store`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringArrayVar(&a.ignoreProjects, "ignore-project", nil,
		`Project to skip (repeatable); "none" clears the configured ignores`)

	cmd.AddCommand(
		convertCmd(a),
		enrichCmd(a),
		extractCmd(a),
		fetchCmd(a),
		loadCmd(a),
		templatesCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}
