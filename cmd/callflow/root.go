package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/localrivet/callflow/client"
	"github.com/localrivet/callflow/config"
	"github.com/localrivet/callflow/logx"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	url        string
	transport  string
	timeout    time.Duration
	token      string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "callflow",
		Short: "Call tools on a remote tool-serving endpoint",
		Long: `callflow connects to a tool-serving endpoint over WebSocket or HTTP,
lists the tools it offers and invokes them.

Settings come from a YAML file (--config, ./callflow.yaml or
~/.config/callflow/config.yaml), a .env file and CALLFLOW_* variables.
Flags override all of them.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to a config file")
	pf.StringVar(&flags.url, "url", "", "Endpoint URL (ws://, wss://, http:// or https://)")
	pf.StringVar(&flags.transport, "transport", "", "Transport: websocket or http (inferred from the URL)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Per-request timeout (default 30s)")
	pf.StringVar(&flags.token, "token", "", "Bearer token sent with every request")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug|info|warn|error)")

	root.AddCommand(newToolsCmd(flags))
	root.AddCommand(newCallCmd(flags))
	return root
}

// connect resolves the configuration, applies flag overrides and opens a
// connected client. The caller must Disconnect it.
func (f *globalFlags) connect(ctx context.Context) (*client.Client, error) {
	cfg, err := config.Resolve(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.url != "" {
		cfg.URL = f.url
	}
	if f.transport != "" {
		cfg.Transport = f.transport
	}
	if f.timeout != 0 {
		cfg.Timeout = config.Duration(f.timeout)
	}
	if f.token != "" {
		cfg.Auth = config.AuthConfig{Type: "bearer", Credentials: f.token}
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("no endpoint URL: pass --url, set %s or add url to a config file", config.EnvURL)
	}

	logger := logx.NewLogger(os.Stderr, logx.ParseLevel(cfg.LogLevel), true)
	for _, w := range cfg.Warnings() {
		logger.Warn("%s", w)
	}

	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}
	c := client.New(client.WithLogger(logger))
	if err := c.Connect(ctx, endpoint); err != nil {
		return nil, err
	}
	return c, nil
}
