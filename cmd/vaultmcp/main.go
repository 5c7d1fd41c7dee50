// Package main is the entry point for the vaultmcp server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warpvault/vaultmcp/internal/config"
	"github.com/warpvault/vaultmcp/internal/gateway"
	"github.com/warpvault/vaultmcp/internal/mcpserver"
	"github.com/warpvault/vaultmcp/internal/orgapi"
	"github.com/warpvault/vaultmcp/internal/security"
	"github.com/warpvault/vaultmcp/internal/tool"
	"github.com/warpvault/vaultmcp/internal/vaultcli"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vaultmcp",
		Short:         "MCP server for password vault and organization management",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), serveCmd(), toolsCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("vaultmcp %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tools over MCP (stdio by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			useHTTP, _ := cmd.Flags().GetBool("http")

			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			srv := mcpserver.New(version, app.registry, app.logger)

			if useHTTP || cfg.Gateway.Enabled {
				return serveHTTP(cmd.Context(), cfg, app, srv)
			}

			// Stdio is the default transport; logs go to stderr so they
			// never corrupt the protocol stream.
			app.logger.Info("serving on stdio",
				"tools", app.registry.Len(),
				"cli_enabled", cfg.CLIEnabled(),
				"api_enabled", cfg.APIEnabled())
			return srv.ServeStdio()
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().Bool("http", false, "Serve over HTTP instead of stdio")
	return cmd
}

func serveHTTP(ctx context.Context, cfg *config.Config, app *appState, srv *mcpserver.Server) error {
	gw := gateway.New(gateway.GatewayConfig{
		Config:  gateway.Config{Addr: cfg.Gateway.Addr},
		Logger:  app.logger,
		Metrics: app.metrics,
		MCP:     srv.HTTPHandler(),
		Ready:   func() bool { return app.registry.Len() > 0 },
	})

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := gw.Start(runCtx); err != nil {
		return err
	}

	<-runCtx.Done()
	return gw.Shutdown(context.Background())
}

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the current configuration exposes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}

			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			for _, name := range app.registry.Names() {
				t, err := app.registry.Get(name)
				if err != nil {
					continue
				}
				fmt.Printf("%-24s %s\n", t.Name(), t.Description())
			}
			fmt.Printf("\n%d tools (cli: %v, api: %v)\n",
				app.registry.Len(), cfg.CLIEnabled(), cfg.APIEnabled())
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Printf("Configuration OK (cli: %v, api: %v)\n",
				cfg.CLIEnabled(), cfg.APIEnabled())
			return nil
		},
	})
	return cmd
}

// loadConfig loads from the given path, then standard locations, then
// falls back to the environment.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	for _, candidate := range configCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return config.Load(candidate)
		}
	}
	return config.FromEnv()
}

// configCandidates returns standard config locations in search order:
// $XDG_CONFIG_HOME/vaultmcp/vaultmcp.yaml, then ./vaultmcp.yaml.
func configCandidates() []string {
	var candidates []string
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "vaultmcp", "vaultmcp.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "vaultmcp", "vaultmcp.yaml"))
	}
	return append(candidates, "vaultmcp.yaml")
}

// appState holds the wired runtime pieces.
type appState struct {
	logger   *slog.Logger
	registry *tool.Registry
	metrics  *gateway.Metrics
	auditOut *os.File
}

func (a *appState) close() {
	if a.auditOut != nil {
		_ = a.auditOut.Close()
	}
}

// buildApp wires redaction, audit, metrics, and both tool surfaces
// from the configuration.
func buildApp(cfg *config.Config) (*appState, error) {
	redactor := security.NewRedactor()
	redactor.AddLiteral(cfg.Vault.Session)
	redactor.AddLiteral(cfg.API.ClientSecret)

	logger := slog.New(security.NewRedactingHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		redactor,
	))

	metrics := gateway.NewMetrics()

	app := &appState{
		logger:   logger,
		registry: tool.NewRegistry(),
		metrics:  metrics,
	}

	auditCfg := security.AuditLoggerConfig{
		Redactor: redactor,
		OnEvent:  metrics.ObserveAudit,
	}
	if cfg.Audit.Path != "" {
		f, err := os.OpenFile(cfg.Audit.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
		app.auditOut = f
		auditCfg.Writer = f
	}
	audit := security.NewAuditLogger(auditCfg)

	if cfg.CLIEnabled() {
		runner := vaultcli.NewRunner(vaultcli.RunnerConfig{
			CLIPath:    cfg.Vault.CLIPath,
			Timeout:    cfg.VaultTimeout(),
			SessionEnv: cfg.Vault.SessionEnv,
			Session:    cfg.Vault.Session,
			Logger:     logger,
			Audit:      audit,
		})
		if err := app.registry.RegisterAll(vaultcli.Tools(runner)...); err != nil {
			return nil, err
		}
	}

	if cfg.APIEnabled() {
		httpClient := &http.Client{Timeout: cfg.APITimeout()}
		tokens := orgapi.NewTokenSource(orgapi.TokenSourceConfig{
			IdentityURL:  cfg.API.IdentityURL,
			ClientID:     cfg.API.ClientID,
			ClientSecret: cfg.API.ClientSecret,
			HTTPClient:   httpClient,
			Redactor:     redactor,
			Audit:        audit,
		})
		client := orgapi.NewClient(orgapi.ClientConfig{
			BaseURL:    cfg.API.BaseURL,
			Tokens:     tokens,
			UserAgent:  "vaultmcp/" + version,
			HTTPClient: httpClient,
			Logger:     logger,
			Audit:      audit,
		})
		if err := app.registry.RegisterAll(orgapi.Tools(client)...); err != nil {
			return nil, err
		}
	}

	return app, nil
}
