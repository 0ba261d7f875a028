// ABOUTME: Entry point for the modx-proxy MCP server
// ABOUTME: Bridges MODX manager processors to an MCP host over stdio

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/azernov/modx-proxy/internal/audit"
	"github.com/azernov/modx-proxy/internal/config"
	"github.com/azernov/modx-proxy/internal/mcp"
	"github.com/azernov/modx-proxy/internal/modx"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                      _
  _ __ ___   ___   __| |_  __     _ __  _ __ _____  ___   _
 | '_ ' _ \ / _ \ / _' \ \/ /____| '_ \| '__/ _ \ \/ / | | |
 | | | | | | (_) | (_| |>  <_____| |_) | | | (_) >  <| |_| |
 |_| |_| |_|\___/ \__,_/_/\_\    | .__/|_|  \___/_/\_\\__, |
                                 |_|                  |___/
`

const starterConfig = `# modx-proxy configuration
# Every value can also come from the environment (MODX_* variables win).

modx:
  base_url: "${MODX_BASE_URL}"
  # connector_path: /connectors/
  # admin_path: /manager/
  # mcp_connector_path: /assets/components/modxmcp/connector.php
  username: "${MODX_USERNAME}"
  password: "${MODX_PASSWORD}"
  # timeout: 30s

logging:
  level: info
  format: text

# audit:
#   path: ~/.local/share/modx-proxy/audit.db
`

// getConfigPath returns the path to the proxy config file.
// Priority: MODX_PROXY_CONFIG env var > XDG_CONFIG_HOME/modx-proxy/config.yaml > ~/.config/modx-proxy/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("MODX_PROXY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "modx-proxy", "config.yaml")
}

func main() {
	// .env next to the working directory, if present. MCP hosts usually set
	// env blocks directly, so a missing file is the normal case.
	_ = godotenv.Load()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "check":
		err = runCheck(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Usage: modx-proxy <command>\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  serve    Start the MCP server on stdio (default)\n")
		fmt.Fprintf(os.Stderr, "  init     Write a starter config file\n")
		fmt.Fprintf(os.Stderr, "  check    Probe login and processor discovery, then exit\n")
		fmt.Fprintf(os.Stderr, "  version  Print the version\n")
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// stdout belongs to the transport; everything human-facing goes to stderr.
	logger := setupLogger(cfg.Logging)

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	cyan.Fprint(os.Stderr, banner)
	gray.Fprintf(os.Stderr, "    version: %s\n", version)
	gray.Fprintf(os.Stderr, "    modx:    %s\n\n", cfg.MODX.BaseURL)

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	serverCfg := mcp.Config{
		Client: client,
		Logger: logger,
	}

	if cfg.Audit.Path != "" {
		log, err := audit.New(cfg.Audit.Path, logger)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer log.Close()
		serverCfg.Audit = log
	}

	mcp.Version = version
	server, err := mcp.NewServer(serverCfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	autoLogin(ctx, cfg, client, logger)

	logger.Info("starting modx-proxy",
		"config", configPath,
		"base_url", cfg.MODX.BaseURL,
		"authenticated", client.Authenticated(),
	)

	err = server.Serve(ctx, os.Stdin, os.Stdout)

	// Best effort: leave no orphaned manager session behind.
	client.Logout(context.WithoutCancel(ctx))

	return err
}

// autoLogin performs the initial login when credentials are configured. A
// failure is not fatal: the proxy starts unauthenticated and lists only the
// session-info tool.
func autoLogin(ctx context.Context, cfg *config.Config, client *modx.Client, logger *slog.Logger) {
	if cfg.MODX.Username == "" || cfg.MODX.Password == "" {
		logger.Warn("no MODX credentials configured, starting unauthenticated")
		return
	}

	result := client.Login(ctx, cfg.MODX.Username, cfg.MODX.Password, "")
	if !result.Success {
		logger.Warn("auto-login failed", "message", result.Message)
	}
}

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(starterConfig), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("  ✓ ")
	fmt.Printf("Wrote %s\n", configPath)
	return nil
}

func runCheck(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	result := client.Login(ctx, cfg.MODX.Username, cfg.MODX.Password, "")
	if !result.Success {
		red.Print("  ✗ ")
		fmt.Printf("Login failed: %s\n", result.Message)
		return fmt.Errorf("login failed")
	}
	green.Print("  ✓ ")
	fmt.Printf("Logged in to %s\n", cfg.MODX.BaseURL)

	list, err := client.ListProcessors(ctx, false)
	if err != nil {
		red.Print("  ✗ ")
		fmt.Printf("Discovery failed: %v\n", err)
		client.Logout(ctx)
		return fmt.Errorf("discovery failed")
	}
	green.Print("  ✓ ")
	fmt.Printf("Discovered %d processors (generated %s)\n", len(list.Processors), list.GeneratedAt)

	client.Logout(ctx)
	return nil
}

func newClient(cfg *config.Config, logger *slog.Logger) (*modx.Client, error) {
	client, err := modx.NewClient(modx.Config{
		BaseURL:          cfg.MODX.BaseURL,
		ConnectorPath:    cfg.MODX.ConnectorPath,
		AdminPath:        cfg.MODX.AdminPath,
		MCPConnectorPath: cfg.MODX.MCPConnectorPath,
		Timeout:          cfg.MODX.Timeout,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MODX client: %w", err)
	}
	return client, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
