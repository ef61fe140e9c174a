package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tunneld/internal/config"
	"tunneld/internal/peers"
	"tunneld/internal/secrets"
	"tunneld/internal/snapd"
	"tunneld/internal/tunnel"
)

type rootOptions struct {
	configPath string
	addr       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "tunneld",
		Short:         "Reconciles cloudflared tunnel endpoints against charmed-cloudflared snap instances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultConfig := os.Getenv("TUNNELD_CONFIG")
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "Path to the agent config file (yaml/json/toml)")
	root.PersistentFlags().StringVar(&opts.addr, "addr", "", "HTTP listen address, overrides the config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newReconcileCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig merges the config file with flag overrides and applies defaults.
func loadConfig(opts *rootOptions) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
		if v := os.Getenv("TUNNELD_ADDR"); v != "" {
			cfg.Addr = v
		}
	}
	if cfg.SnapDataRoot == "" {
		cfg.SnapDataRoot = "/var/snap"
	}
	if cfg.HostResolvConf == "" {
		cfg.HostResolvConf = "/etc/resolv.conf"
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 60
	}
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

// buildReconciler wires the reconciler from its host-facing collaborators.
func buildReconciler(cfg config.Config, log zerolog.Logger) (*tunnel.Reconciler, *snapd.Client) {
	sup := snapd.New(nil, cfg.SnapBundle, log)
	rec := tunnel.New(tunnel.Config{
		LocalConfig: tunnel.StaticConfig{tunnel.TunnelTokenConfigKey: cfg.TunnelTokenSecretID},
		Secrets:     secrets.NewStore(cfg.SecretsDir),
		Peers:       peers.NewFileSource(cfg.PeerLinksFile),
		Supervisor:  sup,
		Provisioner: &tunnel.HostProvisioner{
			DataRoot:       cfg.SnapDataRoot,
			HostResolvConf: cfg.HostResolvConf,
			CABundle:       cfg.CABundle,
			Log:            log,
		},
		Log: log,
	})
	return rec, sup
}
