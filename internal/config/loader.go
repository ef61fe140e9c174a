package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the agent.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr                string `json:"addr" yaml:"addr" toml:"addr"`
	TunnelTokenSecretID string `json:"tunnel_token_secret_id" yaml:"tunnel_token_secret_id" toml:"tunnel_token_secret_id"`
	SecretsDir          string `json:"secrets_dir" yaml:"secrets_dir" toml:"secrets_dir"`
	PeerLinksFile       string `json:"peer_links_file" yaml:"peer_links_file" toml:"peer_links_file"`
	SnapBundle          string `json:"snap_bundle" yaml:"snap_bundle" toml:"snap_bundle"`
	SnapDataRoot        string `json:"snap_data_root" yaml:"snap_data_root" toml:"snap_data_root"`
	HostResolvConf      string `json:"host_resolv_conf" yaml:"host_resolv_conf" toml:"host_resolv_conf"`
	CABundle            string `json:"ca_bundle" yaml:"ca_bundle" toml:"ca_bundle"`
	PollIntervalSeconds int    `json:"poll_interval_seconds" yaml:"poll_interval_seconds" toml:"poll_interval_seconds"`
	LogLevel            string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
