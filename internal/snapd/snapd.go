// Package snapd drives the snap CLI to supervise charmed-cloudflared
// instances. All commands run through an injectable CommandRunner so tests
// can script the host without a real snapd.
package snapd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// CommandRunner executes a command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run is the default CommandRunner backed by os/exec.
func Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w (output: %s)", name, strings.Join(args, " "), err, bytes.TrimSpace(out))
	}
	return out, nil
}

// Client implements the tunnel.Supervisor interface over the snap CLI.
type Client struct {
	run CommandRunner
	// bundle is the local snap file installed for every instance.
	bundle string
	log    zerolog.Logger
}

// New constructs a Client. A nil runner falls back to Run.
func New(runner CommandRunner, bundle string, log zerolog.Logger) *Client {
	if runner == nil {
		runner = Run
	}
	return &Client{run: runner, bundle: bundle, log: log}
}

// EnableParallelInstances turns on the snapd feature flag required to install
// the same snap under multiple instance names. Safe to call repeatedly.
func (c *Client) EnableParallelInstances(ctx context.Context) error {
	_, err := c.run(ctx, "snap", "set", "system", "experimental.parallel-instances=true")
	return err
}

// ListInstances returns the names of all installed snaps.
func (c *Client) ListInstances(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "snap", "list")
	if err != nil {
		return nil, err
	}
	var names []string
	for i, line := range strings.Split(string(out), "\n") {
		if i == 0 {
			// header row
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[0])
	}
	return names, nil
}

// Install installs the bundled snap under the given instance name. The local
// file is unasserted, hence --dangerous.
func (c *Client) Install(ctx context.Context, name string) error {
	_, err := c.run(ctx, "snap", "install", c.bundle, "--name", name, "--dangerous")
	return err
}

// Remove removes the snap instance.
func (c *Client) Remove(ctx context.Context, name string) error {
	_, err := c.run(ctx, "snap", "remove", name)
	return err
}

// GetConfig reads the instance configuration document. A freshly installed
// snap has no configuration at all and snap get fails on it; that case is
// reported as an empty map so the caller simply sees every field as absent.
func (c *Client) GetConfig(ctx context.Context, name string) (map[string]string, error) {
	out, err := c.run(ctx, "snap", "get", name, "-d")
	if err != nil {
		c.log.Debug().Str("instance", name).Err(err).Msg("snap get failed, treating config as empty")
		return map[string]string{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(out))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding snap config of %s: %w", name, err)
	}
	values := make(map[string]string, len(doc))
	for key, val := range doc {
		switch v := val.(type) {
		case string:
			values[key] = v
		case json.Number:
			values[key] = v.String()
		case bool:
			values[key] = strconv.FormatBool(v)
		default:
			// nested documents are not part of the managed config surface
		}
	}
	return values, nil
}

// SetConfig applies the given key/value pairs to the instance.
func (c *Client) SetConfig(ctx context.Context, name string, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := []string{"set", name}
	for _, key := range keys {
		args = append(args, key+"="+values[key])
	}
	_, err := c.run(ctx, "snap", args...)
	return err
}

// Restart restarts all services of the snap instance.
func (c *Client) Restart(ctx context.Context, name string) error {
	_, err := c.run(ctx, "snap", "restart", name)
	return err
}
