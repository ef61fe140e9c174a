package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"tunneld/internal/httpapi"
	"tunneld/internal/peers"
	"tunneld/internal/secrets"
	"tunneld/internal/snapd"
	"tunneld/internal/tunnel"
)

// fakeSnapHost emulates the snap CLI surface the agent drives. It keeps the
// installed instances and their configs in memory and implements
// snapd.CommandRunner, so everything above it (snapd parsing included) runs
// for real.
type fakeSnapHost struct {
	mu       sync.Mutex
	snaps    map[string]map[string]string
	installs int
	removes  int
	sets     int
	restarts int
}

func newFakeSnapHost(preinstalled ...string) *fakeSnapHost {
	h := &fakeSnapHost{snaps: map[string]map[string]string{}}
	for _, name := range preinstalled {
		h.snaps[name] = map[string]string{}
	}
	return h
}

func (h *fakeSnapHost) runner(ctx context.Context, name string, args ...string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if name != "snap" || len(args) == 0 {
		return nil, fmt.Errorf("unexpected command %s %v", name, args)
	}
	switch args[0] {
	case "set":
		if args[1] == "system" {
			return nil, nil
		}
		instance := args[1]
		cfg, ok := h.snaps[instance]
		if !ok {
			return nil, fmt.Errorf("snap %q is not installed", instance)
		}
		for _, kv := range args[2:] {
			k, v, found := strings.Cut(kv, "=")
			if !found {
				return nil, fmt.Errorf("malformed assignment %q", kv)
			}
			cfg[k] = v
		}
		h.sets++
		return nil, nil
	case "get":
		instance := args[1]
		cfg, ok := h.snaps[instance]
		if !ok || len(cfg) == 0 {
			// real snapd fails on snaps that were never configured
			return nil, fmt.Errorf("snap %q has no configuration", instance)
		}
		return json.Marshal(cfg)
	case "list":
		var buf bytes.Buffer
		buf.WriteString("Name  Version  Rev  Tracking  Publisher  Notes\n")
		for instance := range h.snaps {
			fmt.Fprintf(&buf, "%s  2025.8.1  100  -  local  -\n", instance)
		}
		return buf.Bytes(), nil
	case "install":
		// snap install <bundle> --name <instance> --dangerous
		instance := args[len(args)-2]
		h.snaps[instance] = map[string]string{}
		h.installs++
		return nil, nil
	case "remove":
		delete(h.snaps, args[1])
		h.removes++
		return nil, nil
	case "restart":
		if _, ok := h.snaps[args[1]]; !ok {
			return nil, fmt.Errorf("snap %q is not installed", args[1])
		}
		h.restarts++
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected snap subcommand %q", args[0])
}

func (h *fakeSnapHost) effectCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.installs + h.removes + h.sets + h.restarts
}

func (h *fakeSnapHost) config(instance string) map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	cfg := map[string]string{}
	for k, v := range h.snaps[instance] {
		cfg[k] = v
	}
	return cfg
}

// agentFixture is a fully wired agent: real resolver, reconciler, snapd client
// and HTTP mux, with file-backed secrets and peer links under a temp dir.
type agentFixture struct {
	srv        *httptest.Server
	rec        *tunnel.Reconciler
	host       *fakeSnapHost
	secretsDir string
	linksFile  string
	dataRoot   string
}

func newAgent(t *testing.T, host *fakeSnapHost, tokenSecretID string) *agentFixture {
	t.Helper()
	dir := t.TempDir()
	secretsDir := filepath.Join(dir, "secrets")
	if err := os.MkdirAll(secretsDir, 0o755); err != nil {
		t.Fatalf("mkdir secrets: %v", err)
	}
	linksFile := filepath.Join(dir, "links.yaml")
	dataRoot := filepath.Join(dir, "snap-data")
	hostResolv := filepath.Join(dir, "resolv.conf")
	if err := os.WriteFile(hostResolv, []byte("nameserver 10.0.0.53\n"), 0o644); err != nil {
		t.Fatalf("write host resolv.conf: %v", err)
	}

	log := zerolog.Nop()
	rec := tunnel.New(tunnel.Config{
		LocalConfig: tunnel.StaticConfig{tunnel.TunnelTokenConfigKey: tokenSecretID},
		Secrets:     secrets.NewStore(secretsDir),
		Peers:       peers.NewFileSource(linksFile),
		Supervisor:  snapd.New(host.runner, filepath.Join(dir, "bundle.snap"), log),
		Provisioner: &tunnel.HostProvisioner{
			DataRoot:       dataRoot,
			HostResolvConf: hostResolv,
			Log:            log,
		},
		Log: log,
	})
	srv := httptest.NewServer(httpapi.NewMux(rec))
	t.Cleanup(srv.Close)
	return &agentFixture{
		srv:        srv,
		rec:        rec,
		host:       host,
		secretsDir: secretsDir,
		linksFile:  linksFile,
		dataRoot:   dataRoot,
	}
}

func (f *agentFixture) writeSecret(t *testing.T, ref string, fields map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	for k, v := range fields {
		fmt.Fprintf(&buf, "%s: %q\n", k, v)
	}
	if err := os.WriteFile(filepath.Join(f.secretsDir, ref+".yaml"), buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write secret %s: %v", ref, err)
	}
}

func (f *agentFixture) writeLinks(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(f.linksFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write links: %v", err)
	}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPost(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
