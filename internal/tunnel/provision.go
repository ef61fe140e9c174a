package tunnel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"tunneld/internal/common/fsutil"
	"tunneld/pkg/types"
)

// Provisioner prepares host prerequisites for one instance before its config
// is applied.
type Provisioner interface {
	Provision(spec types.EndpointSpec) error
}

// HostProvisioner writes per-instance resolver configuration and syncs the
// trusted CA bundle into the instance data directory. All writes are
// write-if-changed so repeated passes leave untouched files alone.
type HostProvisioner struct {
	// DataRoot is the snap data root, /var/snap on a real host.
	DataRoot string
	// HostResolvConf is snapshotted when a spec has no nameserver override.
	HostResolvConf string
	// CABundle is the host trust bundle to sync; empty disables the sync.
	CABundle string

	Log zerolog.Logger
}

// Provision implements Provisioner.
func (p *HostProvisioner) Provision(spec types.EndpointSpec) error {
	if err := p.writeResolvConf(spec); err != nil {
		return err
	}
	return p.syncCABundle(spec.InstanceName)
}

func (p *HostProvisioner) writeResolvConf(spec types.EndpointSpec) error {
	var content []byte
	if spec.Nameserver != "" {
		content = []byte("nameserver " + spec.Nameserver + "\n")
	} else {
		host, err := os.ReadFile(p.HostResolvConf)
		if err != nil {
			return fmt.Errorf("reading host resolv.conf: %w", err)
		}
		content = host
	}
	target := filepath.Join(p.DataRoot, spec.InstanceName, "current", "etc", "resolv.conf")
	changed, err := fsutil.WriteFileIfChanged(target, content, 0o644)
	if err != nil {
		return fmt.Errorf("updating resolv.conf for %s: %w", spec.InstanceName, err)
	}
	if changed {
		p.Log.Info().Str("instance", spec.InstanceName).Msg("updated instance resolv.conf")
	}
	return nil
}

func (p *HostProvisioner) syncCABundle(instance string) error {
	if p.CABundle == "" {
		return nil
	}
	bundle, err := os.ReadFile(p.CABundle)
	if err != nil {
		return fmt.Errorf("reading CA bundle: %w", err)
	}
	target := filepath.Join(p.DataRoot, instance, "current", "etc", "ssl", "certs", "ca-certificates.crt")
	changed, err := fsutil.WriteFileIfChanged(target, bundle, 0o644)
	if err != nil {
		return fmt.Errorf("syncing CA bundle for %s: %w", instance, err)
	}
	if changed {
		p.Log.Info().Str("instance", instance).Msg("synced instance CA bundle")
	}
	return nil
}
