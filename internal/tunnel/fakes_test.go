package tunnel

import (
	"context"
	"fmt"

	"tunneld/pkg/types"
)

// fakeSupervisor keeps installed instances and their config in a map, the
// same shape the real snapd reports.
type fakeSupervisor struct {
	snaps map[string]map[string]string

	installs   []string
	removes    []string
	configures []string
	restarts   []string

	installErr   error
	removeErr    error
	restartErr   error
	listErr      error
	getConfigErr error
}

func newFakeSupervisor() *fakeSupervisor {
	return &fakeSupervisor{snaps: map[string]map[string]string{}}
}

func (f *fakeSupervisor) ListInstances(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var names []string
	for name := range f.snaps {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeSupervisor) Install(ctx context.Context, name string) error {
	if f.installErr != nil {
		return f.installErr
	}
	f.installs = append(f.installs, name)
	f.snaps[name] = map[string]string{}
	return nil
}

func (f *fakeSupervisor) Remove(ctx context.Context, name string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removes = append(f.removes, name)
	delete(f.snaps, name)
	return nil
}

func (f *fakeSupervisor) GetConfig(ctx context.Context, name string) (map[string]string, error) {
	if f.getConfigErr != nil {
		return nil, f.getConfigErr
	}
	return f.snaps[name], nil
}

func (f *fakeSupervisor) SetConfig(ctx context.Context, name string, values map[string]string) error {
	f.configures = append(f.configures, name)
	cfg := f.snaps[name]
	if cfg == nil {
		cfg = map[string]string{}
		f.snaps[name] = cfg
	}
	for k, v := range values {
		cfg[k] = v
	}
	return nil
}

func (f *fakeSupervisor) Restart(ctx context.Context, name string) error {
	if f.restartErr != nil {
		return f.restartErr
	}
	f.restarts = append(f.restarts, name)
	return nil
}

func (f *fakeSupervisor) effectCount() int {
	return len(f.installs) + len(f.removes) + len(f.configures) + len(f.restarts)
}

// fakeSecrets resolves references from a map.
type fakeSecrets map[string]map[string]string

func (f fakeSecrets) Resolve(ref string) (map[string]string, error) {
	content, ok := f[ref]
	if !ok {
		return nil, fmt.Errorf("secret not found: %s", ref)
	}
	return content, nil
}

// fakePeers lists a fixed set of records.
type fakePeers struct {
	records []types.PeerRecord
	err     error
}

func (f *fakePeers) List() ([]types.PeerRecord, error) {
	return f.records, f.err
}

// nopProvisioner records provisioned instances and never fails.
type nopProvisioner struct {
	provisioned []string
	err         error
}

func (p *nopProvisioner) Provision(spec types.EndpointSpec) error {
	if p.err != nil {
		return p.err
	}
	p.provisioned = append(p.provisioned, spec.InstanceName)
	return nil
}
