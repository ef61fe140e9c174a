package tunnel

import (
	"sort"

	"tunneld/pkg/types"
)

// SecretStore dereferences secret references to their field maps.
type SecretStore interface {
	// Resolve returns the content of the secret identified by ref.
	Resolve(ref string) (map[string]string, error)
}

// PeerSource lists the current peer link records.
type PeerSource interface {
	List() ([]types.PeerRecord, error)
}

// LocalConfig exposes the static agent configuration to the resolver.
type LocalConfig interface {
	// Get returns the value for key and whether it is set.
	Get(key string) (string, bool)
}

// StaticConfig is a map-backed LocalConfig.
type StaticConfig map[string]string

// Get implements LocalConfig.
func (c StaticConfig) Get(key string) (string, bool) {
	v, ok := c[key]
	return v, ok && v != ""
}

// DesiredStateSet maps instance names to their endpoint specs for one pass.
type DesiredStateSet map[string]types.EndpointSpec

// Names returns the instance names sorted for deterministic iteration.
func (s DesiredStateSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver merges the local config token reference and the peer records into
// one canonical desired-state set. It holds no state between passes.
type Resolver struct {
	config  LocalConfig
	secrets SecretStore
	peers   PeerSource
}

// NewResolver constructs a Resolver from its collaborators.
func NewResolver(config LocalConfig, secrets SecretStore, peers PeerSource) *Resolver {
	return &Resolver{config: config, secrets: secrets, peers: peers}
}

// Resolve builds the desired-state set for this pass. The two sources are
// mutually exclusive: a token in the local config and any peer record at the
// same time fails the whole pass, no partial merge.
func (r *Resolver) Resolve() (DesiredStateSet, error) {
	tokenRef, hasToken := r.config.Get(TunnelTokenConfigKey)
	records, err := r.peers.List()
	if err != nil {
		return nil, errInvalidRecord(err, "reading peer link records")
	}
	if hasToken && len(records) > 0 {
		return nil, conflictError{}
	}
	if hasToken {
		return r.resolveConfigSource(tokenRef)
	}
	return r.resolveLinkSource(records)
}

// resolveConfigSource produces the single config-origin instance. The config
// source never carries a nameserver override.
func (r *Resolver) resolveConfigSource(tokenRef string) (DesiredStateSet, error) {
	content, err := r.secrets.Resolve(tokenRef)
	if err != nil {
		return nil, errInvalidRecord(err, "invalid %s config", TunnelTokenConfigKey)
	}
	token, ok := content[TunnelTokenSecretField]
	if !ok || token == "" {
		return nil, errInvalidRecord(nil, "invalid %s config: secret %q has no %q field",
			TunnelTokenConfigKey, tokenRef, TunnelTokenSecretField)
	}
	name := ConfigInstanceName()
	return DesiredStateSet{
		name: {
			InstanceName: name,
			TunnelToken:  token,
			MetricsPort:  configMetricsPort,
		},
	}, nil
}

// resolveLinkSource produces one instance per resolvable peer record,
// processed in ascending link id order. Records without a remote party or
// without a published token are valid transient state and are skipped.
func (r *Resolver) resolveLinkSource(records []types.PeerRecord) (DesiredStateSet, error) {
	sorted := make([]types.PeerRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LinkID < sorted[j].LinkID })

	desired := DesiredStateSet{}
	for _, rec := range sorted {
		// The ceiling is checked before any skip: an out-of-range id is an
		// invariant break even on an otherwise skippable record.
		if rec.LinkID > maxLinkID {
			return nil, limitExceededError{linkID: rec.LinkID}
		}
		if !rec.RemotePresent {
			continue
		}
		if rec.TokenSecretRef == "" {
			continue
		}
		content, err := r.secrets.Resolve(rec.TokenSecretRef)
		if err != nil {
			return nil, errInvalidRecord(err, "received invalid data from link %d", rec.LinkID)
		}
		token, ok := content[TunnelTokenSecretField]
		if !ok || token == "" {
			return nil, errInvalidRecord(nil, "received invalid data from link %d: secret %q has no %q field",
				rec.LinkID, rec.TokenSecretRef, TunnelTokenSecretField)
		}
		name := LinkInstanceName(rec.LinkID)
		desired[name] = types.EndpointSpec{
			InstanceName: name,
			TunnelToken:  token,
			Nameserver:   rec.Nameserver,
			MetricsPort:  LinkMetricsPort(rec.LinkID),
		}
	}
	return desired, nil
}
