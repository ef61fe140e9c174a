package types

// EndpointSpec describes one desired cloudflared tunnel instance. Specs are
// recomputed from scratch on every reconcile pass and never mutated in place.
type EndpointSpec struct {
	// Stable snap instance name, e.g. charmed-cloudflared_rel3.
	InstanceName string `json:"instance_name"`
	// Opaque tunnel secret handed to cloudflared. Never empty in a valid spec.
	TunnelToken string `json:"-"`
	// Optional nameserver override. Empty means "inherit the host resolver".
	Nameserver string `json:"nameserver,omitempty"`
	// Metrics port derived from the instance identity, unique per spec set.
	MetricsPort int `json:"metrics_port"`
}

// PeerRecord is one inbound record from a cloudflared-route peer link.
type PeerRecord struct {
	// Link identifier, a small non-negative integer unique per link.
	LinkID int `yaml:"id" json:"id"`
	// Whether the remote party is still attached to the link. Records without
	// a remote are skipped during resolution.
	RemotePresent bool `yaml:"remote" json:"remote"`
	// Reference into the secret store holding the tunnel token. May be empty
	// while the peer has not published a token yet.
	TokenSecretRef string `yaml:"tunnel_token_secret_id" json:"tunnel_token_secret_id"`
	// Optional nameserver override supplied by the peer.
	Nameserver string `yaml:"nameserver" json:"nameserver"`
}

// Status is the outward-facing outcome of a reconcile pass.
type Status string

const (
	// StatusWaiting means no endpoints are configured yet.
	StatusWaiting Status = "waiting"
	// StatusBlocked means the desired state could not be resolved; the
	// operator has to fix the configuration or the integration data.
	StatusBlocked Status = "blocked"
	// StatusActive means all effects applied successfully.
	StatusActive Status = "active"
)
