package tunnel

import (
	"strconv"
	"strings"
)

// SnapName is the managed snap. Every instance name is derived from it.
const SnapName = "charmed-cloudflared"

// TunnelTokenConfigKey is the local config key holding the secret reference.
const TunnelTokenConfigKey = "tunnel-token"

// TunnelTokenSecretField is the field inside a resolved secret that carries
// the actual token value.
const TunnelTokenSecretField = "tunnel-token"

const (
	// configMetricsPort is fixed and below the link port range so it can
	// never collide with a link-derived port.
	configMetricsPort   = 15299
	linkMetricsPortBase = 15300

	// maxLinkID bounds the link identifier space. Ids are assigned by the
	// environment and must stay small; anything above this is an invariant
	// violation, not user input.
	maxLinkID = 999999
)

// ConfigInstanceName returns the name of the single config-origin instance.
func ConfigInstanceName() string {
	return SnapName + "_config0"
}

// LinkInstanceName returns the instance name for a peer link.
func LinkInstanceName(linkID int) string {
	return SnapName + "_rel" + strconv.Itoa(linkID)
}

// LinkMetricsPort returns the metrics port for a peer link instance. The
// mapping is injective for all ids below the ceiling.
func LinkMetricsPort(linkID int) int {
	return linkMetricsPortBase + linkID
}

// IsManagedInstance reports whether name belongs to this agent.
func IsManagedInstance(name string) bool {
	return strings.HasPrefix(name, SnapName)
}
