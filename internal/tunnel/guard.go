package tunnel

import (
	"strconv"

	"tunneld/pkg/types"
)

// ConfigFields returns the snap configuration for a spec with every value in
// its canonical string form, matching how snapd reports live config values.
func ConfigFields(spec types.EndpointSpec) map[string]string {
	return map[string]string{
		"tunnel-token": spec.TunnelToken,
		"metrics-port": strconv.Itoa(spec.MetricsPort),
	}
}

// NeedsUpdate reports whether any desired field differs from the live value
// or is absent live. It gates both the config write and the follow-on
// restart: neither happens when nothing changed.
func NeedsUpdate(live, desired map[string]string) bool {
	for key, want := range desired {
		if got, ok := live[key]; !ok || got != want {
			return true
		}
	}
	return false
}
