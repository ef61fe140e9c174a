// Package tunnel implements the core reconciliation logic of tunneld: it
// merges the local config token and peer link records into a desired set of
// cloudflared tunnel instances, diffs that set against the instances the snap
// supervisor reports as running, and converges via idempotent
// install/remove/configure effects.
package tunnel
