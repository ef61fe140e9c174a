package tunnel

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tunneld/pkg/types"
)

// Supervisor is the process/package manager the reconciler converges against.
// It is the only ground truth for observed state; nothing is cached between
// passes.
type Supervisor interface {
	ListInstances(ctx context.Context) ([]string, error)
	Install(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	GetConfig(ctx context.Context, name string) (map[string]string, error)
	SetConfig(ctx context.Context, name string, values map[string]string) error
	Restart(ctx context.Context, name string) error
}

// Config encapsulates all collaborators for Reconciler construction.
type Config struct {
	LocalConfig LocalConfig
	Secrets     SecretStore
	Peers       PeerSource
	Supervisor  Supervisor
	Provisioner Provisioner
	Log         zerolog.Logger
}

// Result is the outward-facing outcome of one reconcile pass.
type Result struct {
	Status  types.Status
	Message string
}

// Reconciler converges running snap instances toward the resolved desired
// state. Passes are serialized; desired state is recomputed from scratch on
// every pass, which makes the whole algorithm idempotent and safe to re-run
// after a crash mid-pass.
type Reconciler struct {
	resolver *Resolver
	sup      Supervisor
	prov     Provisioner
	log      zerolog.Logger

	passMu sync.Mutex

	mu       sync.RWMutex
	last     Result
	lastPass time.Time
	views    []types.InstanceView
	ready    bool
}

// New constructs a Reconciler from Config.
func New(cfg Config) *Reconciler {
	return &Reconciler{
		resolver: NewResolver(cfg.LocalConfig, cfg.Secrets, cfg.Peers),
		sup:      cfg.Supervisor,
		prov:     cfg.Provisioner,
		log:      cfg.Log,
	}
}

// Reconcile runs one pass. Resolution failures from operator-correctable
// input surface as a blocked Result, not an error. A non-nil error means the
// pass failed fatally (identifier space exhausted, or an effect call failed);
// effects already applied earlier in the pass are left as-is.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	start := time.Now()
	res, desired, err := r.pass(ctx)
	passDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		passesTotal.WithLabelValues("fatal").Inc()
		return Result{}, err
	}
	passesTotal.WithLabelValues(string(res.Status)).Inc()

	views := make([]types.InstanceView, 0, len(desired))
	for _, name := range desired.Names() {
		spec := desired[name]
		views = append(views, types.InstanceView{
			Name:        spec.InstanceName,
			MetricsPort: spec.MetricsPort,
			Nameserver:  spec.Nameserver,
		})
	}

	r.mu.Lock()
	r.last = res
	r.lastPass = time.Now()
	r.views = views
	r.ready = true
	r.mu.Unlock()
	return res, nil
}

// pass contains the actual convergence algorithm. It returns the desired set
// alongside the result so Reconcile can publish a consistent status view.
func (r *Reconciler) pass(ctx context.Context) (Result, DesiredStateSet, error) {
	desired, err := r.resolver.Resolve()
	if err != nil {
		if IsConflict(err) || IsInvalidRecord(err) {
			// Operator-correctable. Leave installed instances untouched: a
			// transient config error elsewhere must not tear down working
			// tunnels.
			r.log.Warn().Err(err).Msg("cannot resolve desired state")
			return Result{Status: types.StatusBlocked, Message: err.Error()}, nil, nil
		}
		return Result{}, nil, err
	}
	desiredInstances.Set(float64(len(desired)))

	observed, err := r.sup.ListInstances(ctx)
	if err != nil {
		return Result{}, nil, fmt.Errorf("listing instances: %w", err)
	}
	running := make(map[string]bool, len(observed))
	for _, name := range observed {
		if IsManagedInstance(name) {
			running[name] = true
		}
	}

	// Removals first: frees names and ports before any reuse.
	var toRemove []string
	for name := range running {
		if _, ok := desired[name]; !ok {
			toRemove = append(toRemove, name)
		}
	}
	sort.Strings(toRemove)
	for _, name := range toRemove {
		r.log.Info().Str("instance", name).Msg("removing instance")
		if err := r.sup.Remove(ctx, name); err != nil {
			return Result{}, nil, fmt.Errorf("removing instance %s: %w", name, err)
		}
		effectsTotal.WithLabelValues("remove").Inc()
	}

	for _, name := range desired.Names() {
		if running[name] {
			continue
		}
		r.log.Info().Str("instance", name).Msg("installing instance")
		if err := r.sup.Install(ctx, name); err != nil {
			return Result{}, nil, fmt.Errorf("installing instance %s: %w", name, err)
		}
		effectsTotal.WithLabelValues("install").Inc()
	}

	for _, name := range desired.Names() {
		if err := r.configure(ctx, desired[name]); err != nil {
			return Result{}, nil, err
		}
	}

	if len(desired) == 0 {
		return Result{Status: types.StatusWaiting}, desired, nil
	}
	return Result{Status: types.StatusActive}, desired, nil
}

// configure provisions host prerequisites and refreshes the instance config,
// restarting the daemon only when a field actually changed.
func (r *Reconciler) configure(ctx context.Context, spec types.EndpointSpec) error {
	if err := r.prov.Provision(spec); err != nil {
		return fmt.Errorf("provisioning instance %s: %w", spec.InstanceName, err)
	}
	live, err := r.sup.GetConfig(ctx, spec.InstanceName)
	if err != nil {
		return fmt.Errorf("reading config of instance %s: %w", spec.InstanceName, err)
	}
	fields := ConfigFields(spec)
	if !NeedsUpdate(live, fields) {
		return nil
	}
	r.log.Info().Str("instance", spec.InstanceName).Msg("configuring instance")
	if err := r.sup.SetConfig(ctx, spec.InstanceName, fields); err != nil {
		return fmt.Errorf("configuring instance %s: %w", spec.InstanceName, err)
	}
	effectsTotal.WithLabelValues("configure").Inc()
	if err := r.sup.Restart(ctx, spec.InstanceName); err != nil {
		return fmt.Errorf("restarting instance %s: %w", spec.InstanceName, err)
	}
	effectsTotal.WithLabelValues("restart").Inc()
	return nil
}
