package tunnel

import (
	"context"

	"tunneld/pkg/types"
)

// Status builds the operator-facing view of the last completed pass.
func (r *Reconciler) Status() types.StatusResponse {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp := types.StatusResponse{
		Status:    r.last.Status,
		Message:   r.last.Message,
		Instances: make([]types.InstanceView, len(r.views)),
	}
	if r.last.Status == "" {
		resp.Status = types.StatusWaiting
	}
	if !r.lastPass.IsZero() {
		resp.LastPassUnix = r.lastPass.Unix()
	}
	copy(resp.Instances, r.views)
	return resp
}

// Ready reports whether at least one pass has completed without a fatal
// failure.
func (r *Reconciler) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// Trigger runs a pass on behalf of an external caller and returns the
// refreshed status.
func (r *Reconciler) Trigger(ctx context.Context) (types.StatusResponse, error) {
	if _, err := r.Reconcile(ctx); err != nil {
		return types.StatusResponse{}, err
	}
	return r.Status(), nil
}
