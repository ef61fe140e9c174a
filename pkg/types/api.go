package types

// InstanceView summarizes one desired tunnel instance for GET /status.
type InstanceView struct {
	// Snap instance name.
	// example: charmed-cloudflared_rel3
	Name string `json:"name" example:"charmed-cloudflared_rel3"`
	// Metrics port served by this instance.
	// example: 15303
	MetricsPort int `json:"metrics_port" example:"15303"`
	// Nameserver override, empty when the host default is inherited.
	// example: 1.1.1.1
	Nameserver string `json:"nameserver,omitempty" example:"1.1.1.1"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Outcome of the last reconcile pass: waiting, blocked or active.
	// example: active
	Status Status `json:"status" example:"active"`
	// Operator-facing message, set when the pass is blocked.
	Message string `json:"message,omitempty"`
	// Unix time of the last completed pass, 0 before the first pass.
	// example: 1700000000
	LastPassUnix int64 `json:"last_pass_unix" example:"1700000000"`
	// Desired instances from the last successful resolution.
	Instances []InstanceView `json:"instances"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: reconcile failed
	Error string `json:"error" example:"reconcile failed"`
	// HTTP status code.
	// example: 500
	Code int `json:"code" example:"500"`
}
