// Package domain defines the core data model shared by the routing,
// health monitoring, and metrics subsystems of modelmux.
package domain

import (
	"slices"
	"time"
)

// ProviderKind identifies the upstream vendor API family.
type ProviderKind string

// Known provider kinds.
const (
	KindAnthropic ProviderKind = "anthropic"
	KindOpenAI    ProviderKind = "openai"
	KindAzure     ProviderKind = "azure"
	KindBedrock   ProviderKind = "bedrock"
	KindVertex    ProviderKind = "vertex"
	KindOllama    ProviderKind = "ollama"
)

// ExecutionKind categorizes the caller issuing a routed request.
type ExecutionKind string

// Execution kinds.
const (
	ExecAgent     ExecutionKind = "agent"
	ExecTool      ExecutionKind = "tool"
	ExecWorkflow  ExecutionKind = "workflow"
	ExecKnowledge ExecutionKind = "knowledge"
)

// ProviderStatus is the lifecycle status of a provider record.
type ProviderStatus string

// Lifecycle statuses.
const (
	StatusActive   ProviderStatus = "active"
	StatusError    ProviderStatus = "error"
	StatusDisabled ProviderStatus = "disabled"
)

// HealthState classifies the outcome of health monitoring.
type HealthState string

// Health states.
const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// Priority bounds for providers and routing rules.
const (
	MinPriority = 1
	MaxPriority = 1000
)

// ProviderConfig holds the connection configuration for an upstream endpoint.
// Credentials are carried opaquely; this subsystem never performs the model
// call itself, only connectivity probes.
type ProviderConfig struct {
	BaseURL      string   `yaml:"base_url" json:"base_url"`
	APIKey       string   `yaml:"api_key" json:"-"`
	TimeoutMS    int      `yaml:"timeout_ms" json:"timeout_ms"`
	MaxRetries   int      `yaml:"max_retries" json:"max_retries"`
	RateLimitRPM int      `yaml:"rate_limit_rpm" json:"rate_limit_rpm"`
	Models       []string `yaml:"models" json:"models"`
}

// SupportsModel reports whether the provider advertises the given model.
// An empty model list means the provider accepts any model.
func (c ProviderConfig) SupportsModel(model string) bool {
	if len(c.Models) == 0 {
		return true
	}
	return slices.Contains(c.Models, model)
}

// HealthSnapshot is the last persisted health observation for a provider.
type HealthSnapshot struct {
	Status         HealthState `json:"status"`
	ResponseTimeMS float64     `json:"response_time_ms"`
	ErrorRate      float64     `json:"error_rate"`
	Uptime         float64     `json:"uptime"`
	CheckedAt      time.Time   `json:"checked_at"`
}

// Provider is a configured upstream model endpoint belonging to an
// organization. Owned by the provider store; the health monitor mutates
// Status and LastHealth, rule administration mutates Rules.
type Provider struct {
	ID             string          `json:"id"`
	OrgID          string          `json:"org_id"`
	Name           string          `json:"name"`
	Kind           ProviderKind    `json:"kind"`
	Config         ProviderConfig  `json:"config"`
	Priority       int             `json:"priority"`
	CostMultiplier float64         `json:"cost_multiplier"`
	Active         bool            `json:"active"`
	Status         ProviderStatus  `json:"status"`
	Rules          []RoutingRule   `json:"rules,omitempty"`
	LastHealth     *HealthSnapshot `json:"last_health,omitempty"`
}

// Routable reports whether the provider is eligible for selection at all:
// the active flag is set and the lifecycle status is active.
func (p *Provider) Routable() bool {
	return p.Active && p.Status == StatusActive
}
