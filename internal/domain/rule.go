package domain

// SelectionRequest carries everything the routing engine may inspect when
// matching rules: who is asking, what kind of execution it is, and optional
// model / cost / latency requirements.
type SelectionRequest struct {
	OrgID         string
	UserID        string
	ExecutionKind ExecutionKind
	Model         string

	// EstimatedCost is the caller's cost estimate for this request, in the
	// organization's cost units. Zero means unknown.
	EstimatedCost float64

	// MaxResponseTimeMS is the slowest response the caller will tolerate.
	// Zero means no requirement.
	MaxResponseTimeMS float64
}

// Condition is one routing rule predicate. The set of implementations is
// closed: each condition kind is its own type, independently matchable.
type Condition interface {
	// Matches reports whether the request satisfies this condition.
	Matches(req SelectionRequest) bool

	// Kind returns the condition kind for serialization and logging.
	Kind() string
}

// ModelEquals matches requests targeting a specific model.
type ModelEquals struct {
	Model string `json:"model"`
}

// Matches reports whether the request targets the condition's model.
func (c ModelEquals) Matches(req SelectionRequest) bool { return req.Model == c.Model }

// Kind returns "model_equals".
func (c ModelEquals) Kind() string { return "model_equals" }

// ExecutionKindEquals matches requests of a specific execution kind.
type ExecutionKindEquals struct {
	ExecutionKind ExecutionKind `json:"execution_kind"`
}

// Matches reports whether the request's execution kind equals the condition's.
func (c ExecutionKindEquals) Matches(req SelectionRequest) bool {
	return req.ExecutionKind == c.ExecutionKind
}

// Kind returns "execution_kind_equals".
func (c ExecutionKindEquals) Kind() string { return "execution_kind_equals" }

// CostUnder matches requests whose estimated cost does not exceed MaxCost.
// Requests with no cost estimate do not match.
type CostUnder struct {
	MaxCost float64 `json:"max_cost"`
}

// Matches reports whether the request's estimated cost is within MaxCost.
func (c CostUnder) Matches(req SelectionRequest) bool {
	return req.EstimatedCost > 0 && req.EstimatedCost <= c.MaxCost
}

// Kind returns "cost_under".
func (c CostUnder) Kind() string { return "cost_under" }

// LatencyUnder matches requests that tolerate at least MaxResponseTimeMS.
// Requests with no latency requirement do not match.
type LatencyUnder struct {
	MaxResponseTimeMS float64 `json:"max_response_time_ms"`
}

// Matches reports whether the request tolerates the condition's threshold.
func (c LatencyUnder) Matches(req SelectionRequest) bool {
	return req.MaxResponseTimeMS > 0 && req.MaxResponseTimeMS >= c.MaxResponseTimeMS
}

// Kind returns "latency_under".
func (c LatencyUnder) Kind() string { return "latency_under" }

// OrgScope restricts a rule to a single organization.
type OrgScope struct {
	OrgID string `json:"org_id"`
}

// Matches reports whether the request belongs to the scoped organization.
func (c OrgScope) Matches(req SelectionRequest) bool { return req.OrgID == c.OrgID }

// Kind returns "org_scope".
func (c OrgScope) Kind() string { return "org_scope" }

// UserScope restricts a rule to a single user.
type UserScope struct {
	UserID string `json:"user_id"`
}

// Matches reports whether the request was issued by the scoped user.
func (c UserScope) Matches(req SelectionRequest) bool { return req.UserID == c.UserID }

// Kind returns "user_scope".
func (c UserScope) Kind() string { return "user_scope" }

// RoutingRule is a declarative preference attached to a provider: when its
// conditions match a request, the rule steers selection to TargetProviderID,
// falling back through FallbackProviderIDs when the target's circuit is open.
// Rules are read-only at selection time.
type RoutingRule struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Priority            int         `json:"priority"`
	Conditions          []Condition `json:"-"`
	TargetProviderID    string      `json:"target_provider_id"`
	FallbackProviderIDs []string    `json:"fallback_provider_ids,omitempty"`
	Active              bool        `json:"active"`
}

// MatchesRequest reports whether every condition the rule specifies is
// satisfied by the request. A rule with no conditions matches everything.
func (r RoutingRule) MatchesRequest(req SelectionRequest) bool {
	for _, cond := range r.Conditions {
		if !cond.Matches(req) {
			return false
		}
	}
	return true
}
