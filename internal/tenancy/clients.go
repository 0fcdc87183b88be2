// Package tenancy implements the three tenancy data tools: public IP
// inventory, cost summary, and Cloud Guard posture summary.
//
// The tools speak to narrow client interfaces rather than to the OCI SDK
// directly; internal/tenancy/ocicloud provides the real implementations and
// tests run against fakes. Each tool returns a JSON-stable summary document
// that the answer composer consumes verbatim.
package tenancy

import (
	"context"
	"time"
)

// Compartment is a resource-grouping unit within the tenancy. The tenancy
// root is represented as a Compartment too.
type Compartment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IdentityClient is the slice of the identity service the tools need.
type IdentityClient interface {
	// GetTenancy returns the tenancy root as a compartment.
	GetTenancy(ctx context.Context, tenancyID string) (Compartment, error)

	// GetCompartment resolves a single compartment by OCID.
	GetCompartment(ctx context.Context, ocid string) (Compartment, error)

	// ListCompartments returns all ACTIVE compartments in the subtree of
	// tenancyID, excluding the root itself.
	ListCompartments(ctx context.Context, tenancyID string) ([]Compartment, error)
}

// PublicIP is one public IP address in the inventory. Field names match the
// wire shape consumed by the composer.
type PublicIP struct {
	ID               string `json:"id"`
	IPAddress        string `json:"ip_address"`
	CompartmentID    string `json:"compartment_id"`
	Lifetime         string `json:"lifetime"`
	LifecycleState   string `json:"lifecycle_state"`
	AssignedEntityID string `json:"assigned_entity_id,omitempty"`
}

// NetworkClient is the slice of the virtual network service the tools need.
type NetworkClient interface {
	// ListRegionPublicIPs returns every REGION-scope public IP in the given
	// compartment, across all pages.
	ListRegionPublicIPs(ctx context.Context, compartmentID string) ([]PublicIP, error)
}

// UsageQuery describes one summarized-usage request.
type UsageQuery struct {
	TenancyID string

	// TimeStart and TimeEnd are UTC-midnight day boundaries.
	TimeStart time.Time
	TimeEnd   time.Time

	// Granularity is DAILY or MONTHLY.
	Granularity string

	// GroupDimension is the usage API dimension key: "compartmentId",
	// "service", or "resourceId".
	GroupDimension string

	// CompartmentDepth is the subtree depth for compartment grouping;
	// zero omits it.
	CompartmentDepth int

	// FilterCompartmentID, when set, restricts usage to one compartment.
	FilterCompartmentID string
}

// UsageLine is one aggregated usage row. Exactly one of CompartmentID,
// Service, and ResourceID is populated, matching the query's dimension.
type UsageLine struct {
	Amount        float64
	Currency      string
	CompartmentID string
	Service       string
	ResourceID    string
}

// UsageClient is the slice of the usage/billing service the tools need.
type UsageClient interface {
	SummarizedUsage(ctx context.Context, q UsageQuery) ([]UsageLine, error)
}

// Target is one Cloud Guard monitored resource scope.
type Target struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	LifecycleState string `json:"lifecycle_state"`
}

// Problem is one detected Cloud Guard finding.
type Problem struct {
	ID             string   `json:"id"`
	RiskLevel      string   `json:"risk_level"`
	ResourceName   string   `json:"resource_name"`
	ResourceType   string   `json:"resource_type"`
	Region         string   `json:"region"`
	LifecycleState string   `json:"lifecycle_state"`
	Labels         []string `json:"labels,omitempty"`
}

// Endpoint is one network endpoint associated with a Cloud Guard problem.
type Endpoint struct {
	ID        string `json:"id"`
	Hostname  string `json:"hostname,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

// CloudGuardClient is the slice of the Cloud Guard service the tools need.
type CloudGuardClient interface {
	// ListTargets returns all targets in the compartment subtree.
	ListTargets(ctx context.Context, compartmentID string) ([]Target, error)

	// ListProblems returns all open problems in the compartment subtree.
	ListProblems(ctx context.Context, compartmentID string) ([]Problem, error)

	// ListProblemEndpoints returns the endpoints recorded for one problem.
	ListProblemEndpoints(ctx context.Context, problemID string) ([]Endpoint, error)
}

// Tools bundles the clients and tenancy identity the tool functions operate
// on. A Tools value is built once per tool-server process.
type Tools struct {
	TenancyID  string
	Identity   IdentityClient
	Network    NetworkClient
	Usage      UsageClient
	CloudGuard CloudGuardClient
}
