// Package catalog is the single source of truth for the assistant's tool
// surface: the three tenancy tools, their descriptions, and their parameter
// schemas.
//
// The tool set is fixed at compile time. The router prompt, the JSON-RPC
// dispatch table, and the MCP registration all derive from this catalog so
// the advertised contract and the implemented contract cannot drift apart.
package catalog

import (
	"encoding/json"
	"fmt"

	invopop "github.com/invopop/jsonschema"
)

// Tool method names as they appear on the wire.
const (
	ToolPublicIPSummary   = "getPublicIpSummary"
	ToolCostSummary       = "getCostSummary"
	ToolCloudGuardSummary = "getCloudGuardSummary"
)

// PublicIPArgs are the parameters of getPublicIpSummary.
type PublicIPArgs struct {
	// CompartmentOCID limits the inventory to a single compartment. Empty
	// means the whole tenancy.
	CompartmentOCID string `json:"compartment_ocid,omitempty" jsonschema:"description=Limit to one compartment OCID; empty scans the whole tenancy"`

	// Scope filters the returned item list by address lifetime.
	Scope string `json:"scope,omitempty" jsonschema:"enum=ALL,enum=EPHEMERAL,enum=RESERVED,description=Lifetime filter for the item list; default ALL"`
}

// CostArgs are the parameters of getCostSummary.
type CostArgs struct {
	// TimeStart and TimeEnd bound the usage window (RFC 3339). Both must be
	// given together; otherwise the window defaults to current month-to-date.
	TimeStart string `json:"time_start,omitempty" jsonschema:"description=Window start in RFC 3339; snapped to UTC midnight"`
	TimeEnd   string `json:"time_end,omitempty" jsonschema:"description=Window end in RFC 3339; snapped to UTC midnight"`

	// Granularity selects the usage aggregation period.
	Granularity string `json:"granularity,omitempty" jsonschema:"enum=DAILY,enum=MONTHLY,description=Aggregation period; default MONTHLY"`

	// GroupBy selects the bucketing dimension for cost line items.
	GroupBy string `json:"group_by,omitempty" jsonschema:"enum=COMPARTMENT,enum=SERVICE,enum=RESOURCE,description=Bucketing dimension; default COMPARTMENT"`

	// CompartmentOCID limits the query to a single compartment.
	CompartmentOCID string `json:"compartment_ocid,omitempty" jsonschema:"description=Limit to one compartment OCID"`
}

// CloudGuardArgs are the parameters of getCloudGuardSummary.
type CloudGuardArgs struct {
	// CompartmentOCID limits the scan to a single compartment. Empty means
	// the tenancy root.
	CompartmentOCID string `json:"compartment_ocid,omitempty" jsonschema:"description=Limit to one compartment OCID; empty uses the tenancy root"`

	// IncludeEndpoints requests per-problem endpoint listings.
	IncludeEndpoints bool `json:"include_endpoints,omitempty" jsonschema:"description=Include per-problem endpoints"`

	// MaxProblems caps the sampled problem list (default 10).
	MaxProblems int `json:"max_problems,omitempty" jsonschema:"minimum=1,description=Cap on the sampled problem list; default 10"`

	// MaxEndpointsPerProblem caps endpoints listed per problem (default 10).
	MaxEndpointsPerProblem int `json:"max_endpoints_per_problem,omitempty" jsonschema:"minimum=1,description=Cap on endpoints per problem; default 10"`
}

// Descriptor describes one tool for routing, dispatch, and MCP registration.
type Descriptor struct {
	// Name is the wire method name.
	Name string

	// Description is the human-readable summary shown to the router model
	// and exported over MCP.
	Description string

	// ParamSchema is the JSON Schema for the tool's parameters.
	ParamSchema json.RawMessage
}

// tools is the fixed catalog, built once at init.
var tools = []Descriptor{
	{
		Name:        ToolPublicIPSummary,
		Description: "Get a summary of public IP addresses in the OCI tenancy or a specific compartment.",
		ParamSchema: mustSchema(&PublicIPArgs{}),
	},
	{
		Name:        ToolCostSummary,
		Description: "Get a cost summary for the tenancy from the Usage API.",
		ParamSchema: mustSchema(&CostArgs{}),
	},
	{
		Name:        ToolCloudGuardSummary,
		Description: "Get Cloud Guard targets, problems, and (optionally) problem endpoints.",
		ParamSchema: mustSchema(&CloudGuardArgs{}),
	},
}

// Tools returns the fixed tool catalog. The returned slice must not be
// mutated by callers.
func Tools() []Descriptor {
	return tools
}

// Lookup returns the descriptor for name.
func Lookup(name string) (Descriptor, error) {
	for _, d := range tools {
		if d.Name == name {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("catalog: unknown tool %q", name)
}

// IsKnown reports whether name is one of the three recognised tools.
func IsKnown(name string) bool {
	_, err := Lookup(name)
	return err == nil
}

// mustSchema reflects a JSON Schema from an args struct. The inputs are
// compile-time fixed, so a reflection failure is a programming error.
func mustSchema(v any) json.RawMessage {
	reflector := invopop.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(v)
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("catalog: marshal schema: %v", err))
	}
	return raw
}
