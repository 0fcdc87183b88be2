package tenancy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tenvoy/tenvoy/internal/catalog"
)

// Defaults for the sampled problem list and per-problem endpoints.
const (
	defaultMaxProblems            = 10
	defaultMaxEndpointsPerProblem = 10
)

// ProblemDetail is one sampled Cloud Guard problem, optionally with its
// recorded endpoints.
type ProblemDetail struct {
	Problem
	Endpoints []Endpoint `json:"endpoints,omitempty"`
}

// CloudGuardSummary is the document returned by getCloudGuardSummary.
type CloudGuardSummary struct {
	// TargetCount and Targets describe the monitored resource scopes.
	TargetCount int      `json:"target_count"`
	Targets     []Target `json:"targets"`

	// ProblemCount is the total number of detected findings; ByRiskLevel
	// tallies all of them, not just the sampled list below.
	ProblemCount int            `json:"problem_count"`
	ByRiskLevel  map[string]int `json:"by_risk_level"`

	// Problems is a sampled list capped at max_problems.
	Problems []ProblemDetail `json:"problems"`
}

// CloudGuardSummaryTool summarises Cloud Guard posture: targets, problem
// counts by risk level, and a capped sample of problems with optional
// endpoint listings.
func (t *Tools) CloudGuardSummaryTool(ctx context.Context, args catalog.CloudGuardArgs) (*CloudGuardSummary, error) {
	compartmentID := args.CompartmentOCID
	if compartmentID == "" {
		compartmentID = t.TenancyID
	}
	maxProblems := args.MaxProblems
	if maxProblems <= 0 {
		maxProblems = defaultMaxProblems
	}
	maxEndpoints := args.MaxEndpointsPerProblem
	if maxEndpoints <= 0 {
		maxEndpoints = defaultMaxEndpointsPerProblem
	}

	targets, err := t.CloudGuard.ListTargets(ctx, compartmentID)
	if err != nil {
		return nil, fmt.Errorf("tenancy: list cloud guard targets: %w", err)
	}
	if targets == nil {
		targets = []Target{}
	}

	problems, err := t.CloudGuard.ListProblems(ctx, compartmentID)
	if err != nil {
		return nil, fmt.Errorf("tenancy: list cloud guard problems: %w", err)
	}

	byRisk := make(map[string]int)
	for _, p := range problems {
		risk := p.RiskLevel
		if risk == "" {
			risk = "UNKNOWN"
		}
		byRisk[risk]++
	}

	sample := problems
	if len(sample) > maxProblems {
		sample = sample[:maxProblems]
	}

	details := make([]ProblemDetail, 0, len(sample))
	for _, p := range sample {
		detail := ProblemDetail{Problem: p}
		if args.IncludeEndpoints {
			endpoints, err := t.CloudGuard.ListProblemEndpoints(ctx, p.ID)
			if err != nil {
				// Endpoint listing is best-effort enrichment; a failure on
				// one problem must not sink the whole summary.
				slog.Warn("cloud guard endpoint listing failed", "problem_id", p.ID, "err", err)
			} else {
				if len(endpoints) > maxEndpoints {
					endpoints = endpoints[:maxEndpoints]
				}
				detail.Endpoints = endpoints
			}
		}
		details = append(details, detail)
	}

	return &CloudGuardSummary{
		TargetCount:  len(targets),
		Targets:      targets,
		ProblemCount: len(problems),
		ByRiskLevel:  byRisk,
		Problems:     details,
	}, nil
}
