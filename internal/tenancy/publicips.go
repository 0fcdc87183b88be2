package tenancy

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tenvoy/tenvoy/internal/catalog"
)

// listConcurrency bounds how many compartments are scanned for public IPs at
// once. Listing per compartment is independent and the summary is
// order-insensitive, so fanning out is safe.
const listConcurrency = 8

// Lifetime scope values.
const (
	ScopeAll       = "ALL"
	ScopeEphemeral = "EPHEMERAL"
	ScopeReserved  = "RESERVED"
)

// PublicIPSummary is the document returned by getPublicIpSummary.
type PublicIPSummary struct {
	// TotalCount is the number of items after scope filtering.
	TotalCount int `json:"total_count"`

	// ByScope tallies the FULL inventory by lifetime, regardless of the
	// requested scope filter. The asymmetry with Items is intentional: a
	// filtered question still gets the whole-tenancy breakdown for context.
	ByScope map[string]int `json:"by_scope"`

	// Items is the address list, filtered to the requested scope.
	Items []PublicIP `json:"items"`
}

// PublicIPSummaryTool tallies public IPs across the tenancy (or one
// compartment) by lifetime scope.
func (t *Tools) PublicIPSummaryTool(ctx context.Context, args catalog.PublicIPArgs) (*PublicIPSummary, error) {
	scope := strings.ToUpper(args.Scope)
	if scope == "" {
		scope = ScopeAll
	}

	var compartments []Compartment
	if args.CompartmentOCID != "" {
		comp, err := t.Identity.GetCompartment(ctx, args.CompartmentOCID)
		if err != nil {
			return nil, fmt.Errorf("tenancy: get compartment %q: %w", args.CompartmentOCID, err)
		}
		compartments = []Compartment{comp}
	} else {
		var err error
		compartments, err = t.allCompartments(ctx)
		if err != nil {
			return nil, err
		}
	}

	// One slot per compartment keeps output order stable without locking.
	perCompartment := make([][]PublicIP, len(compartments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, comp := range compartments {
		g.Go(func() error {
			ips, err := t.Network.ListRegionPublicIPs(gctx, comp.ID)
			if err != nil {
				return fmt.Errorf("tenancy: list public ips in %q: %w", comp.ID, err)
			}
			perCompartment[i] = ips
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byScope := map[string]int{ScopeEphemeral: 0, ScopeReserved: 0}
	var all []PublicIP
	for _, ips := range perCompartment {
		for _, ip := range ips {
			switch ip.Lifetime {
			case ScopeEphemeral, ScopeReserved:
				byScope[ip.Lifetime]++
			}
			all = append(all, ip)
		}
	}

	items := all
	if scope == ScopeEphemeral || scope == ScopeReserved {
		items = nil
		for _, ip := range all {
			if ip.Lifetime == scope {
				items = append(items, ip)
			}
		}
	}
	if items == nil {
		items = []PublicIP{}
	}

	return &PublicIPSummary{
		TotalCount: len(items),
		ByScope:    byScope,
		Items:      items,
	}, nil
}
