package tenancy

import (
	"context"
	"fmt"
	"log/slog"
)

// nameCache resolves compartment OCIDs to display names, memoising results
// for the lifetime of one tool invocation. It is not shared across
// invocations. Resolution failures fall back to the OCID itself so a
// directory hiccup never fails a cost report.
type nameCache struct {
	identity IdentityClient
	names    map[string]string
}

func newNameCache(identity IdentityClient) *nameCache {
	return &nameCache{
		identity: identity,
		names:    make(map[string]string),
	}
}

// Resolve returns the display name for ocid, or "UNKNOWN" for an empty OCID,
// or the OCID itself when the directory lookup fails.
func (c *nameCache) Resolve(ctx context.Context, ocid string) string {
	if ocid == "" {
		return "UNKNOWN"
	}
	if name, ok := c.names[ocid]; ok {
		return name
	}

	name := ocid
	comp, err := c.identity.GetCompartment(ctx, ocid)
	if err != nil {
		slog.Debug("compartment name resolution failed, using OCID", "ocid", ocid, "err", err)
	} else if comp.Name != "" {
		name = comp.Name
	}

	c.names[ocid] = name
	return name
}

// allCompartments returns the tenancy root followed by every ACTIVE
// compartment in its subtree.
func (t *Tools) allCompartments(ctx context.Context) ([]Compartment, error) {
	root, err := t.Identity.GetTenancy(ctx, t.TenancyID)
	if err != nil {
		return nil, fmt.Errorf("tenancy: get tenancy %q: %w", t.TenancyID, err)
	}

	children, err := t.Identity.ListCompartments(ctx, t.TenancyID)
	if err != nil {
		return nil, fmt.Errorf("tenancy: list compartments: %w", err)
	}

	return append([]Compartment{root}, children...), nil
}
