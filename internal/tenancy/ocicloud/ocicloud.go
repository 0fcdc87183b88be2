// Package ocicloud implements the tenancy client interfaces on top of the
// OCI SDK. Every listing call walks all pages via opc-next-page.
package ocicloud

import (
	"context"
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/cloudguard"
	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"
	"github.com/oracle/oci-go-sdk/v65/identity"
	"github.com/oracle/oci-go-sdk/v65/usageapi"

	"github.com/tenvoy/tenvoy/internal/tenancy"
)

// NewTools builds a tenancy.Tools wired to real OCI service clients. The
// tenancy OCID is taken from the configuration provider.
func NewTools(cp common.ConfigurationProvider) (*tenancy.Tools, error) {
	tenancyID, err := cp.TenancyOCID()
	if err != nil {
		return nil, fmt.Errorf("ocicloud: read tenancy ocid: %w", err)
	}

	identityClient, err := identity.NewIdentityClientWithConfigurationProvider(cp)
	if err != nil {
		return nil, fmt.Errorf("ocicloud: identity client: %w", err)
	}
	networkClient, err := core.NewVirtualNetworkClientWithConfigurationProvider(cp)
	if err != nil {
		return nil, fmt.Errorf("ocicloud: virtual network client: %w", err)
	}
	usageClient, err := usageapi.NewUsageapiClientWithConfigurationProvider(cp)
	if err != nil {
		return nil, fmt.Errorf("ocicloud: usage client: %w", err)
	}
	cloudGuardClient, err := cloudguard.NewCloudGuardClientWithConfigurationProvider(cp)
	if err != nil {
		return nil, fmt.Errorf("ocicloud: cloud guard client: %w", err)
	}

	return &tenancy.Tools{
		TenancyID:  tenancyID,
		Identity:   &identityAdapter{client: identityClient},
		Network:    &networkAdapter{client: networkClient},
		Usage:      &usageAdapter{client: usageClient},
		CloudGuard: &cloudGuardAdapter{client: cloudGuardClient},
	}, nil
}

type identityAdapter struct {
	client identity.IdentityClient
}

func (a *identityAdapter) GetTenancy(ctx context.Context, tenancyID string) (tenancy.Compartment, error) {
	resp, err := a.client.GetTenancy(ctx, identity.GetTenancyRequest{
		TenancyId: common.String(tenancyID),
	})
	if err != nil {
		return tenancy.Compartment{}, fmt.Errorf("ocicloud: get tenancy: %w", err)
	}
	return tenancy.Compartment{
		ID:   deref(resp.Tenancy.Id),
		Name: deref(resp.Tenancy.Name),
	}, nil
}

func (a *identityAdapter) GetCompartment(ctx context.Context, ocid string) (tenancy.Compartment, error) {
	resp, err := a.client.GetCompartment(ctx, identity.GetCompartmentRequest{
		CompartmentId: common.String(ocid),
	})
	if err != nil {
		return tenancy.Compartment{}, fmt.Errorf("ocicloud: get compartment: %w", err)
	}
	return tenancy.Compartment{
		ID:   deref(resp.Compartment.Id),
		Name: deref(resp.Compartment.Name),
	}, nil
}

func (a *identityAdapter) ListCompartments(ctx context.Context, tenancyID string) ([]tenancy.Compartment, error) {
	var out []tenancy.Compartment
	var page *string
	for {
		resp, err := a.client.ListCompartments(ctx, identity.ListCompartmentsRequest{
			CompartmentId:          common.String(tenancyID),
			CompartmentIdInSubtree: common.Bool(true),
			AccessLevel:            identity.ListCompartmentsAccessLevelAny,
			LifecycleState:         identity.CompartmentLifecycleStateActive,
			Page:                   page,
		})
		if err != nil {
			return nil, fmt.Errorf("ocicloud: list compartments: %w", err)
		}
		for _, c := range resp.Items {
			out = append(out, tenancy.Compartment{
				ID:   deref(c.Id),
				Name: deref(c.Name),
			})
		}
		if resp.OpcNextPage == nil {
			return out, nil
		}
		page = resp.OpcNextPage
	}
}

type networkAdapter struct {
	client core.VirtualNetworkClient
}

func (a *networkAdapter) ListRegionPublicIPs(ctx context.Context, compartmentID string) ([]tenancy.PublicIP, error) {
	var out []tenancy.PublicIP
	var page *string
	for {
		resp, err := a.client.ListPublicIps(ctx, core.ListPublicIpsRequest{
			Scope:         core.ListPublicIpsScopeRegion,
			CompartmentId: common.String(compartmentID),
			Page:          page,
		})
		if err != nil {
			return nil, fmt.Errorf("ocicloud: list public ips: %w", err)
		}
		for _, ip := range resp.Items {
			out = append(out, tenancy.PublicIP{
				ID:               deref(ip.Id),
				IPAddress:        deref(ip.IpAddress),
				CompartmentID:    deref(ip.CompartmentId),
				Lifetime:         string(ip.Lifetime),
				LifecycleState:   string(ip.LifecycleState),
				AssignedEntityID: deref(ip.AssignedEntityId),
			})
		}
		if resp.OpcNextPage == nil {
			return out, nil
		}
		page = resp.OpcNextPage
	}
}

type usageAdapter struct {
	client usageapi.UsageapiClient
}

func (a *usageAdapter) SummarizedUsage(ctx context.Context, q tenancy.UsageQuery) ([]tenancy.UsageLine, error) {
	details := usageapi.RequestSummarizedUsagesDetails{
		TenantId:         common.String(q.TenancyID),
		TimeUsageStarted: &common.SDKTime{Time: q.TimeStart},
		TimeUsageEnded:   &common.SDKTime{Time: q.TimeEnd},
		Granularity:      granularityEnum(q.Granularity),
		QueryType:        usageapi.RequestSummarizedUsagesDetailsQueryTypeCost,
		GroupBy:          []string{q.GroupDimension},
	}
	if q.CompartmentDepth > 0 {
		details.CompartmentDepth = common.Float32(float32(q.CompartmentDepth))
	}
	if q.FilterCompartmentID != "" {
		details.Filter = &usageapi.Filter{
			Operator: usageapi.FilterOperatorAnd,
			Dimensions: []usageapi.Dimension{{
				Key:   common.String("compartmentId"),
				Value: common.String(q.FilterCompartmentID),
			}},
		}
	}

	var out []tenancy.UsageLine
	var page *string
	for {
		resp, err := a.client.RequestSummarizedUsages(ctx, usageapi.RequestSummarizedUsagesRequest{
			RequestSummarizedUsagesDetails: details,
			Page:                           page,
		})
		if err != nil {
			return nil, fmt.Errorf("ocicloud: summarized usages: %w", err)
		}
		for _, item := range resp.UsageAggregation.Items {
			line := tenancy.UsageLine{
				Currency:      deref(item.Currency),
				CompartmentID: deref(item.CompartmentId),
				Service:       deref(item.Service),
				ResourceID:    deref(item.ResourceId),
			}
			if item.ComputedAmount != nil {
				line.Amount = float64(*item.ComputedAmount)
			}
			out = append(out, line)
		}
		if resp.OpcNextPage == nil {
			return out, nil
		}
		page = resp.OpcNextPage
	}
}

func granularityEnum(granularity string) usageapi.RequestSummarizedUsagesDetailsGranularityEnum {
	if granularity == "DAILY" {
		return usageapi.RequestSummarizedUsagesDetailsGranularityDaily
	}
	return usageapi.RequestSummarizedUsagesDetailsGranularityMonthly
}

type cloudGuardAdapter struct {
	client cloudguard.CloudGuardClient
}

func (a *cloudGuardAdapter) ListTargets(ctx context.Context, compartmentID string) ([]tenancy.Target, error) {
	var out []tenancy.Target
	var page *string
	for {
		resp, err := a.client.ListTargets(ctx, cloudguard.ListTargetsRequest{
			CompartmentId:          common.String(compartmentID),
			CompartmentIdInSubtree: common.Bool(true),
			Page:                   page,
		})
		if err != nil {
			return nil, fmt.Errorf("ocicloud: list cloud guard targets: %w", err)
		}
		for _, t := range resp.TargetCollection.Items {
			out = append(out, tenancy.Target{
				ID:             deref(t.Id),
				DisplayName:    deref(t.DisplayName),
				LifecycleState: string(t.LifecycleState),
			})
		}
		if resp.OpcNextPage == nil {
			return out, nil
		}
		page = resp.OpcNextPage
	}
}

func (a *cloudGuardAdapter) ListProblems(ctx context.Context, compartmentID string) ([]tenancy.Problem, error) {
	var out []tenancy.Problem
	var page *string
	for {
		resp, err := a.client.ListProblems(ctx, cloudguard.ListProblemsRequest{
			CompartmentId:          common.String(compartmentID),
			CompartmentIdInSubtree: common.Bool(true),
			Page:                   page,
		})
		if err != nil {
			return nil, fmt.Errorf("ocicloud: list cloud guard problems: %w", err)
		}
		for _, p := range resp.ProblemCollection.Items {
			out = append(out, tenancy.Problem{
				ID:             deref(p.Id),
				RiskLevel:      string(p.RiskLevel),
				ResourceName:   deref(p.ResourceName),
				ResourceType:   deref(p.ResourceType),
				Region:         deref(p.Region),
				LifecycleState: string(p.LifecycleState),
				Labels:         p.Labels,
			})
		}
		if resp.OpcNextPage == nil {
			return out, nil
		}
		page = resp.OpcNextPage
	}
}

func (a *cloudGuardAdapter) ListProblemEndpoints(ctx context.Context, problemID string) ([]tenancy.Endpoint, error) {
	var out []tenancy.Endpoint
	var page *string
	for {
		resp, err := a.client.ListProblemEndpoints(ctx, cloudguard.ListProblemEndpointsRequest{
			ProblemId: common.String(problemID),
			Page:      page,
		})
		if err != nil {
			return nil, fmt.Errorf("ocicloud: list problem endpoints: %w", err)
		}
		for _, e := range resp.ProblemEndpointCollection.Items {
			out = append(out, tenancy.Endpoint{
				ID:        deref(e.Id),
				IPAddress: deref(e.IpAddress),
			})
		}
		if resp.OpcNextPage == nil {
			return out, nil
		}
		page = resp.OpcNextPage
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
