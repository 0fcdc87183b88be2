package tenancy

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tenvoy/tenvoy/internal/catalog"
)

// Granularity values accepted by getCostSummary.
const (
	GranularityDaily   = "DAILY"
	GranularityMonthly = "MONTHLY"
)

// Group-by dimensions accepted by getCostSummary.
const (
	GroupByCompartment = "COMPARTMENT"
	GroupByService     = "SERVICE"
	GroupByResource    = "RESOURCE"
)

// compartmentDepth is the subtree depth requested when grouping by
// compartment.
const compartmentDepth = 6

// CostItem is one cost bucket in the summary.
type CostItem struct {
	// Key is the raw group key (compartment OCID, service name, or
	// resource OCID).
	Key string `json:"key"`

	// Label is the human-readable form of Key. For compartments this is the
	// resolved display name; other dimensions echo the key.
	Label string `json:"label"`

	// Cost is the bucket's amount rounded to 2 decimals.
	Cost float64 `json:"cost"`
}

// CostSummary is the document returned by getCostSummary.
type CostSummary struct {
	TotalCost   float64    `json:"total_cost"`
	Currency    string     `json:"currency"`
	Granularity string     `json:"granularity"`
	TimeStart   string     `json:"time_start"`
	TimeEnd     string     `json:"time_end"`
	GroupBy     string     `json:"group_by"`
	Items       []CostItem `json:"items"`
}

// CostSummaryTool aggregates tenancy cost over a day-aligned window, bucketed
// by compartment, service, or resource.
func (t *Tools) CostSummaryTool(ctx context.Context, args catalog.CostArgs) (*CostSummary, error) {
	granularity := strings.ToUpper(args.Granularity)
	if granularity != GranularityDaily {
		granularity = GranularityMonthly
	}

	groupBy := strings.ToUpper(args.GroupBy)
	switch groupBy {
	case GroupByService, GroupByResource:
	default:
		groupBy = GroupByCompartment
	}

	start, end, err := resolveWindow(args.TimeStart, args.TimeEnd, time.Now)
	if err != nil {
		return nil, err
	}

	q := UsageQuery{
		TenancyID:           t.TenancyID,
		TimeStart:           start,
		TimeEnd:             end,
		Granularity:         granularity,
		GroupDimension:      groupDimension(groupBy),
		FilterCompartmentID: args.CompartmentOCID,
	}
	if groupBy == GroupByCompartment {
		q.CompartmentDepth = compartmentDepth
	}

	lines, err := t.Usage.SummarizedUsage(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("tenancy: summarized usage: %w", err)
	}

	var total float64
	currency := "USD" // default, overwritten by the first reported currency
	buckets := make(map[string]float64)
	for _, line := range lines {
		total += line.Amount
		if line.Currency != "" {
			currency = line.Currency
		}

		key := ""
		switch groupBy {
		case GroupByCompartment:
			key = line.CompartmentID
		case GroupByService:
			key = line.Service
		case GroupByResource:
			key = line.ResourceID
		}
		if key == "" {
			key = "UNKNOWN"
		}
		buckets[key] += line.Amount
	}

	names := newNameCache(t.Identity)
	items := make([]CostItem, 0, len(buckets))
	for key, amount := range buckets {
		label := key
		if groupBy == GroupByCompartment && key != "UNKNOWN" {
			label = names.Resolve(ctx, key)
		}
		items = append(items, CostItem{
			Key:   key,
			Label: label,
			Cost:  round2(amount),
		})
	}

	// Largest buckets first; ties broken by key for stable output.
	sort.Slice(items, func(i, j int) bool {
		if items[i].Cost != items[j].Cost {
			return items[i].Cost > items[j].Cost
		}
		return items[i].Key < items[j].Key
	})

	return &CostSummary{
		TotalCost:   round2(total),
		Currency:    currency,
		Granularity: granularity,
		TimeStart:   start.Format(time.RFC3339),
		TimeEnd:     end.Format(time.RFC3339),
		GroupBy:     groupBy,
		Items:       items,
	}, nil
}

// groupDimension maps the public group-by value onto the usage API dimension
// key.
func groupDimension(groupBy string) string {
	switch groupBy {
	case GroupByService:
		return "service"
	case GroupByResource:
		return "resourceId"
	default:
		return "compartmentId"
	}
}

// resolveWindow returns the usage window. When both bounds are supplied they
// are parsed as RFC 3339 and snapped to UTC midnight (the usage API requires
// zeroed sub-day components); otherwise the window is the first of the
// current month through today, both at 00:00 UTC.
func resolveWindow(startStr, endStr string, now func() time.Time) (time.Time, time.Time, error) {
	if startStr != "" && endStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("tenancy: parse time_start %q: %w", startStr, err)
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("tenancy: parse time_end %q: %w", endStr, err)
		}
		return utcMidnight(start), utcMidnight(end), nil
	}

	n := now().UTC()
	start := time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, utcMidnight(n), nil
}

// utcMidnight converts t to UTC and truncates it to 00:00:00.
func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
