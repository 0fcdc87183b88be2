package catalog

import (
	"encoding/json"
	"testing"
)

func TestCatalogIsFixedAtThreeTools(t *testing.T) {
	t.Parallel()

	ts := Tools()
	if len(ts) != 3 {
		t.Fatalf("catalog has %d tools, want 3", len(ts))
	}

	want := []string{ToolPublicIPSummary, ToolCostSummary, ToolCloudGuardSummary}
	for i, name := range want {
		if ts[i].Name != name {
			t.Errorf("tools[%d].Name = %q, want %q", i, ts[i].Name, name)
		}
		if ts[i].Description == "" {
			t.Errorf("tools[%d] has empty description", i)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	d, err := Lookup(ToolCostSummary)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != ToolCostSummary {
		t.Errorf("Name = %q", d.Name)
	}

	if _, err := Lookup("getFooSummary"); err == nil {
		t.Error("expected error for unknown tool")
	}
	if IsKnown("getFooSummary") {
		t.Error("IsKnown must reject unrecognised names")
	}
}

func TestParamSchemasAreValidJSON(t *testing.T) {
	t.Parallel()

	for _, d := range Tools() {
		var schema map[string]any
		if err := json.Unmarshal(d.ParamSchema, &schema); err != nil {
			t.Errorf("%s: schema not valid JSON: %v", d.Name, err)
			continue
		}
		props, ok := schema["properties"].(map[string]any)
		if !ok || len(props) == 0 {
			t.Errorf("%s: schema has no properties", d.Name)
		}
	}
}

func TestCloudGuardSchemaListsEndpointControls(t *testing.T) {
	t.Parallel()

	d, err := Lookup(ToolCloudGuardSummary)
	if err != nil {
		t.Fatal(err)
	}
	var schema struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(d.ParamSchema, &schema); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"include_endpoints", "max_problems", "max_endpoints_per_problem"} {
		if _, ok := schema.Properties[key]; !ok {
			t.Errorf("cloud guard schema missing %q", key)
		}
	}
}
