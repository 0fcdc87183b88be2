package rpc

import (
	"encoding/json"
	"testing"
)

func TestNewRequestDefaultsParamsToEmptyObject(t *testing.T) {
	t.Parallel()

	req, err := NewRequest(1, "getPublicIpSummary", nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.JSONRPC != Version {
		t.Errorf("jsonrpc = %q, want %q", req.JSONRPC, Version)
	}
	if string(req.Params) != "{}" {
		t.Errorf("params = %s, want {}", req.Params)
	}
	if string(req.ID) != "1" {
		t.Errorf("id = %s, want 1", req.ID)
	}
}

func TestResponseResultErrorMutuallyExclusive(t *testing.T) {
	t.Parallel()

	ok, err := ResultResponse(json.RawMessage("7"), map[string]int{"total_count": 3})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(ok)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, has := decoded["error"]; has {
		t.Error("success response must not carry an error key")
	}
	if _, has := decoded["result"]; !has {
		t.Error("success response must carry a result key")
	}

	fail := ErrorResponse(json.RawMessage("7"), CodeMethodNotFound, "unknown method: nope", "")
	raw, err = json.Marshal(fail)
	if err != nil {
		t.Fatal(err)
	}
	decoded = nil
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, has := decoded["result"]; has {
		t.Error("error response must not carry a result key")
	}
	if string(decoded["id"]) != "7" {
		t.Errorf("error response id = %s, want 7", decoded["id"])
	}
}

func TestErrorImplementsError(t *testing.T) {
	t.Parallel()

	var err error = &Error{Code: CodeToolError, Message: "boom"}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
