// Package toolserver implements the line-delimited JSON-RPC 2.0 tool server.
//
// The server reads one request per stdin line, executes the named tenancy
// tool, and writes exactly one response line per request. Lines that are not
// valid JSON are skipped without a response; a malformed producer must not
// wedge the stream. Unknown methods get error code -32601 and tool failures
// get -32000.
package toolserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/tenvoy/tenvoy/internal/catalog"
	"github.com/tenvoy/tenvoy/internal/observe"
	"github.com/tenvoy/tenvoy/internal/rpc"
	"github.com/tenvoy/tenvoy/internal/tenancy"
)

// maxLineBytes bounds a single request line. Requests are tiny; the bound
// exists so a runaway producer cannot exhaust memory.
const maxLineBytes = 1 << 20

// Server dispatches JSON-RPC requests to the tenancy tools.
type Server struct {
	tools   *tenancy.Tools
	metrics *observe.Metrics
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds a Server over the given tools.
func New(tools *tenancy.Tools, opts ...Option) *Server {
	s := &Server{tools: tools}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Run reads requests from r line by line until EOF or ctx cancellation,
// writing one response line per valid request to w.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	out := bufio.NewWriter(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req rpc.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			slog.Debug("skipping malformed request line", "err", err)
			continue
		}

		resp := s.dispatch(ctx, &req)
		payload, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("toolserver: marshal response: %w", err)
		}
		payload = append(payload, '\n')
		if _, err := out.Write(payload); err != nil {
			return fmt.Errorf("toolserver: write response: %w", err)
		}
		// One response per line, flushed immediately: the peer blocks on it.
		if err := out.Flush(); err != nil {
			return fmt.Errorf("toolserver: flush response: %w", err)
		}
	}
	return scanner.Err()
}

// dispatch runs one request to completion, converting tool errors and panics
// into JSON-RPC error responses.
func (s *Server) dispatch(ctx context.Context, req *rpc.Request) (resp rpc.Response) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			slog.Error("tool handler panicked", "method", req.Method, "panic", r)
			s.metrics.RecordToolCall(ctx, req.Method, "panic")
			resp = rpc.ErrorResponse(req.ID, rpc.CodeToolError, fmt.Sprint(r), stack)
		}
	}()

	if !catalog.IsKnown(req.Method) {
		return rpc.ErrorResponse(req.ID, rpc.CodeMethodNotFound,
			fmt.Sprintf("Unknown method: %s", req.Method), "")
	}

	start := time.Now()
	result, err := s.call(ctx, req.Method, req.Params)
	s.metrics.RecordToolDuration(ctx, req.Method, time.Since(start).Seconds())

	if err != nil {
		slog.Error("tool failed", "method", req.Method, "err", err)
		s.metrics.RecordToolCall(ctx, req.Method, "error")
		return rpc.ErrorResponse(req.ID, rpc.CodeToolError, err.Error(), "")
	}

	ok, err := rpc.ResultResponse(req.ID, result)
	if err != nil {
		return rpc.ErrorResponse(req.ID, rpc.CodeToolError, err.Error(), "")
	}
	s.metrics.RecordToolCall(ctx, req.Method, "ok")
	return ok
}

// call decodes params for the named tool and executes it.
func (s *Server) call(ctx context.Context, method string, params json.RawMessage) (any, error) {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	switch method {
	case catalog.ToolPublicIPSummary:
		var args catalog.PublicIPArgs
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		return s.tools.PublicIPSummaryTool(ctx, args)

	case catalog.ToolCostSummary:
		var args catalog.CostArgs
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		return s.tools.CostSummaryTool(ctx, args)

	case catalog.ToolCloudGuardSummary:
		var args catalog.CloudGuardArgs
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		return s.tools.CloudGuardSummaryTool(ctx, args)

	default:
		// dispatch already filtered unknown methods.
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}
