// Package bridge is the client side of the line-delimited JSON-RPC tool
// protocol. Each call spawns the configured tool-server command, writes a
// single request line to its stdin, and parses the last non-empty stdout
// line as the response.
//
// Parsing the last line rather than the first tolerates servers that print
// warnings or progress noise on stdout before the response.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tenvoy/tenvoy/internal/observe"
	"github.com/tenvoy/tenvoy/internal/rpc"
)

// DefaultTimeout bounds a single tool call. Cost queries against large
// tenancies can take minutes, so the default is generous.
const DefaultTimeout = 600 * time.Second

// requestID is the fixed id sent with every request. The bridge is strictly
// one request per process invocation, so a constant id suffices; the
// response must echo it.
const requestID = 1

// Client invokes tools over a spawned subprocess.
type Client struct {
	command []string
	timeout time.Duration
	metrics *observe.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call timeout. Defaults to [DefaultTimeout].
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New builds a Client that spawns the given command (argv form) per call.
func New(command []string, opts ...Option) (*Client, error) {
	if len(command) == 0 {
		return nil, errors.New("bridge: empty tool server command")
	}
	c := &Client{
		command: command,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c, nil
}

// Call invokes method with params and returns the raw JSON result. A
// JSON-RPC error response is returned as a *rpc.Error.
func (c *Client) Call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	req, err := rpc.NewRequest(requestID, method, params)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode request: %w", err)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, runErr := c.run(ctx, append(payload, '\n'))
	c.metrics.RecordBridgeDuration(ctx, method, time.Since(start).Seconds())

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("bridge: %s timed out after %s", method, c.timeout)
		}
		return nil, fmt.Errorf("bridge: %s: %w", method, ctxErr)
	}

	line := lastNonEmptyLine(stdout)
	if line == "" {
		if runErr != nil {
			return nil, fmt.Errorf("bridge: tool server produced no response: %w (stderr: %s)",
				runErr, tail(stderr))
		}
		return nil, fmt.Errorf("bridge: tool server produced no response (stderr: %s)", tail(stderr))
	}

	var resp rpc.Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, fmt.Errorf("bridge: response line is not valid JSON: %w (line: %.200s)", err, line)
	}
	if got := strings.TrimSpace(string(resp.ID)); got != "1" {
		return nil, fmt.Errorf("bridge: response id %s does not match request id %d", got, requestID)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// run spawns the tool server, feeds it one request line, and collects its
// output.
func (c *Client) run(ctx context.Context, input []byte) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, c.command[0], c.command[1:]...)
	cmd.Stdin = bytes.NewReader(input)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// lastNonEmptyLine returns the last line of s with non-whitespace content.
func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// tail trims stderr for error messages, keeping the last few hundred bytes
// where the actual failure usually is.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "<empty>"
	}
	const max = 400
	if len(s) > max {
		return "..." + s[len(s)-max:]
	}
	return s
}
