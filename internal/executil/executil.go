// Package executil provides an abstraction over os/exec so that packages
// that shell out to system tools (nmcli, iptables) can be tested without
// root access or real hardware.
//
// Consuming packages define their own narrow interface. It is satisfied by
// executil.Real in production and by *executil.Mock in tests.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Result holds the raw output buffers of a completed process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner is the shared interface.
type Runner interface {
	// Run executes a command to completion. The returned error is non-nil only
	// when the process could not be started or waited on. A non-zero exit
	// status is reported through Result.ExitCode.
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Real executes commands via os/exec. Timeout bounds every invocation when
// set; zero means the caller's context is the only limit.
type Real struct {
	Timeout time.Duration
}

func (r Real) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	res := Result{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

// Call records a single command invocation for assertion in tests.
type Call struct {
	Name string
	Args []string
}

// String returns a human-readable representation for test failure messages.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// MockResult lets you pre-program what a specific command should return.
type MockResult struct {
	Stdout string
	Stderr string
	Raw    []byte // overrides Stdout when set, for non-text output
	Err    error
}

// Mock records all commands that were run and lets you pre-program responses.
// It is safe to use from a single goroutine (tests are sequential).
//
//	m := &executil.Mock{}
//	m.Expect("nmcli con up Hotspot", executil.MockResult{Stdout: "Connection successfully activated"})
//	nm := wifi.New("wlan0", wifi.WithRunner(m))
//	// ... exercise code ...
//	m.AssertCalled(t, "nmcli con up Hotspot")
type Mock struct {
	// Calls records every command Run was called with, in order.
	Calls []Call

	// responses maps "name arg1 arg2..." to a result. Unmatched commands
	// return empty output and no error.
	responses map[string]MockResult
	// queued results are consumed one per call before responses is used.
	queued map[string][]MockResult
}

// Expect pre-programs a response for a specific command signature.
// The key is "name arg1 arg2 ..." with an exact match on the full string.
func (m *Mock) Expect(command string, result MockResult) {
	if m.responses == nil {
		m.responses = make(map[string]MockResult)
	}
	m.responses[command] = result
}

// Queue pre-programs one-shot responses that are returned in order before
// falling back to the Expect response for the same command.
func (m *Mock) Queue(command string, results ...MockResult) {
	if m.queued == nil {
		m.queued = make(map[string][]MockResult)
	}
	m.queued[command] = append(m.queued[command], results...)
}

func (m *Mock) lookup(command string) (MockResult, bool) {
	if q := m.queued[command]; len(q) > 0 {
		m.queued[command] = q[1:]
		return q[0], true
	}
	r, ok := m.responses[command]
	return r, ok
}

func (m *Mock) Run(ctx context.Context, name string, args ...string) (Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	m.Calls = append(m.Calls, call)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	r, ok := m.lookup(call.String())
	if !ok {
		return Result{}, nil
	}
	if r.Err != nil {
		return Result{}, r.Err
	}
	stdout := []byte(r.Stdout)
	if r.Raw != nil {
		stdout = r.Raw
	}
	return Result{Stdout: stdout, Stderr: []byte(r.Stderr)}, nil
}

// WasCalled reports whether the given command string was ever called.
func (m *Mock) WasCalled(command string) bool {
	return m.CallCount(command) > 0
}

// Commands returns every recorded call as a command string.
func (m *Mock) Commands() []string {
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		out = append(out, c.String())
	}
	return out
}

func (m *Mock) AssertCalled(t interface {
	Helper()
	Errorf(string, ...any)
}, command string) {
	t.Helper()
	if !m.WasCalled(command) {
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "expected command %q to be called, but it was not.\n", command)
		buf.WriteString("calls made:\n")
		for _, c := range m.Calls {
			buf.WriteString("  " + c.String() + "\n")
		}
		t.Errorf("%s", buf.String())
	}
}

func (m *Mock) AssertNotCalled(t interface {
	Helper()
	Errorf(string, ...any)
}, command string) {
	t.Helper()
	if m.WasCalled(command) {
		t.Errorf("expected command %q NOT to be called, but it was", command)
	}
}

func (m *Mock) CallCount(command string) int {
	count := 0
	for _, c := range m.Calls {
		if c.String() == command {
			count++
		}
	}
	return count
}
