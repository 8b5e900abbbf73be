package device

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dracxi/adbmcpserver/internal/tactile"
)

// fakeExecutor records adb invocations and answers them with handler.
type fakeExecutor struct {
	mu       sync.Mutex
	cmds     []tactile.Command
	handler  func(line string) *tactile.ExecutionResult
	err      error
	delay    time.Duration
	inFlight int
	maxSeen  int
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd tactile.Command) (*tactile.ExecutionResult, error) {
	f.mu.Lock()
	f.cmds = append(f.cmds, cmd)
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}

	var res *tactile.ExecutionResult
	if f.handler != nil {
		res = f.handler(strings.Join(cmd.Arguments, " "))
	}
	if res == nil {
		res = ok("")
	}
	return res, nil
}

func (f *fakeExecutor) Capabilities() tactile.ExecutorCapabilities {
	return tactile.ExecutorCapabilities{Name: "fake"}
}

func (f *fakeExecutor) Validate(cmd tactile.Command) error {
	return nil
}

// lines returns every invocation as a space-joined argument string.
func (f *fakeExecutor) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cmds))
	for i, c := range f.cmds {
		out[i] = strings.Join(c.Arguments, " ")
	}
	return out
}

func (f *fakeExecutor) commands() []tactile.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tactile.Command(nil), f.cmds...)
}

func ok(stdout string) *tactile.ExecutionResult {
	return &tactile.ExecutionResult{Success: true, ExitCode: 0, Stdout: stdout}
}

func exitWith(code int, stderr string) *tactile.ExecutionResult {
	return &tactile.ExecutionResult{Success: true, ExitCode: code, Stderr: stderr}
}

func newTestADB(handler func(line string) *tactile.ExecutionResult, scratch Scratch) (*ADB, *fakeExecutor) {
	fake := &fakeExecutor{handler: handler}
	bridge := NewBridge(fake, BridgeConfig{})
	return NewADB(bridge, scratch), fake
}
