package device

import (
	"context"
	"strings"
	"time"

	"github.com/dracxi/adbmcpserver/internal/logging"
	"github.com/dracxi/adbmcpserver/internal/tactile"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// BridgeConfig configures how adb is invoked.
type BridgeConfig struct {
	// ADBPath is the adb executable. Defaults to "adb".
	ADBPath string

	// DefaultSerial is used when a call does not name a device.
	DefaultSerial string

	// Timeout bounds each invocation. Zero uses the executor default.
	Timeout time.Duration

	// MaxConcurrent bounds simultaneous invocations. Values below 1 mean 1.
	MaxConcurrent int64
}

// Bridge runs adb through a tactile.Executor and turns its results into
// stdout or a typed *Error.
type Bridge struct {
	executor tactile.Executor
	cfg      BridgeConfig
	sem      *semaphore.Weighted
}

// NewBridge creates a bridge over executor.
func NewBridge(executor tactile.Executor, cfg BridgeConfig) *Bridge {
	if cfg.ADBPath == "" {
		cfg.ADBPath = "adb"
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &Bridge{
		executor: executor,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// ADBPath returns the configured adb executable.
func (b *Bridge) ADBPath() string {
	return b.cfg.ADBPath
}

// Args builds the adb argument list for a device-scoped call.
// An empty serial falls back to the default serial; if that is empty too
// adb chooses the device.
func (b *Bridge) Args(serial string, args ...string) []string {
	if serial == "" {
		serial = b.cfg.DefaultSerial
	}
	if serial == "" {
		return append([]string(nil), args...)
	}
	return append([]string{"-s", serial}, args...)
}

// Run executes adb scoped to serial and returns its stdout.
func (b *Bridge) Run(ctx context.Context, serial string, args ...string) (string, error) {
	return b.run(ctx, b.Args(serial, args...))
}

// RunGlobal executes adb without a device selector (devices, version, ...).
func (b *Bridge) RunGlobal(ctx context.Context, args ...string) (string, error) {
	return b.run(ctx, append([]string(nil), args...))
}

// RunText is Run for callers that only handle text: failures come back as
// the error's message instead of an error value.
func (b *Bridge) RunText(ctx context.Context, serial string, args ...string) string {
	out, err := b.Run(ctx, serial, args...)
	if err != nil {
		return err.Error()
	}
	return out
}

// Version returns the output of "adb --version".
func (b *Bridge) Version(ctx context.Context) (string, error) {
	return b.RunGlobal(ctx, "--version")
}

func (b *Bridge) run(ctx context.Context, argv []string) (string, error) {
	op := opName(argv)

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", &Error{Kind: KindTimeout, Op: op, Message: "waiting for adb: " + err.Error(), Err: err}
	}
	defer b.sem.Release(1)

	cmd := tactile.Command{
		Binary:    b.cfg.ADBPath,
		Arguments: argv,
		RequestID: uuid.NewString(),
		Tags:      map[string]string{"op": op},
	}
	if b.cfg.Timeout > 0 {
		cmd.Limits = &tactile.ResourceLimits{TimeoutMs: b.cfg.Timeout.Milliseconds()}
	}

	log := logging.Get(logging.CategoryDevice).With("request_id", cmd.RequestID)
	log.Debug("adb %s", strings.Join(argv, " "))

	res, err := b.executor.Execute(ctx, cmd)
	if err != nil {
		de := &Error{Kind: KindUnexpected, Op: op, Message: err.Error(), Err: err}
		log.Warn("%s", de.Detail())
		return "", de
	}

	if de := classify(op, res); de != nil {
		log.Warn("%s", de.Detail())
		return "", de
	}
	return res.Stdout, nil
}

func classify(op string, res *tactile.ExecutionResult) *Error {
	switch {
	case res.NotFound:
		return newError(KindNotFound, op, "%s", res.Error)
	case !res.Success:
		return newError(KindUnexpected, op, "%s", res.Error)
	case res.Killed:
		return newError(KindTimeout, op, "adb %s was killed: %s", op, res.KillReason)
	case res.IsNonZeroExit():
		return &Error{Kind: KindProcessFailure, Op: op, Message: res.Stderr, ExitCode: res.ExitCode}
	}
	return nil
}

// opName names an invocation by its first two non-selector arguments.
func opName(argv []string) string {
	if len(argv) >= 2 && argv[0] == "-s" {
		argv = argv[2:]
	}
	if len(argv) > 2 {
		argv = argv[:2]
	}
	return strings.Join(argv, " ")
}
