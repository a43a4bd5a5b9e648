package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/spotsnack/backend/internal/config"
)

const pingArg = "--ping"

// Recorder receives invocation lifecycle measurements
type Recorder interface {
	RecordInvocationStarted(ctx context.Context)
	RecordInvocationFinished(ctx context.Context, kind string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordInvocationStarted(context.Context)                         {}
func (nopRecorder) RecordInvocationFinished(context.Context, string, time.Duration) {}

// Bridge runs one short-lived interpreter process per invocation and talks to it
// over stdin, stdout and stderr. Its fields are read-only after New.
type Bridge struct {
	executable string
	script     string
	workDir    string
	timeout    time.Duration
	tracer     trace.Tracer
	recorder   Recorder
}

// Option configures a Bridge
type Option func(*Bridge)

// WithRecorder reports invocation metrics to r
func WithRecorder(r Recorder) Option {
	return func(b *Bridge) {
		if r != nil {
			b.recorder = r
		}
	}
}

// New creates a bridge for the configured interpreter
func New(cfg config.InterpreterConfig, opts ...Option) *Bridge {
	b := &Bridge{
		executable: cfg.Bin,
		script:     cfg.Script,
		workDir:    cfg.WorkDir,
		timeout:    cfg.Timeout,
		tracer:     otel.Tracer("interpreter-bridge"),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Invoke runs the interpreter with input on stdin and waits for its terminal Result
func (b *Bridge) Invoke(ctx context.Context, input []byte) Result {
	return <-b.Start(ctx, input)
}

// Start launches an invocation and returns a channel that receives exactly one Result
func (b *Bridge) Start(ctx context.Context, input []byte) <-chan Result {
	return b.start(ctx, input, b.script)
}

// Ping runs the interpreter's health check and returns an error unless it reports ok
func (b *Bridge) Ping(ctx context.Context) error {
	result := <-b.start(ctx, nil, b.script, pingArg)

	switch r := result.(type) {
	case Decoded:
		if status, _ := r.Value["status"].(string); status != "ok" {
			return fmt.Errorf("interpreter ping returned status %q", status)
		}
		return nil
	case error:
		return r
	default:
		return fmt.Errorf("unexpected ping result %s", result.Kind())
	}
}

func (b *Bridge) start(ctx context.Context, input []byte, args ...string) <-chan Result {
	results := make(chan Result, 1)
	inv := newInvocation(results)
	go b.run(ctx, inv, input, args)
	return results
}

func (b *Bridge) run(ctx context.Context, inv *invocation, input []byte, args []string) {
	ctx, span := b.tracer.Start(ctx, "bridge.invoke")
	defer span.End()

	span.SetAttributes(
		attribute.String("invocation.id", inv.id),
		attribute.Int("invocation.input_bytes", len(input)),
	)

	startedAt := time.Now()
	b.recorder.RecordInvocationStarted(ctx)

	finish := func(result Result) {
		span.SetAttributes(
			attribute.String("invocation.state", inv.state.String()),
			attribute.String("invocation.result", result.Kind()),
		)
		if err, ok := result.(error); ok {
			span.RecordError(err)
			span.SetStatus(codes.Error, result.Kind())
		}
		b.recorder.RecordInvocationFinished(ctx, result.Kind(), time.Since(startedAt))
		inv.guard.Emit(result)
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, b.executable, args...)
	cmd.Dir = b.workDir
	setProcGroup(cmd)
	cmd.Cancel = func() error {
		return killProcGroup(cmd)
	}

	stdin, stdout, stderr, err := pipes(cmd)
	if err != nil {
		inv.state = StateSpawnFailed
		finish(SpawnFailure{Err: err})
		return
	}

	if err := cmd.Start(); err != nil {
		inv.state = StateSpawnFailed
		log.Printf(`{"level":"error","message":"Failed to start interpreter","invocation_id":"%s","executable":"%s","error":"%v"}`,
			inv.id, b.executable, err)
		finish(SpawnFailure{Err: err})
		return
	}
	inv.state = StateSpawned
	span.SetAttributes(attribute.Int("process.pid", cmd.Process.Pid))

	inv.state = StateRunning
	var g errgroup.Group
	g.Go(func() error {
		return feed(stdin, input)
	})
	g.Go(func() error {
		_, err := io.Copy(&inv.stdout, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&inv.stderr, stderr)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf(`{"level":"warn","message":"Interpreter stream error","invocation_id":"%s","error":"%v"}`, inv.id, err)
	}

	waitErr := cmd.Wait()
	inv.exitCode = exitCode(waitErr)
	inv.state = StateCompleted
	span.SetAttributes(attribute.Int("process.exit_code", inv.exitCode))

	log.Printf(`{"level":"info","message":"Interpreter exited","invocation_id":"%s","exit_code":%d,"stdout_bytes":%d,"stderr_bytes":%d}`,
		inv.id, inv.exitCode, inv.stdout.Len(), inv.stderr.Len())
	if inv.stderr.Len() > 0 {
		log.Printf(`{"level":"warn","message":"Interpreter stderr","invocation_id":"%s","stderr":%q}`, inv.id, inv.stderr.String())
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		finish(ProcessFailure{
			ExitCode:    inv.exitCode,
			Diagnostics: inv.stderr.String(),
			TimedOut:    true,
		})
		return
	}

	finish(inv.outcome())
}

func pipes(cmd *exec.Cmd) (io.WriteCloser, io.ReadCloser, io.ReadCloser, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating stderr pipe: %w", err)
	}
	return stdin, stdout, stderr, nil
}

// feed writes the envelope and closes stdin so the interpreter sees end of input.
func feed(stdin io.WriteCloser, input []byte) error {
	_, writeErr := stdin.Write(input)
	closeErr := stdin.Close()
	if writeErr != nil {
		return fmt.Errorf("writing stdin: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing stdin: %w", closeErr)
	}
	return nil
}

func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// State is the lifecycle position of an invocation
type State int

const (
	StateCreated State = iota
	StateSpawned
	StateRunning
	StateCompleted
	StateSpawnFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSpawned:
		return "spawned"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateSpawnFailed:
		return "spawn_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// invocation is owned by a single run goroutine. Only guard is touched concurrently.
type invocation struct {
	id       string
	state    State
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	exitCode int
	guard    *Guard
}

func newInvocation(out chan<- Result) *invocation {
	id := uuid.New().String()
	return &invocation{
		id:    id,
		state: StateCreated,
		guard: NewGuard(id, out),
	}
}

// outcome maps a completed process to its Result. Output on stdout wins over
// a non-zero exit code.
func (inv *invocation) outcome() Result {
	if inv.exitCode != 0 && inv.stdout.Len() == 0 {
		return ProcessFailure{
			ExitCode:    inv.exitCode,
			Diagnostics: inv.stderr.String(),
		}
	}
	return Decode(inv.stdout.Bytes())
}
