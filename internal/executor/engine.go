package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xdg/remexec/internal/audit"
	"github.com/xdg/remexec/internal/clog"
	"github.com/xdg/remexec/internal/metrics"
)

// Defaults used when no Option overrides them.
const (
	DefaultShell     = "sh"
	DefaultWaitDelay = 2 * time.Second
)

// Option configures an Engine.
type Option func(*Engine)

// WithShell sets the shell used to run commands as "<shell> -c <command>".
func WithShell(shell string) Option {
	return func(e *Engine) {
		e.shell = shell
	}
}

// WithWaitDelay bounds how long a bounded-wait execution keeps reading
// output after the shell has exited or been killed. Background processes
// that inherited the output pipes would otherwise keep Wait blocked.
func WithWaitDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.waitDelay = d
	}
}

// WithAuditLogger enables audit logging of execution lifecycle events.
func WithAuditLogger(l *audit.Logger) Option {
	return func(e *Engine) {
		e.audit = l
	}
}

// WithLogger sets the operational logger.
// If not set, clog.Named("executor") is used.
func WithLogger(l *clog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// Engine executes requests as child processes of the current process.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	shell     string
	waitDelay time.Duration
	audit     *audit.Logger
	log       *clog.Logger
	newID     func() string

	// detached tracks fire-and-forget children that have not been reaped.
	detached sync.WaitGroup
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		shell:     DefaultShell,
		waitDelay: DefaultWaitDelay,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = clog.Named("executor")
	}
	return e
}

// Execute runs req and reports its outcome.
//
// A non-nil error is always an *Error and means the command could not be
// spawned, or waiting on it failed. A non-zero exit status is not an error.
//
// Cancelling ctx does not shorten a bounded wait; only the request's own
// timeout does.
func (e *Engine) Execute(ctx context.Context, req Request) (Result, error) {
	id := e.newID()
	mode := req.Mode()
	start := time.Now()

	e.log.Debug("execute id=%s mode=%s timeout=%d cmd=%q", id, mode, req.Timeout, req.Command)
	e.auditErr(e.audit.LogRequest(id, string(mode), req.Command, req.Timeout))

	var (
		res Result
		err error
	)
	switch mode {
	case ModeDetach:
		res = e.detach(id, req.Command)
	case ModeWait:
		res, err = e.runBounded(context.WithoutCancel(ctx), id, req)
	}

	metrics.RecordExecution(string(mode), outcome(res, err), time.Since(start))
	return res, err
}

// detach schedules the command in the background and returns immediately.
func (e *Engine) detach(id, command string) Result {
	e.detached.Add(1)
	go func() {
		defer e.detached.Done()
		e.runDetached(id, command)
	}()
	return Completed{}
}

// WaitDetached blocks until every fire-and-forget command started by e has
// been reaped, or ctx is done. It returns ctx.Err() in the latter case; the
// remaining commands keep running.
func (e *Engine) WaitDetached(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.detached.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		select {
		case <-done:
			return nil
		default:
			return ctx.Err()
		}
	}
}

// runDetached spawns the command with no output capture and reaps it.
// Failures here are only logged; the caller has already been answered.
func (e *Engine) runDetached(id, command string) {
	cmd := exec.Command(e.shell, "-c", command)
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		e.log.Warn("detached command failed to start id=%s: %v", id, err)
		e.auditErr(e.audit.LogError(id, string(ModeDetach), command, errorCode(err), err.Error()))
		return
	}

	pid := cmd.Process.Pid
	metrics.DetachedRunning.Inc()
	defer metrics.DetachedRunning.Dec()
	e.auditErr(e.audit.LogDetach(id, command, pid))

	err := cmd.Wait()
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil && exitCode == -1 {
		e.log.Warn("detached command id=%s pid=%d: %v", id, pid, err)
	} else {
		e.log.Debug("detached command exited id=%s pid=%d exit=%d", id, pid, exitCode)
	}
	e.auditErr(e.audit.LogExit(id, command, pid, exitCode))
}

// runBounded spawns the command with captured output and races its exit
// against a timer of req.Timeout seconds.
func (e *Engine) runBounded(ctx context.Context, id string, req Request) (Result, error) {
	cmd := exec.CommandContext(ctx, e.shell, "-c", req.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = e.waitDelay
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, e.fail(id, ModeWait, req.Command, "spawn", err)
	}
	pid := cmd.Process.Pid

	metrics.ActiveExecutions.Inc()
	defer metrics.ActiveExecutions.Dec()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(time.Duration(req.Timeout) * time.Second)
	defer timer.Stop()

	select {
	case err := <-done:
		return e.completed(id, req.Command, cmd, err, &stdout, &stderr, time.Since(start))

	case <-timer.C:
		if err := killProcessGroup(cmd.Process); err != nil {
			e.log.Warn("kill process group id=%s pid=%d: %v", id, pid, err)
		}
		<-done
		metrics.KilledTotal.Inc()

		elapsed := time.Since(start)
		e.log.Info("command timed out id=%s pid=%d after %ds", id, pid, req.Timeout)
		e.auditErr(e.audit.LogTimeout(id, req.Command, pid, req.Timeout, elapsed))
		return TimedOut{
			ElapsedSeconds: int64(req.Timeout),
			Message:        TimeoutMessage,
			ProcessID:      uint32(pid), //nolint:gosec // pids are positive
		}, nil
	}
}

// completed builds the result of a bounded-wait command that exited on its own.
func (e *Engine) completed(id, command string, cmd *exec.Cmd, waitErr error, stdout, stderr *bytes.Buffer, elapsed time.Duration) (Result, error) {
	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
			// Non-zero exit status; reported through ExitStatus.
		case errors.Is(waitErr, exec.ErrWaitDelay):
			e.log.Debug("output still open after exit id=%s, closed after %s", id, e.waitDelay)
		default:
			//nolint:staticcheck // message is part of the wire format
			return nil, e.fail(id, ModeWait, command, "wait", fmt.Errorf("Process error: %w", waitErr))
		}
	}

	exitCode := cmd.ProcessState.ExitCode()
	e.auditErr(e.audit.LogComplete(id, command, exitCode, elapsed))

	return Completed{
		Stdout:     strings.ToValidUTF8(stdout.String(), "\uFFFD"),
		Stderr:     strings.ToValidUTF8(stderr.String(), "\uFFFD"),
		ExitStatus: int32(exitCode), //nolint:gosec // exit codes fit in int32
	}, nil
}

// fail wraps err as an *Error and records it.
func (e *Engine) fail(id string, mode Mode, command, op string, err error) *Error {
	xerr := &Error{Op: op, Code: errorCode(err), Err: err}
	e.log.Warn("%s failed id=%s: %v", op, id, err)
	e.auditErr(e.audit.LogError(id, string(mode), command, xerr.Code, err.Error()))
	return xerr
}

func (e *Engine) auditErr(err error) {
	if err != nil {
		e.log.Error("audit: %v", err)
	}
}

// outcome returns the metrics label for an Execute result.
func outcome(res Result, err error) string {
	var xerr *Error
	if errors.As(err, &xerr) {
		if xerr.Op == "spawn" {
			return metrics.OutcomeSpawnError
		}
		return metrics.OutcomeWaitError
	}
	if _, ok := res.(TimedOut); ok {
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeCompleted
}
