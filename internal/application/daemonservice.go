package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/adhocore/gronx"
	"github.com/natefinch/atomic"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// DaemonService runs the sync engine on an interval or cron schedule in the
// foreground, guarding against concurrent instances with a state file. The
// state file is written atomically so a crashed reader never sees a torn
// record; a leftover file whose PID is no longer alive is treated as stale
// and replaced.
type DaemonService struct {
	sync      *SyncService
	states    driven.SyncStateStore
	statePath string
	now       func() time.Time
}

// NewDaemonService creates a DaemonService persisting its state file at path.
func NewDaemonService(sync *SyncService, states driven.SyncStateStore, statePath string) *DaemonService {
	return &DaemonService{
		sync:      sync,
		states:    states,
		statePath: statePath,
		now:       time.Now,
	}
}

// Run starts the sync loop in the foreground. Exactly one of interval and
// schedule is used: a non-empty schedule is a cron expression that takes
// precedence, otherwise the loop ticks every interval. A cycle runs
// immediately on startup, then on each tick. Run returns when the context
// is cancelled (finishing the in-flight cycle first), when another instance
// already holds the state file, or when the cache becomes unwritable.
// Per-domain remote failures never stop the loop.
func (d *DaemonService) Run(ctx context.Context, interval time.Duration, schedule string) error {
	if schedule != "" && !gronx.New().IsValid(schedule) {
		return fmt.Errorf("invalid cron schedule %q", schedule)
	}

	if err := d.acquire(interval, schedule); err != nil {
		return err
	}
	defer d.release()

	slog.Info("daemon started",
		"pid", os.Getpid(),
		"interval", interval,
		"schedule", schedule)

	for {
		// A stop signal must not abort the in-flight cycle: half-synced
		// domains would be recorded as failures and the snapshot update
		// lost. Cancellation takes effect at the timer select below.
		result := d.sync.RunCycle(context.WithoutCancel(ctx))
		if err := fatalCycleError(result); err != nil {
			slog.Error("cache unwritable, shutting down", "error", err)
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		wait, err := d.nextWait(interval, schedule)
		if err != nil {
			return err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("daemon stopping")
			return nil
		case <-timer.C:
		}
	}
}

// Stop signals the running daemon with SIGTERM and removes its state file.
func (d *DaemonService) Stop() error {
	state, err := d.readState()
	if err != nil {
		return err
	}
	if state == nil || !processAlive(state.PID) {
		d.release()
		return model.NewDaemonError(model.DaemonNotRunning, errors.New("no running daemon"))
	}

	proc, err := os.FindProcess(state.PID)
	if err != nil {
		return fmt.Errorf("find daemon process %d: %w", state.PID, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process %d: %w", state.PID, err)
	}
	d.release()
	slog.Info("daemon stopped", "pid", state.PID)
	return nil
}

// Status reports whether a daemon is running and the per-domain sync state.
func (d *DaemonService) Status(ctx context.Context) (*model.DaemonStatus, error) {
	status := &model.DaemonStatus{}

	state, err := d.readState()
	if err != nil {
		return nil, err
	}
	if state != nil && processAlive(state.PID) {
		status.Running = true
		status.PID = state.PID
		status.StartedAt = state.StartedAt
		status.Interval = time.Duration(state.IntervalSeconds) * time.Second
		status.Schedule = state.Schedule
	}

	domains, err := d.states.List(ctx)
	if err != nil {
		return nil, err
	}
	status.Domains = domains
	return status, nil
}

// acquire claims the state file, failing if a live instance holds it.
func (d *DaemonService) acquire(interval time.Duration, schedule string) error {
	state, err := d.readState()
	if err != nil {
		return err
	}
	if state != nil {
		if processAlive(state.PID) {
			return model.NewDaemonError(model.DaemonAlreadyRunning,
				fmt.Errorf("daemon already running with pid %d", state.PID))
		}
		slog.Warn("removing stale daemon state file", "pid", state.PID)
	}

	data, err := json.Marshal(model.DaemonState{
		PID:             os.Getpid(),
		StartedAt:       d.now(),
		IntervalSeconds: int(interval / time.Second),
		Schedule:        schedule,
	})
	if err != nil {
		return fmt.Errorf("marshal daemon state: %w", err)
	}
	if err := atomic.WriteFile(d.statePath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write daemon state file: %w", err)
	}
	return nil
}

func (d *DaemonService) release() {
	if err := os.Remove(d.statePath); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove daemon state file", "path", d.statePath, "error", err)
	}
}

// readState returns nil without error when no state file exists. A file
// that cannot be parsed is treated as stale and removed.
func (d *DaemonService) readState() (*model.DaemonState, error) {
	data, err := os.ReadFile(d.statePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read daemon state file: %w", err)
	}

	var state model.DaemonState
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("removing corrupt daemon state file", "path", d.statePath, "error", err)
		d.release()
		return nil, nil
	}
	return &state, nil
}

func (d *DaemonService) nextWait(interval time.Duration, schedule string) (time.Duration, error) {
	if schedule == "" {
		return interval, nil
	}
	next, err := gronx.NextTickAfter(schedule, d.now(), false)
	if err != nil {
		return 0, fmt.Errorf("compute next tick for %q: %w", schedule, err)
	}
	return time.Until(next), nil
}

// fatalCycleError extracts an unwritable-cache error from a cycle result.
// Remote and auth failures are survivable; a cache that cannot be written
// means every future cycle is pointless.
func fatalCycleError(result model.CycleResult) error {
	for _, outcome := range result.Outcomes {
		var cacheErr *model.CacheError
		if errors.As(outcome.Err, &cacheErr) && cacheErr.Kind == model.CacheUnwritable {
			return outcome.Err
		}
	}
	return nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
