package offline

import (
	"context"
	"log/slog"

	"github.com/looplab/fsm"
)

// State is the coordinator's position in the sync cycle.
type State string

const (
	StateIdle     State = "idle"
	StateChecking State = "checking"
	StateSyncing  State = "syncing"
	StateFailed   State = "failed"
)

const (
	eventCheck   = "check"   // start a version check
	eventForce   = "force"   // start a pass without checking
	eventStale   = "stale"   // remote version differs or is unknown
	eventCurrent = "current" // remote version matches, or nothing to do
	eventDone    = "done"
	eventFail    = "fail"
)

// newMachine builds the sync state machine. Events that are not valid in the
// current state are rejected by the machine, which is what makes a second
// request during checking or syncing a no-op.
func newMachine(logger *slog.Logger) *fsm.FSM {
	settled := []string{string(StateIdle), string(StateFailed)}

	return fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: eventCheck, Src: settled, Dst: string(StateChecking)},
			{Name: eventForce, Src: settled, Dst: string(StateSyncing)},
			{Name: eventStale, Src: []string{string(StateChecking)}, Dst: string(StateSyncing)},
			{Name: eventCurrent, Src: []string{string(StateChecking)}, Dst: string(StateIdle)},
			{Name: eventDone, Src: []string{string(StateSyncing)}, Dst: string(StateIdle)},
			{Name: eventFail, Src: []string{string(StateSyncing)}, Dst: string(StateFailed)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("sync state changed", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
}
