package syncer

import (
	"context"
	"errors"
	"strconv"

	"twelfthman/internal/storage"
)

var ErrSimulatedFailure = errors.New("simulated sync failure")

// FailurePolicy decides whether the next remote attempt should be forced to fail.
type FailurePolicy interface {
	ShouldFail(ctx context.Context) (bool, error)
}

type NoFaults struct{}

func (NoFaults) ShouldFail(context.Context) (bool, error) { return false, nil }

// SlotFaults is the persisted development switch.
type SlotFaults struct {
	slots storage.Slots
}

func NewSlotFaults(slots storage.Slots) *SlotFaults {
	return &SlotFaults{slots: slots}
}

func (f *SlotFaults) Enabled(ctx context.Context) (bool, error) {
	raw, found, err := f.slots.Get(ctx, storage.KeyFailureSimulate)
	if err != nil || !found {
		return false, err
	}
	on, err := strconv.ParseBool(string(raw))
	if err != nil {
		return false, nil
	}
	return on, nil
}

func (f *SlotFaults) ShouldFail(ctx context.Context) (bool, error) {
	return f.Enabled(ctx)
}

func (f *SlotFaults) Enable(ctx context.Context) error {
	return f.slots.Set(ctx, storage.KeyFailureSimulate, []byte("true"))
}

func (f *SlotFaults) Disable(ctx context.Context) error {
	return f.slots.Set(ctx, storage.KeyFailureSimulate, []byte("false"))
}

// Toggle flips the switch in one atomic slot update and returns the new state.
func (f *SlotFaults) Toggle(ctx context.Context) (bool, error) {
	var on bool
	err := f.slots.Update(ctx, storage.KeyFailureSimulate, func(current []byte, found bool) ([]byte, error) {
		was := false
		if found {
			was, _ = strconv.ParseBool(string(current))
		}
		on = !was
		return []byte(strconv.FormatBool(on)), nil
	})
	if err != nil {
		return false, err
	}
	return on, nil
}

// FaultInjectingRemote fails every call while the policy says so and otherwise delegates.
type FaultInjectingRemote struct {
	Next   Remote
	Policy FailurePolicy
}

func (r FaultInjectingRemote) SyncTakes(ctx context.Context, items []Submission) ([]Ack, error) {
	if r.Policy != nil {
		fail, err := r.Policy.ShouldFail(ctx)
		if err != nil {
			return nil, err
		}
		if fail {
			return nil, ErrSimulatedFailure
		}
	}
	return r.Next.SyncTakes(ctx, items)
}
