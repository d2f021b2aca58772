// Package storage is the client's local persistence: named slots holding JSON documents,
// gated by a schema version slot that must be current before anything else reads or writes.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Namespaced slot keys.
const (
	Prefix             = "@12thman:"
	KeyTakes           = Prefix + "takes"
	KeyUser            = Prefix + "user"
	KeySyncLog         = Prefix + "sync_log"
	KeyFailureSimulate = Prefix + "sync_failure_simulation"
	KeyVersion         = Prefix + "storage_version"
)

// UpdateFunc receives the current slot value and returns the replacement. A nil result
// leaves the slot as it was; an error aborts the update.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Slots is a string-keyed document store. Get reports found=false for a missing key.
// Update is atomic against every other writer of the same store, including other
// processes sharing the file.
type Slots interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// GetJSON decodes the slot into dst. It returns false when the slot is empty.
func GetJSON(ctx context.Context, s Slots, key string, dst any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Slots, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw)
}

// UpdateJSON decodes the slot into a T, hands it to fn and writes it back in one atomic
// Update. fn reports whether it changed anything; false skips the write.
func UpdateJSON[T any](ctx context.Context, s Slots, key string, fn func(v *T, found bool) (bool, error)) error {
	return s.Update(ctx, key, func(current []byte, found bool) ([]byte, error) {
		var v T
		if found && len(current) > 0 {
			if err := json.Unmarshal(current, &v); err != nil {
				return nil, err
			}
		}
		changed, err := fn(&v, found)
		if err != nil || !changed {
			return nil, err
		}
		return json.Marshal(v)
	})
}

// Clear removes every slot under the app prefix.
func Clear(ctx context.Context, s Slots) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, k := range keys {
		if !strings.HasPrefix(k, Prefix) {
			continue
		}
		if err := s.Remove(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
