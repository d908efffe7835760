// Package sharedstate is the coordination channel between duel clients: a
// shared, subscribable document store. There is no server-side game loop —
// every client mutates these documents and observes everyone else's
// mutations through subscriptions, so the store's atomic read-modify-write
// is the only synchronization primitive in the system.
package sharedstate

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrNoChange aborts an Update without writing. It is how a guarded
	// mutation reports "someone else already did this" — callers treat it
	// as a silent no-op.
	ErrNoChange = errors.New("no change")
)

// Store is the shared-document port. Patch merges field-scoped writes that
// commute across keys; Update is the atomic check-then-write used for the
// one safety-critical guard (round resolution).
type Store interface {
	// Get unmarshals the document at key into dest.
	Get(ctx context.Context, key string, dest any) error

	// Set writes the full document, creating it if absent.
	Set(ctx context.Context, key string, doc any) error

	// Patch deep-merges the given object into the document. Writes to
	// disjoint nested fields commute; the last write wins per field.
	Patch(ctx context.Context, key string, patch map[string]any) error

	// Update applies fn to the current document and writes the result in a
	// single atomic step. fn returning ErrNoChange skips the write and
	// propagates ErrNoChange; any other error aborts without writing.
	Update(ctx context.Context, key string, fn func(raw []byte) ([]byte, error)) error

	// Delete removes the document.
	Delete(ctx context.Context, key string) error

	// Subscribe returns a channel receiving the document after every write
	// to key. Slow subscribers miss intermediate versions, never the
	// ability to catch up: the latest document is always readable via Get.
	Subscribe(key string) chan []byte
	Unsubscribe(key string, ch chan []byte)
}

// Modify is a typed wrapper around Update: unmarshal, apply, marshal.
func Modify[T any](ctx context.Context, s Store, key string, fn func(*T) error) (T, error) {
	var out T
	err := s.Update(ctx, key, func(raw []byte) ([]byte, error) {
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if err := fn(&doc); err != nil {
			return nil, err
		}
		out = doc
		return json.Marshal(doc)
	})
	return out, err
}

// mergeDoc deep-merges src into dst. Objects merge recursively; every other
// value, including arrays, is replaced wholesale.
func mergeDoc(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				dst[k] = mergeDoc(dv, sv)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}
