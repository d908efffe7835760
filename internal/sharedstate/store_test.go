package sharedstate

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Counter int               `json:"counter"`
	Fields  map[string]string `json:"fields"`
}

func TestMemStoreGetSet(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	var missing testDoc
	assert.ErrorIs(t, s.Get(ctx, "nope", &missing), ErrNotFound)

	require.NoError(t, s.Set(ctx, "doc", testDoc{Counter: 1}))

	var got testDoc
	require.NoError(t, s.Get(ctx, "doc", &got))
	assert.Equal(t, 1, got.Counter)
}

func TestUpdateNoChangeSkipsWrite(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "doc", testDoc{Counter: 7}))

	err := s.Update(ctx, "doc", func(raw []byte) ([]byte, error) {
		return nil, ErrNoChange
	})
	assert.ErrorIs(t, err, ErrNoChange)

	var got testDoc
	require.NoError(t, s.Get(ctx, "doc", &got))
	assert.Equal(t, 7, got.Counter)
}

func TestUpdateIsAtomicUnderRacingWriters(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "doc", testDoc{}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Modify(ctx, s, "doc", func(d *testDoc) error {
				d.Counter++
				return nil
			})
		}()
	}
	wg.Wait()

	var got testDoc
	require.NoError(t, s.Get(ctx, "doc", &got))
	assert.Equal(t, 50, got.Counter)
}

func TestPatchMergesDisjointFields(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "doc", testDoc{Fields: map[string]string{"a": "1"}}))

	require.NoError(t, s.Patch(ctx, "doc", map[string]any{
		"fields": map[string]any{"b": "2"},
	}))

	var got testDoc
	require.NoError(t, s.Get(ctx, "doc", &got))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got.Fields)
}

func TestSubscribeReceivesWrites(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	ch := s.Subscribe("doc")
	defer s.Unsubscribe("doc", ch)

	require.NoError(t, s.Set(ctx, "doc", testDoc{Counter: 3}))

	var got testDoc
	require.NoError(t, json.Unmarshal(<-ch, &got))
	assert.Equal(t, 3, got.Counter)
}

func TestModifyReturnsUpdatedDoc(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "doc", testDoc{Counter: 1}))

	got, err := Modify(ctx, s, "doc", func(d *testDoc) error {
		d.Counter = 42
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got.Counter)
}
