package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vietddude/ingestor/internal/core/config"
)

type mockPruner struct {
	latest uint64
	ok     bool
	below  []uint64
}

func (m *mockPruner) LatestSlot(context.Context) (uint64, bool, error) {
	return m.latest, m.ok, nil
}

func (m *mockPruner) PruneBelow(_ context.Context, slot uint64) (int64, error) {
	m.below = append(m.below, slot)
	return 1, nil
}

func TestPruner_PrunesBelowWindow(t *testing.T) {
	store := &mockPruner{latest: 1000, ok: true}
	p := NewPruner(config.RetentionConfig{KeepSlots: 100}, store)

	p.prune(context.Background())

	assert.Equal(t, []uint64{900}, store.below)
}

func TestPruner_SkipsWhenNotEnoughSlots(t *testing.T) {
	store := &mockPruner{latest: 50, ok: true}
	p := NewPruner(config.RetentionConfig{KeepSlots: 100}, store)

	p.prune(context.Background())

	assert.Empty(t, store.below)
}

func TestPruner_SkipsEmptyStore(t *testing.T) {
	store := &mockPruner{}
	p := NewPruner(config.RetentionConfig{KeepSlots: 100}, store)

	p.prune(context.Background())

	assert.Empty(t, store.below)
}

func TestPruner_DisabledReturnsImmediately(t *testing.T) {
	store := &mockPruner{latest: 1000, ok: true}
	p := NewPruner(config.RetentionConfig{}, store)

	p.Start(context.Background())

	assert.Empty(t, store.below)
}
