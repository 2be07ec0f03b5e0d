package market

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerrors "zonix/internal/errors"
	"zonix/internal/models"
	"zonix/internal/pricing"
)

func newTestEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), DefaultCatalog(), rand.New(rand.NewSource(seed)), zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestNewEngine_RejectsMalformedConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bounds = pricing.Bounds{Min: 550, Max: 40}
	_, err := NewEngine(cfg, DefaultCatalog(), rand.New(rand.NewSource(1)), zerolog.Nop())
	require.Error(t, err)
	assert.True(t, zerrors.Is(err, zerrors.ErrInvalidBounds))

	cfg = DefaultConfig()
	cfg.StateScale = 0
	_, err = NewEngine(cfg, DefaultCatalog(), rand.New(rand.NewSource(1)), zerolog.Nop())
	assert.True(t, zerrors.Is(err, zerrors.ErrConfigInvalid))

	_, err = NewEngine(DefaultConfig(), Catalog{States: []State{{Code: "MH"}}}, rand.New(rand.NewSource(1)), zerolog.Nop())
	assert.True(t, zerrors.Is(err, zerrors.ErrEmptyCatalog))
}

func TestEngine_InitialSnapshot(t *testing.T) {
	e := newTestEngine(t, 11)
	snap := e.Snapshot()

	require.NotNil(t, snap)
	assert.Equal(t, uint64(0), snap.Sequence)
	assert.Equal(t, e.SessionID(), snap.SessionID)
	assert.Len(t, snap.States, len(DefaultCatalog().States))
	assert.Len(t, snap.Districts, len(DefaultCatalog().Districts))
	for _, st := range snap.States {
		assert.Equal(t, 0.0, st.Change, st.Code)
	}
	assert.Equal(t, float64(DefaultNationwideBaseline), snap.Nationwide.Baseline)
}

func TestEngine_StepKeepsIndicesConsistent(t *testing.T) {
	e := newTestEngine(t, 42)
	cfg := e.Config()
	baselines := e.Baselines()

	for i := 0; i < 120; i++ {
		snap, err := e.Step()
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), snap.Sequence)

		for _, d := range snap.Districts {
			require.True(t, cfg.Bounds.Contains(d.Price), "district %s/%s out of bounds: %v", d.StateCode, d.Name, d.Price)
		}

		values := make([]float64, len(snap.States))
		for j, st := range snap.States {
			var members []float64
			for _, d := range snap.DistrictsOf(st.Code) {
				members = append(members, d.Price)
			}
			require.Equal(t, pricing.Round2(pricing.Mean(members)*cfg.StateScale), st.Value, st.Code)
			require.Equal(t, pricing.PercentChange(baselines[st.Code], st.Value), st.Change, st.Code)
			values[j] = st.Value
		}
		require.Equal(t, pricing.Round2(pricing.Mean(values)*cfg.NationwideScale), snap.Nationwide.Value)
		require.Equal(t, pricing.PercentChange(cfg.NationwideBaseline, snap.Nationwide.Value), snap.Nationwide.Change)
	}

	assert.Equal(t, baselines, e.Baselines(), "baselines must not drift")
}

func TestEngine_SeededSessionsMatch(t *testing.T) {
	a := newTestEngine(t, 5)
	b := newTestEngine(t, 5)
	for i := 0; i < 10; i++ {
		_, err := a.Step()
		require.NoError(t, err)
		_, err = b.Step()
		require.NoError(t, err)
	}
	assert.Equal(t, a.Snapshot().Districts, b.Snapshot().Districts)
	assert.Equal(t, a.Snapshot().Nationwide, b.Snapshot().Nationwide)
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestEngine_ListenersRunInOrderWithinStep(t *testing.T) {
	e := newTestEngine(t, 8)

	var calls []string
	var seen uint64
	e.OnUpdate(func(s *models.Snapshot) {
		calls = append(calls, "first")
		seen = s.Sequence
	})
	e.OnUpdate(func(s *models.Snapshot) {
		calls = append(calls, "second")
		// the published snapshot is already visible to readers
		assert.Equal(t, s, e.Snapshot())
	})

	snap, err := e.Step()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, snap.Sequence, seen)
}

func TestEngine_Close(t *testing.T) {
	e := newTestEngine(t, 9)
	called := false
	e.OnUpdate(func(*models.Snapshot) { called = true })

	_, err := e.Step()
	require.NoError(t, err)
	last := e.Snapshot()

	e.Close()
	e.Close()
	called = false

	_, err = e.Step()
	assert.ErrorIs(t, err, zerrors.ErrEngineClosed)
	assert.False(t, called)
	assert.Equal(t, last, e.Snapshot())
}

func TestEngine_ConcurrentReadersSeeCompleteSnapshots(t *testing.T) {
	e := newTestEngine(t, 21)
	cfg := e.Config()

	var wg sync.WaitGroup
	done := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := e.Snapshot()
				values := make([]float64, len(snap.States))
				for i, st := range snap.States {
					values[i] = st.Value
				}
				if pricing.Round2(pricing.Mean(values)*cfg.NationwideScale) != snap.Nationwide.Value {
					t.Errorf("torn snapshot at seq %d", snap.Sequence)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		_, err := e.Step()
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()
}
