package redo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam-studio/qalam/internal/memstore"
	"github.com/qalam-studio/qalam/svc/plans"
	"github.com/qalam-studio/qalam/svc/redo"
)

func newGate(t *testing.T, slug string) (*redo.Gate, *memstore.Store) {
	t.Helper()
	catalog, err := plans.NewCatalog(context.Background(), plans.NewYAMLSource(plans.DefaultCatalog),
		plans.WithSlugResolver(func(context.Context, uuid.UUID) (string, error) { return slug, nil }))
	require.NoError(t, err)
	store := memstore.New()
	return redo.NewGate(store, catalog), store
}

func TestParseTab(t *testing.T) {
	t.Parallel()

	tab, err := redo.ParseTab(" Research ")
	require.NoError(t, err)
	assert.Equal(t, redo.TabResearch, tab)

	_, err = redo.ParseTab("summary")
	assert.ErrorIs(t, err, redo.ErrUnknownTab)

	assert.Len(t, redo.Tabs(), 6)
}

func TestCheckRedoAllowed_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gate, store := newGate(t, "")
	project := store.AddProject(uuid.New(), time.Now())

	_, err := gate.CheckRedoAllowed(ctx, project, redo.Tab("summary"))
	assert.ErrorIs(t, err, redo.ErrUnknownTab)

	_, err = gate.CheckRedoAllowed(ctx, uuid.New(), redo.TabResearch)
	assert.ErrorIs(t, err, redo.ErrProjectNotFound)

	_, err = gate.IncrementRunCount(ctx, uuid.New(), redo.TabResearch)
	assert.ErrorIs(t, err, redo.ErrProjectNotFound)

	_, err = gate.Run(ctx, project, redo.TabResearch, nil)
	assert.ErrorIs(t, err, redo.ErrNilGenerator)
}

func TestRun_FreePlanResearchScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gate, store := newGate(t, "")
	project := store.AddProject(uuid.New(), time.Now())

	calls := 0
	generate := func(context.Context) error {
		calls++
		return nil
	}

	d, err := gate.Run(ctx, project, redo.TabResearch, generate)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Current)

	d, err = gate.Run(ctx, project, redo.TabResearch, generate)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Current)

	d, err = gate.Run(ctx, project, redo.TabResearch, generate)
	require.ErrorIs(t, err, redo.ErrRedoLimitReached)
	assert.Equal(t, redo.Decision{Allowed: false, Current: 2, Limit: 2}, d)
	assert.Equal(t, 2, calls)

	// Other tabs keep their own counters.
	d, err = gate.CheckRedoAllowed(ctx, project, redo.TabScripts)
	require.NoError(t, err)
	assert.Equal(t, redo.Decision{Allowed: true, Current: 0, Limit: 2}, d)
}

func TestRun_AllowsLimitPlusOneRuns(t *testing.T) {
	t.Parallel()

	for _, slug := range []string{"free", "creator", "pro", "studio"} {
		t.Run(slug, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			gate, store := newGate(t, slug)
			project := store.AddProject(uuid.New(), time.Now())

			first, err := gate.CheckRedoAllowed(ctx, project, redo.TabArticle)
			require.NoError(t, err)

			allowed := 0
			for range first.Limit + 3 {
				_, err := gate.Run(ctx, project, redo.TabArticle, func(context.Context) error { return nil })
				if errors.Is(err, redo.ErrRedoLimitReached) {
					continue
				}
				require.NoError(t, err)
				allowed++
			}
			assert.Equal(t, first.Limit, allowed)
		})
	}
}

func TestRun_FailedGenerationDoesNotConsume(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gate, store := newGate(t, "")
	project := store.AddProject(uuid.New(), time.Now())

	before, err := gate.CheckRedoAllowed(ctx, project, redo.TabBroll)
	require.NoError(t, err)

	boom := errors.New("gateway timeout")
	_, err = gate.Run(ctx, project, redo.TabBroll, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	after, err := gate.CheckRedoAllowed(ctx, project, redo.TabBroll)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIncrementRunCount_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gate, store := newGate(t, "")
	project := store.AddProject(uuid.New(), time.Now())

	const n = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := gate.IncrementRunCount(ctx, project, redo.TabSimplify)
			assert.NoError(t, err)
			mu.Lock()
			seen[count] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Every increment observed a distinct value, so none was lost.
	assert.Len(t, seen, n)
	d, err := gate.CheckRedoAllowed(ctx, project, redo.TabSimplify)
	require.NoError(t, err)
	assert.Equal(t, n, d.Current)
}
