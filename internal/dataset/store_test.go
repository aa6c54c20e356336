package dataset

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gohoops/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), logger.NewNoop())
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	ds := New()
	ds.Set("Duke", "points-per-game", "82.1")
	ds.Set("UNC", "points-per-game", "80.0")

	require.NoError(t, store.WriteDataset("TeamRankingsStats2024", ds))

	got, err := store.ReadDataset("TeamRankingsStats2024")
	require.NoError(t, err)
	assert.Equal(t, ds.Teams(), got.Teams())
	assert.Equal(t, ds.Columns(), got.Columns())
}

func TestStoreReadMissingIsNoData(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ReadDataset("TRank2013")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestStoreReadHeaderOnlyIsNoData(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path("Scores2024"), []byte("year,bracket\n"), 0o644))

	_, err := store.ReadDataset("Scores2024")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestStoreWriteOverwrites(t *testing.T) {
	store := newTestStore(t)

	first := New()
	first.Set("Duke", "points-per-game", "82.1")
	require.NoError(t, store.WriteDataset("TRank2024", first))

	second := New()
	second.Set("Kansas", "points-per-game", "77.7")
	require.NoError(t, store.WriteDataset("TRank2024", second))

	got, err := store.ReadDataset("TRank2024")
	require.NoError(t, err)
	assert.Equal(t, []string{"Kansas"}, got.Teams())
}

func TestReadOrComputeCaches(t *testing.T) {
	store := newTestStore(t)

	computes := 0
	compute := func() (*Dataset, error) {
		computes++
		ds := New()
		ds.Set("Duke", "points-per-game", "82.1")
		return ds, nil
	}

	first, err := store.ReadOrCompute("TeamRankingsStats2024", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Len())

	second, err := store.ReadOrCompute("TeamRankingsStats2024", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Len())

	assert.Equal(t, 1, computes)
}

func TestReadOrComputeEmptyResultIsNotWritten(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ReadOrCompute("TeamRankingsStats2024", func() (*Dataset, error) {
		return New(), nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoData))
	assert.False(t, store.Exists("TeamRankingsStats2024"))
}
