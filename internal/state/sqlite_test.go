// internal/state/sqlite_test.go
package state

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/bridge-vaults-exporter/internal/snapshot"
)

func openTemp(t *testing.T) (*SQLite, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewSQLite(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestLoad_EmptyDatabase(t *testing.T) {
	s, _ := openTemp(t)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSaveLoad_KeepsPrecisionAndOrder(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	large, ok := new(big.Int).SetString("346192603472053121587099", 10)
	require.True(t, ok)

	at := time.Unix(1700000000, 123456789)
	in := snapshot.New(at, []snapshot.SeriesValue{
		snapshot.NewSeries(snapshot.MetricBalance, large,
			snapshot.Label{Key: snapshot.LabelChainID, Value: "1"},
			snapshot.Label{Key: snapshot.LabelSymbol, Value: `we"ird`},
		),
		snapshot.Uint(snapshot.MetricRelayRound, 12),
	})
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.True(t, at.Equal(out.GeneratedAt))
	require.Len(t, out.Series, 2)
	assert.Equal(t, snapshot.MetricBalance, out.Series[0].Name)
	assert.Equal(t, 0, large.Cmp(out.Series[0].Value))
	assert.Equal(t, in.Series[0].Labels, out.Series[0].Labels)
	assert.Equal(t, "12", out.Series[1].Value.String())
	assert.Empty(t, out.Series[1].Labels)
}

func TestSave_ReplacesPrevious(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, snapshot.New(time.Unix(1, 0), []snapshot.SeriesValue{
		snapshot.Uint("a", 1), snapshot.Uint("b", 2), snapshot.Uint("c", 3),
	})))
	require.NoError(t, s.Save(ctx, snapshot.New(time.Unix(2, 0), []snapshot.SeriesValue{
		snapshot.Uint("d", 4),
	})))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out.Series, 1)
	assert.Equal(t, "d", out.Series[0].Name)
	assert.Equal(t, int64(2), out.GeneratedAt.Unix())
}

func TestReopen_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s, err := NewSQLite(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, snapshot.New(time.Unix(5, 0), []snapshot.SeriesValue{snapshot.Uint("x", 9)})))
	require.NoError(t, s.Close())

	s2, err := NewSQLite(path, nil)
	require.NoError(t, err)
	defer s2.Close()

	out, err := s2.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "9", out.Series[0].Value.String())
}

func TestNewSQLite_RequiresPath(t *testing.T) {
	_, err := NewSQLite("", nil)
	assert.Error(t, err)
}
