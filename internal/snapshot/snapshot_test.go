// internal/snapshot/snapshot_test.go
package snapshot

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_LargeValueVerbatim(t *testing.T) {
	v, ok := new(big.Int).SetString("346192603472053121587099", 10)
	require.True(t, ok)

	s := New(time.Unix(100, 0), []SeriesValue{
		NewSeries(MetricBalance, v,
			Label{LabelChainID, "1"},
			Label{LabelVault, "0xabc"},
		),
		Uint(MetricUpdatedAt, 1700000000, Label{LabelChainID, "1"}),
	})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))

	want := "balance{chain_id=\"1\",vault=\"0xabc\"} 346192603472053121587099\n" +
		"updated_at{chain_id=\"1\"} 1700000000\n"
	assert.Equal(t, want, buf.String())
}

func TestEncode_EscapesLabelValues(t *testing.T) {
	s := New(time.Now(), []SeriesValue{
		Uint(MetricTokenDecimals, 18, Label{LabelSymbol, "a\"b\\c\nd"}),
	})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))
	assert.Equal(t, `token_decimals{symbol="a\"b\\c\nd"} 18`+"\n", buf.String())
}

func TestEncode_NoLabels(t *testing.T) {
	s := New(time.Now(), []SeriesValue{Uint("relay_round", 3)})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))
	assert.Equal(t, "relay_round 3\n", buf.String())
}

func TestNewSeries_CopiesValue(t *testing.T) {
	v := big.NewInt(10)
	sv := NewSeries(MetricBalance, v)
	v.SetInt64(99)
	assert.Equal(t, int64(10), sv.Value.Int64())
}

func TestStore_StartsEmpty(t *testing.T) {
	st := NewStore(nil)
	require.NotNil(t, st.Current())
	assert.Equal(t, 0, st.Current().Len())
	assert.True(t, st.Current().GeneratedAt.IsZero())
}

func TestStore_RejectsOlderCandidate(t *testing.T) {
	st := NewStore(nil)
	newer := New(time.Unix(200, 0), nil)
	older := New(time.Unix(100, 0), nil)

	assert.True(t, st.Publish(newer))
	assert.False(t, st.Publish(older))
	assert.Same(t, newer, st.Current())
	assert.False(t, st.Publish(nil))
}

// Every reader must observe exactly one of the published candidates,
// never a mixture. Each candidate tags all its series with its own cycle id.
func TestStore_ConcurrentPublishAndRead(t *testing.T) {
	const (
		cycles  = 200
		perSnap = 50
		readers = 8
	)

	candidates := make([]*Snapshot, cycles)
	base := time.Unix(1_000_000, 0)
	for i := range candidates {
		series := make([]SeriesValue, perSnap)
		for j := range series {
			series[j] = Uint(MetricBalance, uint64(i), Label{"cycle", fmt.Sprint(i)})
		}
		candidates[i] = New(base.Add(time.Duration(i)*time.Second), series)
	}

	st := NewStore(nil)
	done := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan string, readers)

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last time.Time
			for {
				select {
				case <-done:
					return
				default:
				}
				s := st.Current()
				if s.GeneratedAt.Before(last) {
					errs <- "generation time went backwards"
					return
				}
				last = s.GeneratedAt
				if s.Len() == 0 {
					continue
				}
				if s.Len() != perSnap {
					errs <- fmt.Sprintf("torn snapshot: %d series", s.Len())
					return
				}
				want := s.Series[0].Labels[0].Value
				for _, sv := range s.Series {
					if sv.Labels[0].Value != want {
						errs <- "snapshot mixes two cycles"
						return
					}
				}
			}
		}()
	}

	for _, c := range candidates {
		require.True(t, st.Publish(c))
	}
	close(done)
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Fatal(msg)
	}
	assert.Same(t, candidates[cycles-1], st.Current())
	assert.True(t, strings.HasPrefix(st.Current().Series[0].Labels[0].Value, "199"))
}
