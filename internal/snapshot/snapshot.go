// internal/snapshot/snapshot.go
package snapshot

import (
	"math/big"
	"time"
)

// Label is one exposition label. Order is preserved as given.
type Label struct {
	Key   string
	Value string
}

// SeriesValue is one observed value of one series.
// The value is an arbitrary-precision integer, never a float.
type SeriesValue struct {
	Name   string
	Labels []Label
	Value  *big.Int
}

// NewSeries copies value so later mutation by the caller cannot leak in.
func NewSeries(name string, value *big.Int, labels ...Label) SeriesValue {
	v := new(big.Int)
	if value != nil {
		v.Set(value)
	}
	return SeriesValue{Name: name, Labels: labels, Value: v}
}

// Uint is a convenience for small values.
func Uint(name string, value uint64, labels ...Label) SeriesValue {
	return SeriesValue{Name: name, Labels: labels, Value: new(big.Int).SetUint64(value)}
}

// Snapshot is the complete output of one collection cycle.
// Immutable once handed to a Store: nothing may modify Series after Publish.
type Snapshot struct {
	GeneratedAt time.Time
	Series      []SeriesValue
}

// New builds a snapshot from series produced by one cycle.
func New(at time.Time, series []SeriesValue) *Snapshot {
	return &Snapshot{GeneratedAt: at, Series: series}
}

// Empty is the snapshot visible before the first cycle completes.
func Empty() *Snapshot {
	return &Snapshot{}
}

// Len returns the number of series.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Series)
}
