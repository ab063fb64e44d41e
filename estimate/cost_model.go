package estimate

import (
	"sync"
	"time"
)

// MergeCostModel accumulates (rowCount, elapsed) observations from
// completed partition merges and fits a cost curve on demand, so a caller
// can estimate how long a future merge of a given size is likely to take.
//
// It is safe for concurrent use: Observe is expected to be called from
// o3.Job's OnPartitionComplete hook, potentially from several worker
// goroutines finishing different partitions at once.
type MergeCostModel struct {
	mu   sync.Mutex
	rows []float64
	secs []float64
}

// NewMergeCostModel creates an empty cost model.
func NewMergeCostModel() *MergeCostModel {
	return &MergeCostModel{}
}

// Observe records one completed partition merge: rows processed and the
// wall-clock time it took.
func (m *MergeCostModel) Observe(rows int, elapsed time.Duration) {
	if rows <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = append(m.rows, float64(rows))
	m.secs = append(m.secs, elapsed.Seconds())
}

// Len reports how many observations have been recorded.
func (m *MergeCostModel) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.rows)
}

// Fit fits both candidate models against the observations so far and
// returns the one with the higher R². Returns nil if fewer than two
// observations have been recorded, since a line or power curve is
// underdetermined by a single point.
func (m *MergeCostModel) Fit() *Fit {
	m.mu.Lock()
	rows := append([]float64(nil), m.rows...)
	secs := append([]float64(nil), m.secs...)
	m.mu.Unlock()

	if len(rows) < 2 {
		return nil
	}

	linear := fitLinear(rows, secs)
	power := fitPower(rows, secs)

	if power.RSquared > linear.RSquared {
		return power
	}

	return linear
}

// Estimate predicts the merge time for a partition of rowCount rows, using
// the best-fitting model over observations recorded so far. Returns false
// if there are not yet enough observations to fit a model.
func (m *MergeCostModel) Estimate(rowCount int) (time.Duration, bool) {
	fit := m.Fit()
	if fit == nil {
		return 0, false
	}

	secs := fit.estimateSeconds(float64(rowCount))
	if secs < 0 {
		secs = 0
	}

	return time.Duration(secs * float64(time.Second)), true
}
