package estimate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbase/tsmerge/estimate"
)

func TestMergeCostModelNotEnoughObservations(t *testing.T) {
	m := estimate.NewMergeCostModel()
	_, ok := m.Estimate(1000)
	assert.False(t, ok)

	m.Observe(1000, time.Second)
	_, ok = m.Estimate(1000)
	assert.False(t, ok, "a single observation cannot fit a curve")
}

func TestMergeCostModelLinearFit(t *testing.T) {
	m := estimate.NewMergeCostModel()

	// Roughly linear: 1ms per 1000 rows.
	for _, rows := range []int{1000, 2000, 4000, 8000, 16000} {
		m.Observe(rows, time.Duration(rows)*time.Microsecond)
	}

	require.Equal(t, 5, m.Len())

	fit := m.Fit()
	require.NotNil(t, fit)
	assert.Greater(t, fit.RSquared, 0.99)

	est, ok := m.Estimate(32000)
	require.True(t, ok)
	assert.InDelta(t, float64(32*time.Millisecond), float64(est), float64(4*time.Millisecond))
}

func TestMergeCostModelIgnoresNonPositiveRows(t *testing.T) {
	m := estimate.NewMergeCostModel()
	m.Observe(0, time.Second)
	m.Observe(-5, time.Second)

	assert.Equal(t, 0, m.Len())
}
