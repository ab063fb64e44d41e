package o3_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbase/tsmerge/o3"
)

func TestCounter_CountDownReportsLast(t *testing.T) {
	c := o3.NewCounter(2)

	isLast, err := c.CountDown()
	require.NoError(t, err)
	assert.False(t, isLast)

	isLast, err = c.CountDown()
	require.NoError(t, err)
	assert.True(t, isLast)
}

func TestCounter_CountDownPastZeroIsInvariantViolation(t *testing.T) {
	c := o3.NewCounter(1)

	_, err := c.CountDown()
	require.NoError(t, err)

	_, err = c.CountDown()
	require.Error(t, err)
}

func TestLatch_SignalsExactlyOnce(t *testing.T) {
	l := o3.NewLatch()
	assert.False(t, l.Signalled())

	require.NoError(t, l.Signal())
	assert.True(t, l.Signalled())

	select {
	case <-l.Done():
	default:
		t.Fatal("latch Done channel should be closed after Signal")
	}

	err := l.Signal()
	require.Error(t, err)
}
