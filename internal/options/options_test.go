package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ringConfig struct {
	workers  int
	capacity int
}

func withWorkers(n int) Option[*ringConfig] {
	return NoError[*ringConfig](func(c *ringConfig) {
		c.workers = n
	})
}

func withCapacity(n int) Option[*ringConfig] {
	return New[*ringConfig](func(c *ringConfig) error {
		if n <= 0 {
			return errors.New("capacity must be positive")
		}

		c.capacity = n

		return nil
	})
}

func TestApplyRunsInOrder(t *testing.T) {
	cfg := &ringConfig{}

	require.NoError(t, Apply(cfg, withWorkers(4), withCapacity(64), withWorkers(8)))
	assert.Equal(t, 8, cfg.workers)
	assert.Equal(t, 64, cfg.capacity)
}

func TestApplyStopsAtFirstError(t *testing.T) {
	cfg := &ringConfig{}

	err := Apply(cfg, withCapacity(-1), withWorkers(4))
	require.Error(t, err)
	assert.Zero(t, cfg.workers, "options after the failing one must not run")
}

func TestApplyNoOptions(t *testing.T) {
	cfg := &ringConfig{}
	require.NoError(t, Apply(cfg))
	assert.Zero(t, *cfg)
}
