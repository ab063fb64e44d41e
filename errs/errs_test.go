package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colbase/tsmerge/errs"
)

// Wrapping a narrow sentinel must be enough for callers to match the
// taxonomy bucket with errors.Is.
func TestNarrowSentinelsMatchTheirBucket(t *testing.T) {
	corrupt := []error{
		errs.ErrShortKeyFile,
		errs.ErrBadSignature,
		errs.ErrKeyFileSizeMismatch,
		errs.ErrValueFileSizeMismatch,
		errs.ErrSequenceMismatch,
		errs.ErrValueCountMismatch,
		errs.ErrBlockOffsetOutOfRange,
	}
	for _, err := range corrupt {
		wrapped := fmt.Errorf("key file /db/x.key: %w", err)
		assert.ErrorIs(t, wrapped, errs.ErrCorruptIndex, "%v", err)
		assert.NotErrorIs(t, wrapped, errs.ErrInvariantViolation, "%v", err)
	}

	invariant := []error{
		errs.ErrBlockSizeNotPowerOfTwo,
		errs.ErrCounterUnderflow,
		errs.ErrLatchDoubleSignal,
		errs.ErrEmptyMergeIndex,
		errs.ErrRegionOutOfBounds,
		errs.ErrUnknownBlockType,
		errs.ErrUnknownSizeClass,
		errs.ErrUnknownColumnType,
	}
	for _, err := range invariant {
		wrapped := fmt.Errorf("column 3: %w", err)
		assert.ErrorIs(t, wrapped, errs.ErrInvariantViolation, "%v", err)
		assert.NotErrorIs(t, wrapped, errs.ErrCorruptIndex, "%v", err)
	}
}

func TestBucketsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(errs.ErrCorruptIndex, errs.ErrIOFailure))
	assert.False(t, errors.Is(errs.ErrInvariantViolation, errs.ErrCorruptIndex))
}
