package region

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/colbase/tsmerge/errs"
)

// AtomicLoadUint64 and AtomicStoreUint64 give the bitmap index writer's
// sequence/sequence-check and count/count-check commit protocol explicit
// release/acquire ordering between writes. Go has no standalone fence
// primitive, so an atomic store/load pair on the same memory location is
// the idiomatic substitute: per the Go memory model, an atomic store
// synchronizes-with a later atomic load of the same address that observes
// it, which is exactly the single-writer/multi-reader visibility guarantee
// the header commit protocol depends on.
//
// off must be 8-byte aligned; this module only ever uses these at the
// fixed header/entry field offsets, which are all naturally 8-byte aligned
// by construction.

func (r Region) checkAtomicOffset(off int) error {
	if off%8 != 0 {
		return fmt.Errorf("atomic access at unaligned offset %d: %w", off, errs.ErrRegionOutOfBounds)
	}

	return r.checkRange(off, 8)
}

// AtomicLoadUint64 atomically reads a uint64 at off.
func (r Region) AtomicLoadUint64(off int) (uint64, error) {
	if err := r.checkAtomicOffset(off); err != nil {
		return 0, err
	}

	ptr := (*uint64)(unsafe.Pointer(&r.b[off]))

	return atomic.LoadUint64(ptr), nil
}

// AtomicStoreUint64 atomically writes v at off.
func (r Region) AtomicStoreUint64(off int, v uint64) error {
	if err := r.checkAtomicOffset(off); err != nil {
		return err
	}

	ptr := (*uint64)(unsafe.Pointer(&r.b[off]))
	atomic.StoreUint64(ptr, v)

	return nil
}
