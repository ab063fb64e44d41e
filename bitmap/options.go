package bitmap

import "github.com/colbase/tsmerge/internal/options"

// Option configures a Writer at Open time, in the functional-options style
// used throughout this module.
type Option = options.Option[*Writer]

// WithFsync enables an fsync of the key file handle after every header
// commit, trading write throughput for a stronger durability guarantee
// than the mmap'd writes alone provide. Off by default: recovery from torn
// writes when the host violates its fsync policy is out of scope here, so
// leaving this off is the caller's choice to make.
func WithFsync(enabled bool) Option {
	return options.NoError[*Writer](func(w *Writer) {
		w.syncOnCommit = enabled
	})
}
