package o3

import (
	"time"

	"github.com/colbase/tsmerge/format"
	"github.com/colbase/tsmerge/internal/hash"
	"github.com/colbase/tsmerge/mergeindex"
	"github.com/colbase/tsmerge/region"
	"github.com/colbase/tsmerge/vfs"
)

// ColumnDescriptor is the immutable, producer-published description of one
// column's role in a partition's O3 merge: its storage shape, size class
// (for fixed-width columns), and whether it participates in the bitmap
// index.
type ColumnDescriptor struct {
	Name      string
	Type      format.ColumnType
	SizeClass format.SizeClass
	Indexed   bool
}

// TeardownTarget pairs a mapped Region with the file Handle it came from, so
// the last copy task for a column can unmap and close it. Unmap is skipped
// for a zero Region; close is skipped for an invalid Handle.
type TeardownTarget struct {
	Region region.Region
	Handle vfs.Handle
}

// ColumnResources holds every memory-mapped region a single column's O3
// merge might touch across all of its copy tasks: the out-of-order source,
// the on-disk source, and the freshly materialized destination. A
// column with only OO or only DATA blocks leaves the unused side's fields
// as zero Regions, which Teardown() skips.
//
// The common case tears down four regions (src-fixed, src-var, dst-fixed,
// dst-var) for a column touched by only one source side. A column with any
// MERGE block needs both sources simultaneously, so teardown generalizes to
// "every non-empty resource this column opened," skipping whichever Regions
// were never mapped.
type ColumnResources struct {
	OOOFixed, OOOVar   TeardownTarget
	DiskFixed, DiskVar TeardownTarget
	DstFixed, DstVar   TeardownTarget
}

// Teardown unmaps and closes every non-empty resource in cr, via fs.
// It is invoked exactly once per column, by the last copy task to decrement
// that column's partCounter to zero.
func (cr *ColumnResources) Teardown(fs vfs.FS) error {
	targets := []TeardownTarget{cr.OOOFixed, cr.OOOVar, cr.DiskFixed, cr.DiskVar, cr.DstFixed, cr.DstVar}

	for _, t := range targets {
		if !t.Region.Empty() {
			if err := fs.Munmap(t.Region); err != nil {
				return err
			}
		}

		if t.Handle != nil && t.Handle.Valid() {
			if err := fs.Close(t.Handle); err != nil {
				return err
			}
		}
	}

	return nil
}

// PartitionTask is the immutable description of one partition's O3 work.
// It is mutated only by the producer before publish and is read-only to the
// consumer thereafter.
type PartitionTask struct {
	FS            vfs.FS
	PartitionPath string
	PartitionBy   string // partitioning discriminator (e.g. "DAY", "MONTH")

	Columns   []ColumnDescriptor
	Resources []*ColumnResources // parallel to Columns

	MinTimestamp, MaxTimestamp int64
	PartitionTimestamp         int64
	CurrentMaxTimestamp        int64
	TxnNum                     uint64
	IsLastPartition            bool
	SortedTimestamps           []int64

	// OnTableWriterDone is invoked by the last column's teardown, handing
	// control back to the table writer's transaction envelope.
	OnTableWriterDone func(*PartitionTask)

	// StartedAt is stamped by the producer when the partition task is
	// published. Paired with OnPartitionComplete to report merge wall-clock
	// time for the estimate package's cost model. Zero if the producer
	// doesn't care to time it.
	StartedAt time.Time

	// OnPartitionComplete is invoked once, after the completion latch
	// signals, with the row count merged and the elapsed time since
	// StartedAt. Purely advisory: nothing in the merge path depends on it.
	// May be nil.
	OnPartitionComplete func(rows int, elapsed time.Duration)

	MergeIndex    *mergeindex.Index
	ColumnCounter *Counter // columnCounter, shared across all of this partition's columns
	Latch         *Latch
}

// TaskID returns a fast, collision-tolerant correlation key for this
// partition's log lines — an xxhash64 of the partition path and txn number,
// purely a debugging aid with no behavior depending on it.
func (p *PartitionTask) TaskID() uint64 {
	return hash.PartitionID(p.PartitionPath, p.TxnNum)
}

// RowCount returns the number of output rows this partition's merge
// produced, for the estimate package's cost model: the sorted-timestamp
// count when the producer supplied one, falling back to the merge index's
// length.
func (p *PartitionTask) RowCount() int {
	if len(p.SortedTimestamps) > 0 {
		return len(p.SortedTimestamps)
	}

	return p.MergeIndex.Len()
}

// NewPartitionTask creates a PartitionTask with a fresh columnCounter sized
// to len(columns) and an unsignalled completion latch.
func NewPartitionTask(fs vfs.FS, partitionPath, partitionBy string, columns []ColumnDescriptor) *PartitionTask {
	return &PartitionTask{
		FS:            fs,
		PartitionPath: partitionPath,
		PartitionBy:   partitionBy,
		Columns:       columns,
		Resources:     make([]*ColumnResources, len(columns)),
		ColumnCounter: NewCounter(len(columns)),
		Latch:         NewLatch(),
	}
}

// CopyTask is one (column × block-type) unit of work fanned out from a
// PartitionTask. It is snapshotted by value by the consumer
// before the ring cursor is acknowledged.
type CopyTask struct {
	Partition   *PartitionTask
	ColumnIndex int
	BlockType   format.BlockType

	// Single-sided source, used for BlockOO and BlockData. For BlockOO this
	// is the out-of-order column; for BlockData, the on-disk column.
	SrcFixed, SrcVar region.Region
	SrcLo, SrcHi     int // inclusive row range on the selected side

	// Both-sided source, used for BlockMerge only.
	OOOFixed, OOOVar   region.Region
	DiskFixed, DiskVar region.Region

	DstFixed, DstVar region.Region
	DstRowOffset     int // destination row offset (fixed-width columns)
	DstByteOffset    int // destination var-file byte offset (variable-width columns)

	PartCounter *Counter // partCounter for this column, shared across its copy tasks
}
