package o3_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbase/tsmerge/bitmap"
	"github.com/colbase/tsmerge/estimate"
	"github.com/colbase/tsmerge/format"
	"github.com/colbase/tsmerge/o3"
	"github.com/colbase/tsmerge/region"
	"github.com/colbase/tsmerge/vfs"
)

// openMapped opens path on fs, truncates it to the given bytes and writes
// them, then maps it back in so the test can build a region.Region over
// real (fake) file-system plumbing instead of bare region.New.
func openMapped(t *testing.T, fs vfs.FS, path string, data []byte) (vfs.Handle, region.Region) {
	t.Helper()

	h, err := fs.Open(path)
	require.NoError(t, err)
	require.NoError(t, fs.Truncate(h, int64(len(data))))

	r, err := fs.Mmap(h, len(data))
	require.NoError(t, err)

	copy(r.Bytes(), data)

	return h, r
}

// TestJobTwoColumnPartitionEndToEnd drives two OO-block fixed-width
// columns through RunPool with multiple workers, exercising the
// part/column counter and latch teardown chain and the
// OnPartitionComplete cost-model hook.
func TestJobTwoColumnPartitionEndToEnd(t *testing.T) {
	fs := vfs.NewMemory()

	srcH0, src0 := openMapped(t, fs, "/p/src0", []byte{1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0})
	srcH1, src1 := openMapped(t, fs, "/p/src1", []byte{10, 0, 0, 0, 20, 0, 0, 0})

	dstH0, dst0 := openMapped(t, fs, "/p/dst0", make([]byte, 16))
	dstH1, dst1 := openMapped(t, fs, "/p/dst1", make([]byte, 8))

	cols := []o3.ColumnDescriptor{
		{Name: "ts", Type: format.ColumnFixed, SizeClass: format.SizeClass8},
		{Name: "val", Type: format.ColumnFixed, SizeClass: format.SizeClass4},
	}

	partition := o3.NewPartitionTask(fs, "/p", "DAY", cols)
	partition.SortedTimestamps = []int64{100, 200}
	partition.StartedAt = time.Now().Add(-5 * time.Millisecond)

	costModel := estimate.NewMergeCostModel()
	partition.OnPartitionComplete = func(rows int, elapsed time.Duration) {
		costModel.Observe(rows, elapsed)
	}

	partition.Resources[0] = &o3.ColumnResources{
		OOOFixed: o3.TeardownTarget{Region: src0, Handle: srcH0},
		DstFixed: o3.TeardownTarget{Region: dst0, Handle: dstH0},
	}
	partition.Resources[1] = &o3.ColumnResources{
		OOOFixed: o3.TeardownTarget{Region: src1, Handle: srcH1},
		DstFixed: o3.TeardownTarget{Region: dst1, Handle: dstH1},
	}

	ring := o3.NewBoundedRing(4)

	ring.Publish(&o3.CopyTask{
		Partition: partition, ColumnIndex: 0, BlockType: format.BlockOO,
		SrcFixed: src0, SrcLo: 0, SrcHi: 1,
		DstFixed: dst0, DstRowOffset: 0,
		PartCounter: o3.NewCounter(1),
	})
	ring.Publish(&o3.CopyTask{
		Partition: partition, ColumnIndex: 1, BlockType: format.BlockOO,
		SrcFixed: src1, SrcLo: 0, SrcHi: 1,
		DstFixed: dst1, DstRowOffset: 0,
		PartCounter: o3.NewCounter(1),
	})
	ring.Close()

	job := &o3.Job{Ring: ring}

	require.NoError(t, o3.RunPool(job, o3.WithWorkers(3)))

	assert.True(t, partition.Latch.Signalled())
	assert.EqualValues(t, 0, partition.ColumnCounter.Value())
	assert.Equal(t, src0.Bytes(), dst0.Bytes())
	assert.Equal(t, src1.Bytes(), dst1.Bytes())

	assert.Equal(t, 1, costModel.Len())
}

// TestJobIndexedSymbolColumn drives an indexed symbol column through the
// job and checks that the last copy task ran the bitmap index writer over
// the materialized destination: every (symbol, rowID) pair must be
// readable back from the index.
func TestJobIndexedSymbolColumn(t *testing.T) {
	fs := vfs.NewMemory()

	// Three symbol rows: 7, 7, 9.
	srcH, src := openMapped(t, fs, "/p/sym-src", []byte{
		7, 0, 0, 0,
		7, 0, 0, 0,
		9, 0, 0, 0,
	})
	dstH, dst := openMapped(t, fs, "/p/sym-dst", make([]byte, 12))

	cols := []o3.ColumnDescriptor{
		{Name: "sym", Type: format.ColumnFixed, SizeClass: format.SizeClass4, Indexed: true},
	}

	partition := o3.NewPartitionTask(fs, "/p", "DAY", cols)
	partition.Resources[0] = &o3.ColumnResources{
		OOOFixed: o3.TeardownTarget{Region: src, Handle: srcH},
		DstFixed: o3.TeardownTarget{Region: dst, Handle: dstH},
	}

	idx, err := bitmap.Open(fs, "/p", "sym", 4)
	require.NoError(t, err)

	ring := o3.NewBoundedRing(1)
	ring.Publish(&o3.CopyTask{
		Partition: partition, ColumnIndex: 0, BlockType: format.BlockOO,
		SrcFixed: src, SrcLo: 0, SrcHi: 2,
		DstFixed: dst, DstRowOffset: 0,
		PartCounter: o3.NewCounter(1),
	})
	ring.Close()

	job := &o3.Job{Ring: ring, BuildIndex: o3.NewSymbolIndexBuilder(idx)}
	require.NoError(t, job.Run())
	require.NoError(t, idx.Close())

	assert.True(t, partition.Latch.Signalled())

	r, err := bitmap.OpenReader(fs, "/p", "sym")
	require.NoError(t, err)
	defer r.Close()

	var rows7 []uint64
	for v := range r.Values(7) {
		rows7 = append(rows7, v)
	}
	assert.Equal(t, []uint64{0, 1}, rows7)

	var rows9 []uint64
	for v := range r.Values(9) {
		rows9 = append(rows9, v)
	}
	assert.Equal(t, []uint64{2}, rows9)
}
