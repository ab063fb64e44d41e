package o3

import (
	"fmt"
	"time"
)

// IndexBuilder is invoked by the last copy task for an indexed column, once
// that column's partCounter reaches zero, over the freshly materialized
// destination fixed region. The task's ColumnIndex identifies which
// ColumnDescriptor in the partition triggered it. NewSymbolIndexBuilder is
// the builder for 4-byte symbol columns backed by a bitmap.Writer.
type IndexBuilder func(task CopyTask) error

// Job is the O3 Copy Job consumer loop: it drains copy tasks
// from a Ring one at a time, dispatches each, and coordinates per-partition
// completion via the partCounter/columnCounter/latch protocol.
type Job struct {
	Ring Ring

	// BuildIndex is invoked for an indexed column's last copy task. May be
	// nil if no column in use is indexed.
	BuildIndex IndexBuilder
}

// Run drains tasks from j.Ring until it is closed (Get returns ok=false),
// processing each with ProcessOne. It returns the first error encountered;
// a failed copy task is fatal and aborts rather than attempting mid-merge
// rollback.
func (j *Job) Run() error {
	for {
		taskPtr, cursor, ok := j.Ring.Get()
		if !ok {
			return nil
		}

		if err := j.ProcessOne(taskPtr, cursor); err != nil {
			return err
		}
	}
}

// ProcessOne executes the consumer ordering protocol for a single task
// obtained from the ring at cursor:
//
//  1. Snapshot every field of the task into a local copy, so the producer
//     may reclaim the slot.
//  2. Acknowledge the ring cursor (releasing the slot) before executing the
//     copy.
//  3. Dispatch on blockType.
//  4. Decrement partCounter; on the transition to zero, build the bitmap
//     index (if indexed), tear down the column's resources, and decrement
//     columnCounter; on ITS transition to zero, release the merge index and
//     signal the partition's completion latch.
//
// The snapshot-then-ack-then-work order is mandatory: once a task's
// counters reach zero the task memory is reclaimed by the producer, so the
// cursor must already be released before that can happen.
func (j *Job) ProcessOne(taskPtr *CopyTask, cursor int64) error {
	t := *taskPtr // step 1: snapshot

	j.Ring.Done(cursor) // step 2: release the slot before doing any work

	if err := Dispatch(t); err != nil { // step 3
		return fmt.Errorf("dispatch column %d block %v: %w", t.ColumnIndex, t.BlockType, err)
	}

	return j.completeCopyTask(t) // step 4
}

func (j *Job) completeCopyTask(t CopyTask) error {
	isLastForColumn, err := t.PartCounter.CountDown()
	if err != nil {
		return fmt.Errorf("partCounter for column %d: %w", t.ColumnIndex, err)
	}

	if !isLastForColumn {
		return nil
	}

	desc := t.Partition.Columns[t.ColumnIndex]
	if desc.Indexed && j.BuildIndex != nil {
		if err := j.BuildIndex(t); err != nil {
			return fmt.Errorf("build index for column %d: %w", t.ColumnIndex, err)
		}
	}

	if res := t.Partition.Resources[t.ColumnIndex]; res != nil {
		if err := res.Teardown(t.Partition.FS); err != nil {
			return fmt.Errorf("teardown column %d: %w", t.ColumnIndex, err)
		}
	}

	return j.completePartitionColumn(t.Partition)
}

func (j *Job) completePartitionColumn(p *PartitionTask) error {
	isLastColumn, err := p.ColumnCounter.CountDown()
	if err != nil {
		return fmt.Errorf("columnCounter for partition %s: %w", p.PartitionPath, err)
	}

	if !isLastColumn {
		return nil
	}

	rows := p.RowCount() // must read before Release frees the merge index
	p.MergeIndex.Release()

	if err := p.Latch.Signal(); err != nil {
		return fmt.Errorf("partition %s: %w", p.PartitionPath, err)
	}

	if p.OnTableWriterDone != nil {
		p.OnTableWriterDone(p)
	}

	if p.OnPartitionComplete != nil && !p.StartedAt.IsZero() {
		p.OnPartitionComplete(rows, time.Since(p.StartedAt))
	}

	return nil
}
