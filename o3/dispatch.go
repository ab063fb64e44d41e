package o3

import (
	"fmt"

	"github.com/colbase/tsmerge/column"
	"github.com/colbase/tsmerge/errs"
	"github.com/colbase/tsmerge/format"
)

// Dispatch executes one copy task's actual byte movement: one handler per
// (block type, column type/size class), with explicit handlers for string,
// binary, and timestamp-with-row-index.
//
// Each block type is a separate case with its own column-type switch and an
// explicit return; a MERGE task can never fall through into a second,
// overlapping single-sided copy.
func Dispatch(t CopyTask) error {
	desc := t.Partition.Columns[t.ColumnIndex]

	switch t.BlockType {
	case format.BlockOO, format.BlockData:
		return dispatchSingleSided(t, desc)
	case format.BlockMerge:
		return dispatchMerge(t, desc)
	default:
		return fmt.Errorf("block type %v: %w", t.BlockType, errs.ErrUnknownBlockType)
	}
}

func dispatchSingleSided(t CopyTask, desc ColumnDescriptor) error {
	switch desc.Type {
	case format.ColumnFixed:
		return column.CopyFixed(t.SrcFixed, t.SrcLo, t.SrcHi, t.DstFixed, t.DstRowOffset*desc.SizeClass.Width(), desc.SizeClass)
	case format.ColumnString, format.ColumnBinary:
		return column.VarCopy(t.SrcFixed, t.SrcVar, t.SrcLo, t.SrcHi, t.DstFixed, t.DstVar, t.DstRowOffset*8, t.DstByteOffset)
	case format.ColumnTimestampRowID:
		return column.CopyTimestampRowID(t.SrcFixed, t.SrcLo, t.SrcHi, t.DstFixed, t.DstRowOffset*8)
	default:
		return fmt.Errorf("column type %v: %w", desc.Type, errs.ErrUnknownColumnType)
	}
}

func dispatchMerge(t CopyTask, desc ColumnDescriptor) error {
	idx := t.Partition.MergeIndex
	if idx.Len() == 0 {
		return fmt.Errorf("merge block for column %d: %w", t.ColumnIndex, errs.ErrEmptyMergeIndex)
	}

	switch desc.Type {
	case format.ColumnFixed:
		return column.ShuffleForSizeClass(t.OOOFixed, t.DiskFixed, idx, t.DstFixed, desc.SizeClass.Width())
	case format.ColumnString:
		_, err := column.StringMerge(t.OOOFixed, t.OOOVar, t.DiskFixed, t.DiskVar, idx, t.DstFixed, t.DstVar, t.DstByteOffset)
		return err
	case format.ColumnBinary:
		_, err := column.BinaryMerge(t.OOOFixed, t.OOOVar, t.DiskFixed, t.DiskVar, idx, t.DstFixed, t.DstVar, t.DstByteOffset)
		return err
	case format.ColumnTimestampRowID:
		return column.TimestampRowIDMerge(t.OOOFixed, t.DiskFixed, idx, t.DstFixed)
	default:
		return fmt.Errorf("column type %v: %w", desc.Type, errs.ErrUnknownColumnType)
	}
}
