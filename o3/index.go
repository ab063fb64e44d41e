package o3

import (
	"fmt"

	"github.com/colbase/tsmerge/bitmap"
)

// NewSymbolIndexBuilder returns the IndexBuilder for an indexed 4-byte
// symbol column: once the column's last copy task has materialized the full
// destination fixed region, every row in [0, len/4) is appended to idx as
// (symbol value, row id), so a reader can walk a symbol's row list straight
// off the freshly merged partition.
func NewSymbolIndexBuilder(idx *bitmap.Writer) IndexBuilder {
	return func(t CopyTask) error {
		dst := t.DstFixed
		rows := dst.Len() / 4

		for row := 0; row < rows; row++ {
			sym, err := dst.Uint32(row * 4)
			if err != nil {
				return fmt.Errorf("index column %d row %d: %w", t.ColumnIndex, row, err)
			}

			if err := idx.Add(uint64(sym), uint64(row)); err != nil {
				return fmt.Errorf("index column %d row %d: %w", t.ColumnIndex, row, err)
			}
		}

		return nil
	}
}
