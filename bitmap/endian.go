package bitmap

import "github.com/colbase/tsmerge/endian"

// le is the byte order used for every on-disk integer in the bitmap index
// files.
var le = endian.GetLittleEndianEngine()
