package archive

import "github.com/colbase/tsmerge/endian"

// le is the byte order used for the archive header's length field.
var le = endian.GetLittleEndianEngine()
