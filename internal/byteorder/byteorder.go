// Package byteorder reports the host's native byte order. Every block
// format in this module is little-endian on disk regardless of it.
package byteorder

import "unsafe"

// IsBigEndian reports whether the running host is big-endian. All posting
// formats are little-endian on disk; the posting encoders/decoders do not
// consult this flag, since encoding/binary.LittleEndian already produces
// and reads that order on any host.
var IsBigEndian = func() bool {
	var x uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&x))
	return b[0] == 0
}()
