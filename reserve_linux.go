//go:build linux

package combogen

import (
	"os"

	"golang.org/x/sys/unix"
)

// reserveFile pre-allocates disk blocks so a full disk surfaces before the
// run starts instead of as a short write halfway through it.
// FALLOC_FL_KEEP_SIZE leaves the file length untouched, so an interrupted
// run never leaves zero padding behind the last written line.
func reserveFile(file *os.File, size int64) error {
	return unix.Fallocate(int(file.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
