//go:build darwin

package combogen

import (
	"os"

	"golang.org/x/sys/unix"
)

// reserveFile pre-allocates disk blocks so a full disk surfaces before the
// run starts. On macOS, uses fcntl F_PREALLOCATE, which reserves space
// without changing the file length.
func reserveFile(file *os.File, size int64) error {
	// F_PREALLOCATE with F_ALLOCATEALL - allocate all requested space or fail
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Offset:  0,
		Length:  size,
	}
	return unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst)
}
