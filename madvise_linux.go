//go:build linux

package combogen

import "golang.org/x/sys/unix"

// madviseSequential marks a mapping for the single indexing scan so the
// kernel reads ahead aggressively.
func madviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}

// madviseRandom marks a mapping for generation, where tokens are touched in
// index order rather than file order and read-ahead is wasted.
func madviseRandom(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_RANDOM)
}
