//go:build !linux

package combogen

// madviseSequential is a no-op on non-Linux platforms.
func madviseSequential(data []byte) {}

// madviseRandom is a no-op on non-Linux platforms.
func madviseRandom(data []byte) {}
