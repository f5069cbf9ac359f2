//go:build !linux && !darwin

package combogen

import "os"

// reserveFile is a no-op on platforms without a size-preserving
// preallocation call.
func reserveFile(file *os.File, size int64) error {
	return nil
}
