package combogen

import (
	"encoding/binary"
	"time"
	"unsafe"

	"github.com/spaolacci/murmur3"
)

// workerSeed derives the PRNG seed for one worker of one batch.
//
// Unseeded runs mix the wall clock, the worker id and the address of the
// worker's task, so concurrent workers and back-to-back runs never share a
// stream. WithSeed replaces the clock and the address with the fixed seed.
// The result is not suitable for anything security-sensitive.
func workerSeed(cfg *genConfig, task *Task, length int) uint64 {
	var material [32]byte
	if cfg.seeded {
		binary.LittleEndian.PutUint64(material[0:], cfg.seed)
	} else {
		binary.LittleEndian.PutUint64(material[0:], uint64(time.Now().UnixNano()))
		binary.LittleEndian.PutUint64(material[16:], uint64(uintptr(unsafe.Pointer(task))))
	}
	binary.LittleEndian.PutUint64(material[8:], uint64(task.Worker))
	binary.LittleEndian.PutUint64(material[24:], uint64(length))
	return murmur3.Sum64WithSeed(material[:], uint32(task.Worker))
}
