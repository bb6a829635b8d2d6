package simulation

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// randomSeed draws a non-zero run seed from the OS entropy source.
func randomSeed() (uint64, error) {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("read seed: %w", err)
		}
		if s := binary.LittleEndian.Uint64(b[:]); s != 0 {
			return s, nil
		}
	}
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// streamSeed derives the PCG seed pair for one worker in one round, so no two
// workers in a run share a stream.
func streamSeed(runSeed uint64, round, worker int) (uint64, uint64) {
	hi := splitmix64(runSeed ^ splitmix64(uint64(round)<<32|uint64(uint32(worker))))
	lo := splitmix64(hi ^ 0xda942042e4dd58b5)
	return hi, lo
}
