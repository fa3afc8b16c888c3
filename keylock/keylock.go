// Package keylock provides striped mutual exclusion keyed by strings. Keys are hashed
// to one of a fixed number of stripes so that operations on the same key are serialized
// while operations on different keys mostly proceed in parallel
package keylock

import (
	"fmt"
	"hash/crc32"
	"math"
	"sync"
)

// Stripes holds a power-of-two number of mutexes
type Stripes struct {
	locks    []sync.Mutex
	hashMask int
}

// New returns a new set of stripes. The stripe count must be a power of two
func New(stripeCount int) (s *Stripes, err error) {
	if !isPowerOfTwo(stripeCount) {
		return nil, fmt.Errorf("Key locks can only work with a stripeCount that is a power of two but was [%d]", stripeCount)
	}

	s = new(Stripes)
	s.locks = make([]sync.Mutex, stripeCount)
	s.hashMask = hashMask(stripeCount)

	return s, nil
}

// Lock acquires the stripe for the key formed by parts and returns the function
// releasing it
func (s *Stripes) Lock(parts ...string) (unlock func()) {
	m := &s.locks[s.stripeFor(parts...)]
	m.Lock()

	return m.Unlock
}

// stripeFor returns the stripe index for a key
func (s *Stripes) stripeFor(parts ...string) (stripe int) {
	hasher := crc32.NewIEEE()
	for _, p := range parts {
		hasher.Write([]byte(p))
		// Separator so that ("ab", "c") and ("a", "bc") don't collide by construction
		hasher.Write([]byte{0})
	}

	// Keep only the rightmost bits so we have a max equal to the stripe count
	return int(hasher.Sum32()) & s.hashMask
}

// isPowerOfTwo returns true if val is a power of two or false if not
func isPowerOfTwo(val int) bool {
	return (val > 0) && (val&(val-1)) == 0
}

// hashMask builds a mask for a stripeCount (which should be a power of two) to get a hash value
// that is in the range of the number of stripes we have
func hashMask(stripeCount int) int {
	maskSize := int(math.Log2(float64(stripeCount)))
	mask := 0
	for i := 0; i < maskSize; i++ {
		mask = mask<<1 | 1
	}

	return mask
}
