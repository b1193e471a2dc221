// Package kademlia implements the protocol engine of the overlay
// simulator: fixed-width XOR-metric identifiers, k-buckets with
// least-recently-seen eviction, per-node routing tables and the
// iterative FIND_NODE lookup.
package kademlia

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"strings"

	"github.com/holiman/uint256"
)

// MaxBits is the widest supported identifier. Random identifiers are
// derived from a SHA-256 digest, which caps the width at 256 bits.
const MaxBits = 256

var ErrInvalidArgument = errors.New("kademlia: invalid argument")

// ID is an immutable identifier of a fixed width between 1 and 256
// bits. Equality is over both the value and the width, so the same
// number in two differently sized identifier spaces compares unequal.
// IDs are comparable and usable as map keys.
type ID struct {
	bits  int
	value uint256.Int
}

// NewRandomID draws an identifier uniformly from [0, 2^bits). It draws
// 64 random bytes from rng, hashes them with SHA-256 and truncates the
// digest to the requested width, the same derivation live nodes use to
// turn arbitrary key material into identifiers.
func NewRandomID(bits int, rng *rand.Rand) (ID, error) {
	if bits < 1 || bits > MaxBits {
		return ID{}, fmt.Errorf("%w: identifier width %d outside [1, %d]", ErrInvalidArgument, bits, MaxBits)
	}
	var seed [64]byte
	rng.Read(seed[:])
	digest := sha256.Sum256(seed[:])

	var v uint256.Int
	v.SetBytes(digest[:])
	truncate(&v, bits)
	return ID{bits: bits, value: v}, nil
}

// ParseID parses an unprefixed hex string into an identifier of the
// given width.
func ParseID(hexStr string, bits int) (ID, error) {
	if bits < 1 || bits > MaxBits {
		return ID{}, fmt.Errorf("%w: identifier width %d outside [1, %d]", ErrInvalidArgument, bits, MaxBits)
	}
	n, ok := new(big.Int).SetString(hexStr, 16)
	if !ok || n.Sign() < 0 {
		return ID{}, fmt.Errorf("%w: malformed hex identifier %q", ErrInvalidArgument, hexStr)
	}
	if n.BitLen() > bits {
		return ID{}, fmt.Errorf("%w: identifier %q does not fit in %d bits", ErrInvalidArgument, hexStr, bits)
	}
	v, overflow := uint256.FromBig(n)
	if overflow {
		return ID{}, fmt.Errorf("%w: identifier %q does not fit in %d bits", ErrInvalidArgument, hexStr, bits)
	}
	return ID{bits: bits, value: *v}, nil
}

// Bits returns the identifier width.
func (id ID) Bits() int {
	return id.bits
}

// Equals reports whether both the value and the width match.
func (id ID) Equals(other ID) bool {
	return id == other
}

// Distance returns the XOR distance to other.
func (id ID) Distance(other ID) uint256.Int {
	var d uint256.Int
	d.Xor(&id.value, &other.value)
	return d
}

// BucketIndex returns the routing-table bucket that a peer identified
// by other occupies in the table owned by id: the position of the
// highest set bit of the XOR distance between the two. The owner
// itself maps to -1.
func (id ID) BucketIndex(other ID) int {
	d := id.Distance(other)
	return d.BitLen() - 1
}

// RandomInBucket returns an identifier whose distance from id has its
// highest set bit at position i, i.e. one that lands in bucket i of
// id's routing table. The result is id XOR r where r is a uniform
// (i+1)-bit value with bit i forced to one.
func (id ID) RandomInBucket(i int, rng *rand.Rand) (ID, error) {
	if i < 0 || i >= id.bits {
		return ID{}, fmt.Errorf("%w: bucket index %d outside [0, %d)", ErrInvalidArgument, i, id.bits)
	}
	r := randomBits(i, rng)
	var hi uint256.Int
	hi.Lsh(uint256.NewInt(1), uint(i))
	r.Or(&r, &hi)

	var v uint256.Int
	v.Xor(&id.value, &r)
	return ID{bits: id.bits, value: v}, nil
}

// Text renders the identifier in the given base. Base 2 is left-padded
// with zeros to the identifier width; base 16 is minimal lowercase.
func (id ID) Text(base int) string {
	s := id.value.ToBig().Text(base)
	if base == 2 && len(s) < id.bits {
		s = strings.Repeat("0", id.bits-len(s)) + s
	}
	return s
}

// String renders the identifier as minimal lowercase hex.
func (id ID) String() string {
	return id.Text(16)
}

// randomBits draws a uniform value from [0, 2^n).
func randomBits(n int, rng *rand.Rand) uint256.Int {
	var buf [32]byte
	rng.Read(buf[:])
	var v uint256.Int
	v.SetBytes(buf[:])
	truncate(&v, n)
	return v
}

// truncate zeroes every bit of v at position bits and above.
func truncate(v *uint256.Int, bits int) {
	if bits >= MaxBits {
		return
	}
	var mask uint256.Int
	mask.Lsh(uint256.NewInt(1), uint(bits))
	mask.SubUint64(&mask, 1)
	v.And(v, &mask)
}
