package value

import (
	"fmt"
	"math/big"
)

// Int128 is a 128-bit two's complement signed integer.
// Value = Hi * 2^64 + Lo.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Uint128 is a 128-bit unsigned integer.
// Value = Hi * 2^64 + Lo.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

var (
	two64      = new(big.Int).Lsh(big.NewInt(1), 64)
	two128     = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxUint128 = new(big.Int).Sub(two128, big.NewInt(1))
	mask64     = new(big.Int).Sub(two64, big.NewInt(1))
)

// Int128FromInt64 sign-extends n to 128 bits.
func Int128FromInt64(n int64) Int128 {
	hi := int64(0)
	if n < 0 {
		hi = -1
	}
	return Int128{Hi: hi, Lo: uint64(n)}
}

// Uint128FromUint64 zero-extends n to 128 bits.
func Uint128FromUint64(n uint64) Uint128 {
	return Uint128{Lo: n}
}

// Big returns x as a big.Int.
func (x Int128) Big() *big.Int {
	b := new(big.Int).Lsh(big.NewInt(x.Hi), 64)
	return b.Add(b, new(big.Int).SetUint64(x.Lo))
}

// String renders x in base 10.
func (x Int128) String() string {
	return x.Big().String()
}

// Int128FromBig converts b, failing when b is outside the 128-bit signed range.
func Int128FromBig(b *big.Int) (Int128, error) {
	if b.Cmp(minInt128) < 0 || b.Cmp(maxInt128) > 0 {
		return Int128{}, fmt.Errorf("%s overflows int128", b)
	}
	m := new(big.Int).Mod(b, two128) // two's complement bit pattern
	lo := new(big.Int).And(m, mask64).Uint64()
	hi := new(big.Int).Rsh(m, 64).Uint64()
	return Int128{Hi: int64(hi), Lo: lo}, nil
}

// ParseInt128 parses a base 10 integer into an Int128.
func ParseInt128(s string) (Int128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int128{}, fmt.Errorf("invalid int128 %q", s)
	}
	return Int128FromBig(b)
}

// Big returns x as a big.Int.
func (x Uint128) Big() *big.Int {
	b := new(big.Int).Lsh(new(big.Int).SetUint64(x.Hi), 64)
	return b.Add(b, new(big.Int).SetUint64(x.Lo))
}

// String renders x in base 10.
func (x Uint128) String() string {
	return x.Big().String()
}

// Uint128FromBig converts b, failing when b is negative or wider than 128 bits.
func Uint128FromBig(b *big.Int) (Uint128, error) {
	if b.Sign() < 0 || b.Cmp(maxUint128) > 0 {
		return Uint128{}, fmt.Errorf("%s overflows uint128", b)
	}
	lo := new(big.Int).And(b, mask64).Uint64()
	hi := new(big.Int).Rsh(b, 64).Uint64()
	return Uint128{Hi: hi, Lo: lo}, nil
}

// ParseUint128 parses a base 10 integer into a Uint128.
func ParseUint128(s string) (Uint128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Uint128{}, fmt.Errorf("invalid uint128 %q", s)
	}
	return Uint128FromBig(b)
}
