package types

import "math/big"

// Rational is an arbitrary-precision, exact fraction. All price, TVL, and
// weight arithmetic on the pricing path goes through this type instead of
// float64: the oracle's price-symmetry invariant (price(A,B)*price(B,A)==1)
// only holds exactly under exact rational arithmetic.
//
// math/big's Rat is used directly rather than wrapped behind a third-party
// decimal library: no example in the retrieved corpus ships an exact
// arbitrary-precision fraction type, and fixed-point decimals (the one
// adjacent dependency seen in the pack, shopspring/decimal) cannot
// represent 1/3 exactly, which this system's reciprocal-composition math
// requires.
type Rational struct {
	r *big.Rat
}

// Zero is the rational 0/1.
var Zero = Rational{r: new(big.Rat)}

// One is the rational 1/1.
var One = Rational{r: big.NewRat(1, 1)}

// NewRational builds num/den.
func NewRational(num, den int64) Rational {
	return Rational{r: big.NewRat(num, den)}
}

// FromBigInt builds an integral rational n/1.
func FromBigInt(n *big.Int) Rational {
	return Rational{r: new(big.Rat).SetInt(n)}
}

// FromUint64 builds an integral rational n/1.
func FromUint64(n uint64) Rational {
	return Rational{r: new(big.Rat).SetUint64(n)}
}

// IsZero reports whether r is exactly zero.
func (r Rational) IsZero() bool {
	return r.r == nil || r.r.Sign() == 0
}

// Sign returns -1, 0, or 1.
func (r Rational) Sign() int {
	if r.r == nil {
		return 0
	}
	return r.r.Sign()
}

func (r Rational) rat() *big.Rat {
	if r.r == nil {
		return new(big.Rat)
	}
	return r.r
}

// Add returns r + other.
func (r Rational) Add(other Rational) Rational {
	return Rational{r: new(big.Rat).Add(r.rat(), other.rat())}
}

// Sub returns r - other.
func (r Rational) Sub(other Rational) Rational {
	return Rational{r: new(big.Rat).Sub(r.rat(), other.rat())}
}

// Mul returns r * other.
func (r Rational) Mul(other Rational) Rational {
	return Rational{r: new(big.Rat).Mul(r.rat(), other.rat())}
}

// Quo returns r / other. Panics if other is zero, matching big.Rat.Quo.
func (r Rational) Quo(other Rational) Rational {
	return Rational{r: new(big.Rat).Quo(r.rat(), other.rat())}
}

// Reciprocal returns 1/r. Panics if r is zero.
func (r Rational) Reciprocal() Rational {
	return Rational{r: new(big.Rat).Inv(r.rat())}
}

// Cmp compares r to other: -1, 0, or +1.
func (r Rational) Cmp(other Rational) int {
	return r.rat().Cmp(other.rat())
}

// Less reports whether r < other.
func (r Rational) Less(other Rational) bool {
	return r.Cmp(other) < 0
}

// Equal reports whether r == other exactly.
func (r Rational) Equal(other Rational) bool {
	return r.Cmp(other) == 0
}

// Float64 returns the nearest float64 approximation, for display only —
// never for comparison or further arithmetic on the pricing path.
func (r Rational) Float64() float64 {
	f, _ := r.rat().Float64()
	return f
}

func (r Rational) String() string {
	return r.rat().RatString()
}
