package types

import "fmt"

// Pair is an ordered (base, quote) token pair used as a pricing query key.
// Pair{A, B} and Pair{B, A} are distinct values.
type Pair struct {
	Base  Address
	Quote Address
}

// NewPair builds a Pair from base and quote token addresses.
func NewPair(base, quote Address) Pair {
	return Pair{Base: base, Quote: quote}
}

// Flip returns the inverse pair (quote, base).
func (p Pair) Flip() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Base.Hex(), p.Quote.Hex())
}
