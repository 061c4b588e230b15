package protocols

import (
	"github.com/holiman/uint256"

	"github.com/malik672/brontes-go/types"
)

// addrFromTopic extracts the right-aligned 20-byte address an indexed event
// parameter is padded into within its 32-byte topic.
func addrFromTopic(topic types.Hash) types.Address {
	var a types.Address
	copy(a[:], topic[12:])
	return a
}

// addrFromWord extracts the right-aligned 20-byte address from a raw
// 32-byte ABI word (a non-indexed address parameter in log data).
func addrFromWord(word32 []byte) types.Address {
	var a types.Address
	if len(word32) >= 32 {
		copy(a[:], word32[12:32])
	}
	return a
}

// word reads the 32-byte, big-endian ABI word at index i from data (the
// non-indexed portion of a log, or a call's calldata after its 4-byte
// selector). Out-of-range reads return zero, matching a decoder's general
// policy of degrading to "nothing recognized" rather than panicking on a
// malformed frame.
func word(data []byte, i int) *uint256.Int {
	start := i * 32
	end := start + 32
	if start < 0 || end > len(data) {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).SetBytes(data[start:end])
}
