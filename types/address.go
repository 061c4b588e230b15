// Package types holds the small data model shared by every
// package in this module: addresses, ordered token pairs, and exact
// rational numbers for price math.
package types

import "github.com/luxfi/geth/common"

// Address is a 20-byte account/contract identifier. It is an alias for the
// teacher's own address type rather than a reinvention: equality, hashing,
// and hex marshalling all come from common.Address.
type Address = common.Address

// Hash is a 32-byte identifier, used for transaction and log-topic hashes.
type Hash = common.Hash

// ZeroAddress is the all-zero address, used as a sentinel for "no address".
var ZeroAddress = Address{}
