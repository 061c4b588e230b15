// Package protocols registers the built-in decoders — Uniswap-V2-family,
// Uniswap-V3-family, a bare ERC-20 transfer, factory pool-creation, and an
// Aave-style liquidation call — against a classifier.Registry. Call RegisterAll
// once at startup with the registry the orchestrator will dispatch against.
package protocols

import (
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"

	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/types"
)

// selector returns the 4-byte function selector of a Solidity signature,
// e.g. selector("swap(uint256,uint256,address,bytes)").
func selector(sig string) classifier.Selector {
	var s classifier.Selector
	copy(s[:], crypto.Keccak256([]byte(sig))[:4])
	return s
}

// eventSig returns the 32-byte topic0 of a Solidity event signature, e.g.
// eventSig("Swap(address,uint256,uint256,uint256,uint256,address)").
func eventSig(sig string) types.Hash {
	return common.Hash(crypto.Keccak256Hash([]byte(sig)))
}
