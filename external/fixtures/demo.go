package fixtures

import (
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	gethtypes "github.com/luxfi/geth/core/types"

	"github.com/malik672/brontes-go/classifier/protocols"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/external/memstore"
	"github.com/malik672/brontes-go/types"
)

// DemoCollaborators returns a small, self-contained MetadataStore and
// TracingProvider realizing one Uniswap-V2-family pool and a single block
// containing a genuine swap — enough for the CLI's --fixture-mode demo run
// to exercise the full classify -> tree -> price pipeline without a live
// chain connection, which is out of scope per spec.md's Non-goals.
func DemoCollaborators() (*memstore.Store, *Provider) {
	pool := types.Address{0x42}
	token0 := types.Address{0x01}
	token1 := types.Address{0x02}
	sender := types.Address{0x9}
	recipient := types.Address{0xAA}

	meta := memstore.New()
	_ = meta.PutNewPool(pool, protocols.ProtocolUniswapV2, []types.Address{token0, token1})

	swapSelector := selector("swap(uint256,uint256,address,bytes)")
	syncSig := eventSig("Sync(uint112,uint112)")
	swapSig := eventSig("Swap(address,uint256,uint256,uint256,uint256,address)")

	txHash := types.Hash{0x7}
	input := append(append([]byte{}, swapSelector[:]...), make([]byte, 4*32)...)

	frame := external.CallTrace{
		TraceIndex: 0,
		TxHash:     txHash,
		TxIndex:    0,
		From:       sender,
		To:         pool,
		Input:      input,
		Logs: []gethtypes.Log{
			{Topics: []types.Hash{syncSig}, Data: words(1_000_000, 2_000_000)},
			{Topics: []types.Hash{swapSig, addrTopic(sender), addrTopic(recipient)}, Data: words(100, 0, 0, 90)},
		},
	}

	provider := &Provider{
		Blocks: map[uint64][]external.CallTrace{1: {frame}},
		Gas:    map[uint64]map[types.Hash]external.GasDetails{1: {txHash: {GasUsed: 120_000}}},
		Tip:    1,
	}
	return meta, provider
}

func selector(sig string) [4]byte {
	var s [4]byte
	copy(s[:], crypto.Keccak256([]byte(sig))[:4])
	return s
}

func eventSig(sig string) types.Hash {
	return common.Hash(crypto.Keccak256Hash([]byte(sig)))
}

func word32(n uint64) []byte {
	out := make([]byte, 32)
	for i := 0; i < 8; i++ {
		out[31-i] = byte(n >> (8 * i))
	}
	return out
}

// words concatenates each value into its own 32-byte big-endian ABI word,
// the layout every non-indexed log field (Sync's reserves, Swap's four
// amounts) shares.
func words(ns ...uint64) []byte {
	var out []byte
	for _, n := range ns {
		out = append(out, word32(n)...)
	}
	return out
}

// addrTopic left-pads addr with zeros into a 32-byte topic (right-aligned),
// the encoding an indexed
// address event parameter takes.
func addrTopic(addr types.Address) types.Hash {
	var h types.Hash
	copy(h[12:], addr[:])
	return h
}
