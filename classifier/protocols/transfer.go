package protocols

import (
	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
)

// ProtocolERC20 is the protocol tag for a bare ERC-20 token contract, as
// opposed to a pool or lending-market contract. It exists so a plain
// transfer() call not already consumed by a Swap/Mint/Burn pattern still
// classifies to a Transfer action instead of falling through to
// Unclassified.
const ProtocolERC20 external.Protocol = "erc20"

var (
	erc20TransferSelector = selector("transfer(address,uint256)")
	erc20TransferSig      = eventSig("Transfer(address,address,uint256)")
)

// RegisterERC20Transfer wires the plain-transfer decoder.
func RegisterERC20Transfer(r *classifier.Registry) {
	r.Register(ProtocolERC20, erc20TransferSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{
			classifier.Exact(erc20TransferSig),
		},
		Decode: decodeERC20Transfer,
	})
}

func decodeERC20Transfer(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
	if len(m.Exacts) != 1 {
		return actions.Action{}, false
	}
	log := m.Exacts[0]
	if len(log.Topics) < 3 || len(log.Data) < 32 {
		return actions.Action{}, false
	}
	return actions.Action{
		Kind: actions.KindTransfer,
		Transfer: &actions.Transfer{
			Token:      f.To,
			From:       addrFromTopic(log.Topics[1]),
			To:         addrFromTopic(log.Topics[2]),
			Amount:     word(log.Data, 0),
			TraceIndex: f.TraceIndex,
		},
	}, true
}
