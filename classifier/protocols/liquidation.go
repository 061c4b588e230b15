package protocols

import (
	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
)

// ProtocolAaveV2 is the protocol tag for an Aave-V2-style lending pool
// contract. Grounded in original_source/liquidations.rs, which decodes the
// same LiquidationCall event shape for both V2 and V3 pools. One
// liquidationCall selector is registered, against this one decoder.
const ProtocolAaveV2 external.Protocol = "aave_v2"

var (
	aaveLiquidationCallSelector = selector("liquidationCall(address,address,address,uint256,bool)")

	// LiquidationCall(address indexed collateralAsset, address indexed debtAsset,
	//   address indexed user, uint256 debtToCover, uint256 liquidatedCollateralAmount,
	//   address liquidator, bool receiveAToken)
	aaveLiquidationCallSig = eventSig("LiquidationCall(address,address,address,uint256,uint256,address,bool)")
)

// RegisterAaveLiquidation wires the liquidationCall decoder.
func RegisterAaveLiquidation(r *classifier.Registry) {
	r.Register(ProtocolAaveV2, aaveLiquidationCallSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{
			classifier.Exact(aaveLiquidationCallSig),
		},
		Decode: decodeAaveLiquidation,
	})
}

func decodeAaveLiquidation(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
	if len(m.Exacts) != 1 {
		return actions.Action{}, false
	}
	log := m.Exacts[0]
	if len(log.Topics) < 4 || len(log.Data) < 96 {
		return actions.Action{}, false
	}
	collateralToken := addrFromTopic(log.Topics[1])
	debtToken := addrFromTopic(log.Topics[2])
	debtor := addrFromTopic(log.Topics[3])
	debtAmount := word(log.Data, 0)
	collateralAmount := word(log.Data, 1)
	liquidator := addrFromWord(log.Data[64:96])

	return actions.Action{
		Kind: actions.KindLiquidation,
		Liquidation: &actions.Liquidation{
			Pool:             f.To,
			Liquidator:       liquidator,
			Debtor:           debtor,
			CollateralToken:  collateralToken,
			DebtToken:        debtToken,
			CollateralAmount: collateralAmount,
			DebtAmount:       debtAmount,
			TraceIndex:       f.TraceIndex,
		},
	}, true
}
