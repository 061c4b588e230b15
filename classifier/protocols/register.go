package protocols

import "github.com/malik672/brontes-go/classifier"

// RegisterAll wires every built-in decoder into r. The CLI's default config
// calls this; tests that want a narrower surface call the individual
// RegisterXxx functions directly.
func RegisterAll(r *classifier.Registry) {
	RegisterUniswapV2(r)
	RegisterUniswapV3(r)
	RegisterERC20Transfer(r)
	RegisterFactories(r)
	RegisterAaveLiquidation(r)
}
