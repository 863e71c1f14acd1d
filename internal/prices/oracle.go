package prices

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Oracle resolves point-in-time USD and ETH valuations of tokens. Rates are
// derived from on-chain pair reserves at the given block, never from external
// feeds, so replay is deterministic.
type Oracle interface {
	// USDRate returns the USD price of one token unit. USDT is the reference
	// asset and always prices at 1; tokens without a WETH pair price at 0.
	USDRate(ctx context.Context, token common.Address, block uint64) (decimal.Decimal, error)

	// ETHRate returns the WETH price of one token unit, 0 when no pair exists.
	ETHRate(ctx context.Context, token common.Address, block uint64) (decimal.Decimal, error)

	// AcePrice returns the USD price of ACE, piecewise by the block thresholds
	// marking the pair-migration cutovers.
	AcePrice(ctx context.Context, block uint64) (decimal.Decimal, error)
}
