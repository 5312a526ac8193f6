package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

const erc20TransferABI = `[{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}]`

// fallbackTransferGasLimit covers an ERC-20 transfer when the RPC endpoint
// is not configured and gas cannot be estimated.
const fallbackTransferGasLimit = 65000

var erc20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		panic(fmt.Sprintf("parse erc20 abi: %v", err))
	}
	erc20ABI = parsed
}

type BaseConfig struct {
	USDCAddress string
	ChainID     uint64
	RPCURL      string
	FeePercent  decimal.Decimal
}

// BaseBuilder constructs the EVM leg of a purchase: a single ERC-20
// transfer of the full amount to the seller. Fee collection on this chain
// is deferred to an off-chain settlement step; the split is still computed
// and reported so the recorder and the UI see one authoritative number.
type BaseBuilder struct {
	cfg    BaseConfig
	client *ethclient.Client
}

func NewBaseBuilder(ctx context.Context, cfg BaseConfig) (*BaseBuilder, error) {
	if !common.IsHexAddress(cfg.USDCAddress) {
		return nil, fmt.Errorf("invalid usdc contract address: %s", cfg.USDCAddress)
	}
	if cfg.FeePercent.IsZero() {
		cfg.FeePercent = domain.DefaultPlatformFeePercent
	}
	b := &BaseBuilder{cfg: cfg}
	if cfg.RPCURL != "" {
		client, err := ethclient.DialContext(ctx, cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("%w: dial base rpc: %v", domain.ErrChainUnavailable, err)
		}
		b.client = client
	}
	return b, nil
}

func (b *BaseBuilder) Chain() domain.Chain { return domain.ChainBase }

func (b *BaseBuilder) Close() error {
	if b.client != nil {
		b.client.Close()
	}
	return nil
}

func (b *BaseBuilder) BuildPayment(ctx context.Context, params ports.BuildPaymentParams) (ports.UnsignedPayment, error) {
	if !common.IsHexAddress(params.BuyerAddress) {
		return ports.UnsignedPayment{}, fmt.Errorf("%w: invalid buyer address", domain.ErrInvalidInput)
	}
	if !common.IsHexAddress(params.SellerAddress) {
		return ports.UnsignedPayment{}, fmt.Errorf("%w: invalid seller address", domain.ErrInvalidInput)
	}

	baseUnits, err := domain.ToBaseUnits(params.Amount, domain.USDCDecimals)
	if err != nil {
		return ports.UnsignedPayment{}, err
	}
	fee, creator := domain.SplitAmount(params.Amount, b.cfg.FeePercent)

	seller := common.HexToAddress(params.SellerAddress)
	callData, err := erc20ABI.Pack("transfer", seller, baseUnits)
	if err != nil {
		return ports.UnsignedPayment{}, fmt.Errorf("pack transfer calldata: %w", err)
	}

	payment := ports.UnsignedPayment{
		Chain:         domain.ChainBase,
		TokenAddress:  b.cfg.USDCAddress,
		Amount:        params.Amount,
		PlatformFee:   fee,
		CreatorAmount: creator,
		CallData:      "0x" + hex.EncodeToString(callData),
		ChainID:       b.cfg.ChainID,
		GasLimit:      fallbackTransferGasLimit,
	}

	if b.client != nil {
		buyer := common.HexToAddress(params.BuyerAddress)
		token := common.HexToAddress(b.cfg.USDCAddress)
		nonce, nonceErr := b.client.PendingNonceAt(ctx, buyer)
		if nonceErr != nil {
			return ports.UnsignedPayment{}, fmt.Errorf("%w: pending nonce: %v", domain.ErrChainUnavailable, nonceErr)
		}
		payment.Nonce = nonce
		gas, gasErr := b.client.EstimateGas(ctx, ethereum.CallMsg{
			From: buyer,
			To:   &token,
			Data: callData,
		})
		if gasErr != nil {
			return ports.UnsignedPayment{}, fmt.Errorf("%w: estimate gas: %v", domain.ErrChainUnavailable, gasErr)
		}
		payment.GasLimit = gas
	}

	return payment, nil
}

var _ ports.PaymentBuilder = (*BaseBuilder)(nil)
