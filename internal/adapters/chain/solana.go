package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

type SolanaConfig struct {
	USDCMint       string
	PlatformWallet string
	RPCURL         string
	FeePercent     decimal.Decimal
}

// SolanaBuilder constructs the SPL leg of a purchase: two TransferChecked
// instructions in one transaction, a seller leg and a platform fee leg. The
// fee is floored on base units and the platform leg is omitted when it
// rounds to zero. The buyer is the fee payer; the transaction is stamped
// with a fresh blockhash and must be rebuilt if it goes stale.
type SolanaBuilder struct {
	client         *rpc.Client
	mint           solana.PublicKey
	platformWallet solana.PublicKey
	feePercent     decimal.Decimal
}

func NewSolanaBuilder(cfg SolanaConfig) (*SolanaBuilder, error) {
	mint, err := solana.PublicKeyFromBase58(cfg.USDCMint)
	if err != nil {
		return nil, fmt.Errorf("invalid usdc mint: %w", err)
	}
	platformWallet, err := solana.PublicKeyFromBase58(cfg.PlatformWallet)
	if err != nil {
		return nil, fmt.Errorf("invalid platform wallet: %w", err)
	}
	if cfg.RPCURL == "" {
		return nil, errors.New("solana rpc url is required")
	}
	feePercent := cfg.FeePercent
	if feePercent.IsZero() {
		feePercent = domain.DefaultPlatformFeePercent
	}
	return &SolanaBuilder{
		client:         rpc.New(cfg.RPCURL),
		mint:           mint,
		platformWallet: platformWallet,
		feePercent:     feePercent,
	}, nil
}

func (b *SolanaBuilder) Chain() domain.Chain { return domain.ChainSolana }

func (b *SolanaBuilder) BuildPayment(ctx context.Context, params ports.BuildPaymentParams) (ports.UnsignedPayment, error) {
	buyer, err := solana.PublicKeyFromBase58(params.BuyerAddress)
	if err != nil {
		return ports.UnsignedPayment{}, fmt.Errorf("%w: invalid buyer address", domain.ErrInvalidInput)
	}
	seller, err := solana.PublicKeyFromBase58(params.SellerAddress)
	if err != nil {
		return ports.UnsignedPayment{}, fmt.Errorf("%w: invalid seller address", domain.ErrInvalidInput)
	}

	buyerATA, err := b.resolveTokenAccount(ctx, buyer, "buyer")
	if err != nil {
		return ports.UnsignedPayment{}, err
	}
	sellerATA, err := b.resolveTokenAccount(ctx, seller, "seller")
	if err != nil {
		return ports.UnsignedPayment{}, err
	}

	supply, err := b.client.GetTokenSupply(ctx, b.mint, rpc.CommitmentFinalized)
	if err != nil {
		return ports.UnsignedPayment{}, fmt.Errorf("%w: get token supply: %v", domain.ErrChainUnavailable, err)
	}
	decimals := supply.Value.Decimals

	totalBig, err := domain.ToBaseUnits(params.Amount, int32(decimals))
	if err != nil {
		return ports.UnsignedPayment{}, err
	}
	if !totalBig.IsUint64() {
		return ports.UnsignedPayment{}, fmt.Errorf("%w: amount out of range", domain.ErrInvalidInput)
	}
	total := totalBig.Uint64()
	feeUnits, sellerUnits := domain.SplitBaseUnits(total, b.feePercent)

	instructions := []solana.Instruction{
		token.NewTransferCheckedInstruction(
			sellerUnits, decimals, buyerATA, b.mint, sellerATA, buyer, nil,
		).Build(),
	}
	if feeUnits > 0 {
		platformATA, resolveErr := b.resolveTokenAccount(ctx, b.platformWallet, "platform")
		if resolveErr != nil {
			return ports.UnsignedPayment{}, resolveErr
		}
		instructions = append(instructions, token.NewTransferCheckedInstruction(
			feeUnits, decimals, buyerATA, b.mint, platformATA, buyer, nil,
		).Build())
	}

	blockhash, err := b.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return ports.UnsignedPayment{}, fmt.Errorf("%w: get latest blockhash: %v", domain.ErrChainUnavailable, err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash.Value.Blockhash, solana.TransactionPayer(buyer))
	if err != nil {
		return ports.UnsignedPayment{}, fmt.Errorf("assemble transaction: %w", err)
	}
	encoded, err := tx.ToBase64()
	if err != nil {
		return ports.UnsignedPayment{}, fmt.Errorf("encode transaction: %w", err)
	}

	feeDecimal := decimal.NewFromUint64(feeUnits).Shift(-int32(decimals))
	creatorDecimal := decimal.NewFromUint64(sellerUnits).Shift(-int32(decimals))
	return ports.UnsignedPayment{
		Chain:             domain.ChainSolana,
		TokenAddress:      b.mint.String(),
		Amount:            params.Amount,
		PlatformFee:       feeDecimal,
		CreatorAmount:     creatorDecimal,
		TransactionBase64: encoded,
		RecentBlockhash:   blockhash.Value.Blockhash.String(),
		PlatformWallet:    b.platformWallet.String(),
	}, nil
}

// resolveTokenAccount derives a party's associated token account for the
// mint and verifies it exists on chain. A wallet that never held the token
// has no account yet; the caller must create it before sending.
func (b *SolanaBuilder) resolveTokenAccount(ctx context.Context, owner solana.PublicKey, party string) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, b.mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive %s token account: %w", party, err)
	}
	info, err := b.client.GetAccountInfo(ctx, ata)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return solana.PublicKey{}, fmt.Errorf("%w: %s wallet %s", domain.ErrUnresolvedAccount, party, owner)
		}
		return solana.PublicKey{}, fmt.Errorf("%w: get %s token account: %v", domain.ErrChainUnavailable, party, err)
	}
	if info == nil || info.Value == nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s wallet %s", domain.ErrUnresolvedAccount, party, owner)
	}
	return ata, nil
}

var _ ports.PaymentBuilder = (*SolanaBuilder)(nil)
