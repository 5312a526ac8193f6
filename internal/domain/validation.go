package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	evmAddressPattern    = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	solanaAddressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	txHashEVMPattern     = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
	txHashSolanaPattern  = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{64,88}$`)
)

func ValidateWalletAddress(chain Chain, address string) error {
	trimmed := strings.TrimSpace(address)
	switch chain {
	case ChainBase:
		if !evmAddressPattern.MatchString(trimmed) {
			return fmt.Errorf("%w: invalid evm wallet address", ErrInvalidInput)
		}
	case ChainSolana:
		if !solanaAddressPattern.MatchString(trimmed) {
			return fmt.Errorf("%w: invalid solana wallet address", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedChain, chain)
	}
	return nil
}

func ValidateTxHash(chain Chain, txHash string) error {
	trimmed := strings.TrimSpace(txHash)
	switch chain {
	case ChainBase:
		if !txHashEVMPattern.MatchString(trimmed) {
			return fmt.Errorf("%w: invalid evm transaction hash", ErrInvalidInput)
		}
	case ChainSolana:
		if !txHashSolanaPattern.MatchString(trimmed) {
			return fmt.Errorf("%w: invalid solana transaction signature", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedChain, chain)
	}
	return nil
}

func ValidateTitle(v string) error {
	trimmed := strings.TrimSpace(v)
	if len(trimmed) < 1 || len(trimmed) > 120 {
		return fmt.Errorf("%w: title must be 1-120 chars", ErrInvalidInput)
	}
	return nil
}

func ValidateDescription(v string) error {
	if len(v) > 2000 {
		return fmt.Errorf("%w: description must be <= 2000 chars", ErrInvalidInput)
	}
	return nil
}

func ValidatePrice(v decimal.Decimal) error {
	if !v.IsPositive() {
		return fmt.Errorf("%w: price must be > 0", ErrInvalidInput)
	}
	if v.Exponent() < -USDCDecimals {
		return fmt.Errorf("%w: price exceeds %d decimal places", ErrInvalidInput, USDCDecimals)
	}
	return nil
}

func ValidateCurrency(v string) error {
	if strings.ToUpper(strings.TrimSpace(v)) != "USDC" {
		return fmt.Errorf("%w: only USDC is supported", ErrInvalidInput)
	}
	return nil
}

// ValidateFileFields enforces the mutual exclusion between a hosted blob
// reference and a vetted external URL.
func ValidateFileFields(fileType FileType, fileRef, externalURL string) error {
	switch fileType {
	case FileTypeHosted:
		if strings.TrimSpace(fileRef) == "" {
			return fmt.Errorf("%w: file_ref is required for hosted products", ErrInvalidInput)
		}
		if externalURL != "" {
			return fmt.Errorf("%w: external_url must be empty for hosted products", ErrInvalidInput)
		}
	case FileTypeExternal:
		if fileRef != "" {
			return fmt.Errorf("%w: file_ref must be empty for external products", ErrInvalidInput)
		}
		parsed, err := url.Parse(externalURL)
		if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
			return fmt.Errorf("%w: external_url must be a valid https url", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unsupported file type", ErrInvalidInput)
	}
	return nil
}
