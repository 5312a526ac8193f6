package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrRateLimitExceeded     = errors.New("rate limit exceeded")
	ErrIdempotencyConflict   = errors.New("idempotency conflict")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrInvalidToken         = errors.New("invalid download token")
	ErrTokenExpired         = errors.New("download token expired")
	ErrDownloadLimitReached = errors.New("download limit reached")

	ErrUnsupportedChain   = errors.New("unsupported chain")
	ErrUnresolvedAccount  = errors.New("token account not found for wallet")
	ErrChainUnavailable   = errors.New("chain rpc unavailable")
	ErrStaleBlockhash     = errors.New("blockhash expired, rebuild the transaction")
	ErrMissingSignature   = errors.New("missing webhook signature")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrUnsupportedEvent   = errors.New("unsupported event type")
	ErrMalformedEnvelope  = errors.New("malformed event envelope")
	ErrProductUnpublished = errors.New("product is not published")
)
