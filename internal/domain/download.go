package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadAccess is a bearer capability granting time- and count-limited
// access to one product file. One row exists per confirmed transaction;
// expiry is logical, rows are never deleted.
type DownloadAccess struct {
	AccessID           uuid.UUID
	TransactionID      uuid.UUID
	ProductID          uuid.UUID
	BuyerWalletAddress string
	AccessToken        string
	CreatedAt          time.Time
	ExpiresAt          time.Time
	MaxDownloads       int
	DownloadCount      int
}

func (a DownloadAccess) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

func (a DownloadAccess) Exhausted() bool {
	return a.DownloadCount >= a.MaxDownloads
}

func (a DownloadAccess) RemainingDownloads() int {
	remaining := a.MaxDownloads - a.DownloadCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (a DownloadAccess) RemainingTime(now time.Time) time.Duration {
	remaining := a.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CheckUsable runs the ordered validation checks shared by the validator
// and the consumer: existence is the caller's concern, then expiry, then
// the download quota.
func (a DownloadAccess) CheckUsable(now time.Time) error {
	if a.Expired(now) {
		return ErrTokenExpired
	}
	if a.Exhausted() {
		return ErrDownloadLimitReached
	}
	return nil
}
