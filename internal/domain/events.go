package domain

const (
	EventPaymentConfirmed    = "marketplace.payment.confirmed"
	EventAccessIssued        = "marketplace.access.issued"
	EventDownloadConsumed    = "marketplace.download.consumed"
	EventSettlementConfirmed = "settlement.payment.confirmed"

	CanonicalEventClassDomain = "domain"
)
