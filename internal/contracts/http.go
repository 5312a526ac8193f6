package contracts

type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePaymentRequest struct {
	ProductID   string `json:"product_id"`
	Chain       string `json:"chain"`
	BuyerWallet string `json:"buyer_wallet"`
}

type UnsignedPaymentResponse struct {
	Chain            string `json:"chain"`
	Currency         string `json:"currency"`
	Amount           string `json:"amount"`
	PlatformFee      string `json:"platform_fee"`
	CreatorAmount    string `json:"creator_amount"`
	TokenAddress     string `json:"token_address"`
	SellerWallet     string `json:"seller_wallet"`
	PlatformWallet   string `json:"platform_wallet,omitempty"`
	// EVM fields
	CallData string `json:"call_data,omitempty"`
	ChainID  uint64 `json:"chain_id,omitempty"`
	GasLimit uint64 `json:"gas_limit,omitempty"`
	Nonce    uint64 `json:"nonce,omitempty"`
	// Solana fields
	TransactionBase64 string `json:"transaction_base64,omitempty"`
	RecentBlockhash   string `json:"recent_blockhash,omitempty"`
}

type RecordPaymentRequest struct {
	ProductID   string `json:"product_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Chain       string `json:"chain"`
	BuyerWallet string `json:"buyer_wallet"`
	TxHash      string `json:"tx_hash"`
	BuyerEmail  string `json:"buyer_email,omitempty"`
}

type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	ProductID     string `json:"product_id"`
	BuyerWallet   string `json:"buyer_wallet"`
	SellerWallet  string `json:"seller_wallet"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Chain         string `json:"chain"`
	TxHash        string `json:"tx_hash"`
	Status        string `json:"status"`
	PlatformFee   string `json:"platform_fee"`
	CreatorAmount string `json:"creator_amount"`
	ConfirmedAt   string `json:"confirmed_at,omitempty"`
}

type PaymentSuccessRequest struct {
	TxHash       string `json:"tx_hash"`
	ProductTitle string `json:"product_title,omitempty"`
	BuyerEmail   string `json:"buyer_email,omitempty"`
	CreatorEmail string `json:"creator_email,omitempty"`
}

type PaymentSuccessResponse struct {
	TransactionID string `json:"transaction_id"`
	Token         string `json:"token"`
	ExpiresAt     string `json:"expires_at"`
	MaxDownloads  int    `json:"max_downloads"`
}

type DownloadStateResponse struct {
	ProductID          string `json:"product_id"`
	Title              string `json:"title"`
	FileType           string `json:"file_type"`
	RemainingDownloads int    `json:"remaining_downloads"`
	RemainingSeconds   int64  `json:"remaining_seconds"`
	ExpiresAt          string `json:"expires_at"`
}

type ConsumeDownloadRequest struct {
	Token string `json:"token"`
}

type ConsumeDownloadResponse struct {
	FileLocator        string `json:"file_locator"`
	FileType           string `json:"file_type"`
	RemainingDownloads int    `json:"remaining_downloads"`
}

type CreateProductRequest struct {
	Title              string `json:"title"`
	Description        string `json:"description,omitempty"`
	Price              string `json:"price"`
	Currency           string `json:"currency"`
	FileType           string `json:"file_type"`
	FileRef            string `json:"file_ref,omitempty"`
	ExternalURL        string `json:"external_url,omitempty"`
	FileSize           int64  `json:"file_size,omitempty"`
	SellerWalletBase   string `json:"seller_wallet_base,omitempty"`
	SellerWalletSolana string `json:"seller_wallet_solana,omitempty"`
}

type UpdateProductRequest struct {
	Title              *string `json:"title,omitempty"`
	Description        *string `json:"description,omitempty"`
	Price              *string `json:"price,omitempty"`
	SellerWalletBase   *string `json:"seller_wallet_base,omitempty"`
	SellerWalletSolana *string `json:"seller_wallet_solana,omitempty"`
}

type ProductResponse struct {
	ProductID   string `json:"product_id"`
	CreatorID   string `json:"creator_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	FileType    string `json:"file_type"`
	FileSize    int64  `json:"file_size,omitempty"`
	Published   bool   `json:"published"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
