package postgres

import "github.com/forlarge/marketplace/internal/domain"

func toDomainProduct(m productModel) domain.Product {
	return domain.Product{
		ProductID: m.ProductID, CreatorID: m.CreatorID, Title: m.Title, Description: m.Description,
		Price: m.Price, Currency: m.Currency, FileType: domain.FileType(m.FileType),
		FileRef: m.FileRef, ExternalURL: m.ExternalURL, FileSize: m.FileSize, Published: m.Published,
		SellerWalletBase: m.SellerWalletBase, SellerWalletSolana: m.SellerWalletSolana,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toDomainTransaction(m transactionModel) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID, ProductID: m.ProductID,
		BuyerWalletAddress: m.BuyerWalletAddress, SellerWalletAddress: m.SellerWalletAddress,
		BuyerEmailEncrypted: m.BuyerEmailEncrypted, Amount: m.Amount, Currency: m.Currency,
		Chain: domain.Chain(m.Chain), TxHash: m.TxHash, Status: domain.TransactionStatus(m.Status),
		PlatformFee: m.PlatformFee, CreatorAmount: m.CreatorAmount,
		ConfirmedAt: m.ConfirmedAt, CreatedAt: m.CreatedAt,
	}
}

func toDomainDownloadAccess(m downloadAccessModel) domain.DownloadAccess {
	return domain.DownloadAccess{
		AccessID: m.AccessID, TransactionID: m.TransactionID, ProductID: m.ProductID,
		BuyerWalletAddress: m.BuyerWalletAddress, AccessToken: m.AccessToken,
		CreatedAt: m.CreatedAt, ExpiresAt: m.ExpiresAt,
		MaxDownloads: m.MaxDownloads, DownloadCount: m.DownloadCount,
	}
}
