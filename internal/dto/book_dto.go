package dto

type CreateCheckoutSessionRequest struct {
	UserEmail    string `json:"userEmail,omitempty"`
	UserName     string `json:"userName,omitempty"`
	ReferralCode string `json:"referralCode,omitempty"`
}

type CreateCheckoutSessionResponse struct {
	URL string `json:"url"`
}

type VerifyPurchaseResponse struct {
	Success       bool   `json:"success"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
}

type DownloadResponse struct {
	Success            bool   `json:"success"`
	DownloadURL        string `json:"downloadUrl"`
	DownloadsRemaining int    `json:"downloadsRemaining"`
}

// CheckPurchaseResponse is fail-closed: a lookup error and a missing purchase
// both come back as HasPurchased=false.
type CheckPurchaseResponse struct {
	HasPurchased bool   `json:"hasPurchased"`
	PurchaseDate string `json:"purchaseDate,omitempty"`
}
