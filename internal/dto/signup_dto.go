package dto

type NewsletterSubscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source,omitempty"`
}

type NewsletterSubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type WaitlistSubscribeRequest struct {
	Email string `json:"email"`
}

type WaitlistSubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type WaitlistConfirmRequest struct {
	Token string `json:"token"`
}

type WaitlistConfirmResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	AlreadyConfirmed bool   `json:"alreadyConfirmed,omitempty"`
}
