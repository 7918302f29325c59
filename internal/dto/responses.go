package dto

import "time"

type PrepareRedirectResponse struct {
	Reference string            `json:"reference"`
	APIURL    string            `json:"api_url"`
	Params    map[string]string `json:"params"`
}

type TransactionResponse struct {
	Reference         string    `json:"reference"`
	OrderID           string    `json:"order_id"`
	State             string    `json:"state"`
	Amount            float64   `json:"amount"`
	TotalWithInterest float64   `json:"total_with_interest"`
	InterestAmount    float64   `json:"interest_amount"`
	Installments      int       `json:"installments"`
	CardBrand         string    `json:"card_brand,omitempty"`
	CardLast4         string    `json:"card_last4,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type InstallmentOptionResponse struct {
	Installments      string  `json:"installments"`
	InterestRate      float64 `json:"interest_rate"`
	Coefficient       float64 `json:"coefficient"`
	TotalWithInterest string  `json:"total_with_interest"`
	InstallmentAmount string  `json:"installment_amount"`
	SendCode          string  `json:"installment_to_send"`
}

type InstallmentOptionsResponse struct {
	CardBrand string                      `json:"card_brand"`
	Amount    float64                     `json:"amount"`
	Options   []InstallmentOptionResponse `json:"options"`
}

type CardBrandResponse struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Credit bool   `json:"credit"`
	Debit  bool   `json:"debit"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorListResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}
