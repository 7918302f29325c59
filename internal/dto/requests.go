package dto

type PartnerPayload struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Street      string `json:"street"`
	Street2     string `json:"street2"`
	City        string `json:"city"`
	StateCode   string `json:"state_code"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

type PrepareRedirectRequest struct {
	OrderID           string         `json:"order_id" binding:"required"`
	CardBrand         string         `json:"card_brand"`
	Installments      int            `json:"installments" binding:"omitempty,gt=0"`
	InterestRate      float64        `json:"interest_rate" binding:"omitempty,gte=0"`
	TotalWithInterest float64        `json:"total_with_interest" binding:"omitempty,gt=0"`
	Billing           PartnerPayload `json:"billing"`
	Shipping          PartnerPayload `json:"shipping"`
}

// GatewayCallbackForm is the urlencoded body Fiserv posts to the
// notification and browser-return endpoints. Field names follow the
// gateway's wire format.
type GatewayCallbackForm struct {
	OID                  string `form:"oid"`
	Status               string `form:"status"`
	ApprovalCode         string `form:"approval_code"`
	ChargeTotal          string `form:"chargetotal"`
	Currency             string `form:"currency"`
	TxnDatetime          string `form:"txndatetime"`
	CardNumber           string `form:"cardnumber"`
	BName                string `form:"bname"`
	PaymentMethod        string `form:"paymentMethod"`
	NumberOfInstallments string `form:"number_of_installments"`
	IPGTransactionID     string `form:"ipgTransactionId"`
	NotificationHash     string `form:"notification_hash"`
	ResponseHash         string `form:"response_hash"`
	FailReason           string `form:"fail_reason"`
	StatusMessage        string `form:"status_message"`
}
