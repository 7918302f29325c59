package fiserv

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Partner holds the billing or shipping contact block sent to the gateway.
type Partner struct {
	Name        string
	Company     string
	Street      string
	Street2     string
	City        string
	StateCode   string
	CountryCode string
	Zip         string
	Phone       string
	Email       string
}

// RedirectRequest is the transaction context needed to assemble an outbound
// redirect to the hosted payment page.
type RedirectRequest struct {
	StoreName           string
	SharedSecret        string
	Environment         string
	Reference           string
	CardBrand           string
	Installments        int
	InterestRate        float64
	Amount              decimal.Decimal
	TotalWithInterest   decimal.Decimal // zero when no installment interest applies
	BaseURL             string          // merchant site root for response URLs
	DynamicMerchantName string
	Billing             Partner
	Shipping            Partner
	Now                 time.Time
}

// RedirectPayload is the environment-selected gateway URL plus the flat form
// parameter set to POST to it.
type RedirectPayload struct {
	APIURL string
	Params map[string]string
}

// BuildRedirect assembles and validates the full outbound parameter set:
// charge total resolution, security hash, merchant and 3DS flags, response
// URLs and the billing/shipping blocks. saddr2 is included only when the
// shipping address has a second line.
func BuildRedirect(req RedirectRequest) (*RedirectPayload, error) {
	apiURL, err := RedirectURL(req.Environment)
	if err != nil {
		return nil, err
	}

	chargeAmount := req.Amount
	if req.TotalWithInterest.IsPositive() {
		chargeAmount = req.TotalWithInterest
	}
	chargeTotal := FormatChargeTotal(chargeAmount)

	txnDatetime := req.Now.Format(TxnDatetimeLayout)
	hash, err := GenerateHash(req.StoreName, txnDatetime, chargeTotal, CurrencyCode, req.SharedSecret)
	if err != nil {
		return nil, err
	}

	merchantName := req.DynamicMerchantName
	if merchantName == "" {
		merchantName = "Company"
	}

	params := map[string]string{
		"timezone":              "America/Buenos_Aires",
		"txndatetime":           txnDatetime,
		"hash":                  hash,
		"currency":              CurrencyCode,
		"mode":                  "payonly",
		"storename":             req.StoreName,
		"paymentMethod":         req.CardBrand,
		"numberOfInstallments":  strconv.Itoa(req.Installments),
		"installments_interest": "true",
		"chargetotal":           chargeTotal,
		"language":              "es_AR",

		"responseSuccessURL":         joinURL(req.BaseURL, "/payment/fiserv/success"),
		"responseFailURL":            joinURL(req.BaseURL, "/payment/fiserv/fail"),
		"transactionNotificationURL": joinURL(req.BaseURL, "/payment/fiserv/notify"),

		"txntype":                            "sale",
		"checkoutoption":                     "combinedpage",
		"dynamicMerchantName":                merchantName,
		"authenticateTransaction":            "true",
		"oid":                                req.Reference,
		"dccSkipOffer":                       "false",
		"threeDSRequestorChallengeIndicator": "1",
		"mobileMode":                         "false",

		"bname":    req.Billing.Name,
		"bcompany": req.Billing.Company,
		"baddr1":   sanitizeStreet(req.Billing.Street),
		"bcity":    req.Billing.City,
		"bstate":   req.Billing.StateCode,
		"bcountry": req.Billing.CountryCode,
		"bzip":     req.Billing.Zip,
		"phone":    sanitizePhone(req.Billing.Phone),
		"email":    req.Billing.Email,

		"sname":    req.Shipping.Name,
		"saddr1":   sanitizeStreet(req.Shipping.Street),
		"scity":    req.Shipping.City,
		"sstate":   req.Shipping.StateCode,
		"scountry": req.Shipping.CountryCode,
		"szip":     req.Shipping.Zip,
	}

	if err := validateRedirectParams(params); err != nil {
		return nil, err
	}

	if req.Shipping.Street2 != "" {
		params["saddr2"] = sanitizeStreet(req.Shipping.Street2)
	}

	return &RedirectPayload{APIURL: apiURL, Params: params}, nil
}

func validateRedirectParams(params map[string]string) error {
	var missing []string
	for _, field := range RequiredPaymentParams {
		if params[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequiredFields, strings.Join(missing, ", "))
	}
	if params["hash"] == "" {
		return ErrHashGeneration
	}
	return nil
}

// sanitizePhone rewrites the Argentine country prefix to the local trunk
// prefix and drops spaces, matching the gateway's expected phone format.
func sanitizePhone(phone string) string {
	phone = strings.ReplaceAll(phone, "+54", "0")
	return strings.ReplaceAll(phone, " ", "")
}

// sanitizeStreet removes dots, which the gateway rejects in address lines.
func sanitizeStreet(street string) string {
	return strings.ReplaceAll(street, ".", "")
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}
