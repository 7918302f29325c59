package fiserv

import "fmt"

// CurrencyCode is the ISO 4217 numeric code sent to the gateway (032 = ARS).
// Fiserv Argentina processes a single currency.
const CurrencyCode = "032"

// SupportedCurrency is the only ISO alpha code accepted for transactions.
const SupportedCurrency = "ARS"

// TxnDatetimeLayout is the timestamp format the gateway expects in
// txndatetime and in hash components.
const TxnDatetimeLayout = "2006:01:02-15:04:05"

// Gateway base endpoints by environment.
var redirectURLs = map[string]string{
	"test": "https://test.ipg-online.com/connect/gateway/processing",
	"prod": "https://www5.ipg-online.com/connect/gateway/processing",
}

// RedirectURL returns the gateway processing endpoint for the configured
// environment. Only "test" and "prod" are recognized.
func RedirectURL(environment string) (string, error) {
	if environment == "" {
		return "", ErrUnconfiguredEnvironment
	}
	url, ok := redirectURLs[environment]
	if !ok {
		return "", fmt.Errorf("%w: unknown environment %q", ErrUnconfiguredEnvironment, environment)
	}
	return url, nil
}

// CardBrand describes a card brand's capability set.
type CardBrand struct {
	Name   string
	Credit bool
	Debit  bool
}

// SupportedCardBrands maps gateway brand codes to their capabilities.
var SupportedCardBrands = map[string]CardBrand{
	"V":               {Name: "Visa", Credit: true, Debit: true},
	"M":               {Name: "Mastercard", Credit: true, Debit: true},
	"MA":              {Name: "Maestro", Credit: false, Debit: true},
	"CABAL_ARGENTINA": {Name: "Cabal", Credit: true, Debit: true},
	"TUYA":            {Name: "Tuya", Credit: true, Debit: false},
	"NARANJA":         {Name: "Naranja", Credit: true, Debit: false},
}

// IsSupportedBrand reports whether code belongs to the supported brand set.
func IsSupportedBrand(code string) bool {
	_, ok := SupportedCardBrands[code]
	return ok
}

// CardBrandName returns the display name for a brand code, or the code
// itself when unknown.
func CardBrandName(code string) string {
	if brand, ok := SupportedCardBrands[code]; ok {
		return brand.Name
	}
	return code
}

// PendingStatuses are gateway statuses that leave the transaction pending.
var PendingStatuses = map[string]bool{
	"P":          true,
	"PENDING":    true,
	"PROCESSING": true,
}

// StatusApproved is the literal status the gateway sends on approval.
const StatusApproved = "APROBADO"

// RequiredPaymentParams must all be present in an outbound redirect payload.
var RequiredPaymentParams = []string{
	"storename",
	"txndatetime",
	"chargetotal",
	"currency",
	"hash",
	"oid",
}

// errorMessages maps two-part gateway decline codes to descriptive messages.
var errorMessages = map[string]string{
	"N:01": "Consulte con el emisor de la tarjeta",
	"N:02": "Consulte con el emisor de la tarjeta sobre condiciones especiales",
	"N:03": "Comercio inválido",
	"N:04": "Tarjeta restringida",
	"N:05": "Transacción rechazada",
	"N:07": "Tarjeta reportada como robada",
	"N:12": "Transacción inválida",
	"N:13": "Monto inválido",
	"N:14": "Número de tarjeta inválido",
	"N:19": "Reintentar transacción",
	"N:25": "No se encontró el registro original",
	"N:30": "Error de formato",
	"N:41": "Tarjeta reportada como perdida",
	"N:43": "Tarjeta reportada como robada",
	"N:51": "Fondos insuficientes",
	"N:54": "Tarjeta vencida",
	"N:55": "PIN incorrecto",
	"N:57": "Transacción no permitida para esta tarjeta",
	"N:58": "Transacción no permitida en este terminal",
	"N:61": "Excede límite de monto",
	"N:62": "Tarjeta restringida",
	"N:65": "Excede límite de frecuencia",
	"N:91": "Emisor no disponible",
	"N:96": "Error del sistema",
	"N:99": "Error general",
}
