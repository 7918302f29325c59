package fiserv

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
)

// hexSHA1 implements the gateway's two-step digest: hex-encode the UTF-8
// bytes of the canonical string, then SHA1 the hex string's bytes.
func hexSHA1(s string) string {
	encoded := hex.EncodeToString([]byte(s))
	sum := sha1.Sum([]byte(encoded))
	return hex.EncodeToString(sum[:])
}

// GenerateHash produces the outbound redirect hash from the canonical
// concatenation storename + txndatetime + chargetotal + currency + secret.
// The shared secret participates in the digest only and must never be logged.
func GenerateHash(storeName, txnDatetime, chargeTotal, currency, sharedSecret string) (string, error) {
	if storeName == "" || txnDatetime == "" || chargeTotal == "" || currency == "" || sharedSecret == "" {
		return "", ErrHashGeneration
	}
	return hexSHA1(storeName + txnDatetime + chargeTotal + currency + sharedSecret), nil
}

// NotificationParams carries the inbound fields that participate in
// signature verification.
type NotificationParams struct {
	OrderID          string
	ChargeTotal      string
	Currency         string
	TxnDatetime      string
	ApprovalCode     string
	NotificationHash string
	ResponseHash     string
}

// VerifySignature checks an inbound notification or response hash against
// the locally computed digest. The component order depends on which hash
// field the gateway sent:
//
//	notification_hash: chargetotal + secret + currency + txndatetime + storename + approval_code
//	response_hash:     secret + approval_code + chargetotal + currency + txndatetime + storename
//
// Verification fails closed: a missing order id or missing hash returns
// false without computing anything.
func VerifySignature(p NotificationParams, storeName, sharedSecret string) bool {
	if p.OrderID == "" {
		return false
	}

	var concat, received string
	switch {
	case p.NotificationHash != "":
		concat = p.ChargeTotal + sharedSecret + p.Currency + p.TxnDatetime + storeName + p.ApprovalCode
		received = p.NotificationHash
	case p.ResponseHash != "":
		concat = sharedSecret + p.ApprovalCode + p.ChargeTotal + p.Currency + p.TxnDatetime + storeName
		received = p.ResponseHash
	default:
		return false
	}

	computed := hexSHA1(concat)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(received)) == 1
}
