package fiserv

import (
	"fmt"
	"strings"
)

// IsApprovalCode reports whether a gateway code signals approval.
// Codes prefixed "Y:" are always approvals regardless of the decline table.
func IsApprovalCode(code string) bool {
	return strings.HasPrefix(code, "Y:")
}

// NormalizeErrorCode reduces a gateway code to its two-part form
// ("N:05:123456" -> "N:05"). Codes without a colon pass through unchanged.
func NormalizeErrorCode(code string) string {
	if !strings.Contains(code, ":") {
		return code
	}
	parts := strings.SplitN(code, ":", 3)
	return parts[0] + ":" + parts[1]
}

// ErrorMessage maps a gateway response code to a human-readable message.
// Unmapped codes fall back to a generic message carrying the code.
func ErrorMessage(code string) string {
	if code == "" {
		return "Error en el procesamiento del pago"
	}
	if IsApprovalCode(code) {
		return "Pago realizado exitosamente"
	}
	code = NormalizeErrorCode(code)
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Error en la transacción: %s", code)
}

// StatusFromApprovalCode derives the status letter from an approval code,
// taking the prefix before the first colon.
func StatusFromApprovalCode(approvalCode string) string {
	if i := strings.Index(approvalCode, ":"); i >= 0 {
		return approvalCode[:i]
	}
	return approvalCode
}

// MaskedCardLast4 extracts the last four digits from a "..."-delimited
// masked card number ("542306...7205" -> "7205"). Returns "" when the
// input does not carry four trailing digits.
func MaskedCardLast4(masked string) string {
	if !strings.Contains(masked, "...") {
		return ""
	}
	parts := strings.Split(masked, "...")
	tail := parts[len(parts)-1]
	var digits []rune
	for _, r := range tail {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}
