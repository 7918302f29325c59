package fiserv

import "errors"

var (
	ErrInvalidAmountFormat     = errors.New("invalid amount format")
	ErrMissingRequiredFields   = errors.New("missing required fields")
	ErrHashGeneration          = errors.New("security hash not generated")
	ErrUnconfiguredEnvironment = errors.New("payment environment not configured")
	ErrInvalidSignature        = errors.New("invalid notification signature")
	ErrInvalidTransactionState = errors.New("transaction in invalid state for processing")
	ErrMissingApprovalCode     = errors.New("missing approval code in feedback data")
	ErrUnsupportedCardBrand    = errors.New("unsupported card brand")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrMissingReference        = errors.New("no transaction reference found")
)
