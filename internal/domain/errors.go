package domain

import "errors"

var (
	// Currency and rate errors
	ErrUnsupportedCurrency   = errors.New("unsupported currency code")
	ErrRateUnavailable       = errors.New("exchange rate unavailable")
	ErrConversionUnsupported = errors.New("conversion unsupported for currency pair")

	// Account errors
	ErrAccountNotFound           = errors.New("account not found")
	ErrConcurrentBalanceConflict = errors.New("balance write invalidated by a newer entry")

	// Entry errors
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidEntryKind = errors.New("unknown ledger entry kind")
	ErrCurrencyMismatch = errors.New("entry currency does not match account currency")

	// Project errors
	ErrProjectConfigNotFound = errors.New("project currency config not found")
	ErrManualRateRequired    = errors.New("manual rate source requires a manual rate")
	ErrInvalidManualRate     = errors.New("manual rate must be positive")

	// Snapshot errors
	ErrSnapshotNotFound = errors.New("conversion snapshot not found")
)
