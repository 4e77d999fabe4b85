package domain

import (
	"sort"
	"strings"
)

// Currency is a supported currency code.
type Currency string

// Fiat currencies.
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	BRL Currency = "BRL"
	ARS Currency = "ARS"
	MXN Currency = "MXN"
	CLP Currency = "CLP"
	COP Currency = "COP"
	PEN Currency = "PEN"
)

// Stablecoins and crypto assets.
const (
	USDT Currency = "USDT"
	USDC Currency = "USDC"
	BTC  Currency = "BTC"
	ETH  Currency = "ETH"
)

// CurrencyUnsupported is the explicit variant for codes outside the supported set.
const CurrencyUnsupported Currency = "UNSUPPORTED"

// BaseCurrency is the pivot currency for all conversions. Every supported
// currency has exactly one rate against it; rateToBase(BaseCurrency) == 1.
const BaseCurrency = USD

var fiatCurrencies = map[Currency]bool{
	USD: true, EUR: true, GBP: true, BRL: true, ARS: true,
	MXN: true, CLP: true, COP: true, PEN: true,
}

var stablecoins = map[Currency]bool{
	USDT: true, USDC: true,
}

var cryptoCurrencies = map[Currency]bool{
	BTC: true, ETH: true,
}

// ParseCurrency validates a raw code against the supported set. Unknown codes
// return CurrencyUnsupported together with ErrUnsupportedCurrency so callers
// can degrade instead of aborting.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if c.Supported() {
		return c, nil
	}

	return CurrencyUnsupported, ErrUnsupportedCurrency
}

// Supported reports whether the currency belongs to the closed supported set.
func (c Currency) Supported() bool {
	return fiatCurrencies[c] || stablecoins[c] || cryptoCurrencies[c]
}

// IsFiat reports whether the currency is a fiat currency.
func (c Currency) IsFiat() bool {
	return fiatCurrencies[c]
}

// IsStablecoin reports whether the currency is a stablecoin.
func (c Currency) IsStablecoin() bool {
	return stablecoins[c]
}

// IsCrypto reports whether the currency is a crypto asset.
func (c Currency) IsCrypto() bool {
	return cryptoCurrencies[c]
}

// MinorUnits returns the decimal scale amounts are settled at in this
// currency: 8 for crypto assets and stablecoins, 2 for fiat. Unknown codes
// pass through at the crypto scale so nothing is lost before an operator
// looks at them.
func (c Currency) MinorUnits() int32 {
	if c.IsFiat() {
		return 2
	}

	return 8
}

// RoutingCurrency returns the currency used for conversion routing.
// Dollar-pegged stablecoins route as USD; this affects conversion math only,
// stored records always keep the original code.
func (c Currency) RoutingCurrency() Currency {
	if stablecoins[c] {
		return USD
	}

	return c
}

func (c Currency) String() string {
	return string(c)
}

// SupportedCurrencies returns the closed set of supported codes in a stable
// order.
func SupportedCurrencies() []Currency {
	out := make([]Currency, 0, len(fiatCurrencies)+len(stablecoins)+len(cryptoCurrencies))
	for _, group := range []map[Currency]bool{fiatCurrencies, stablecoins, cryptoCurrencies} {
		for c := range group {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
