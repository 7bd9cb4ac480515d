package crypto

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/newthinker/cointools/internal/core"
)

// FiatCurrencies lists the fiat codes accepted for price conversion.
var FiatCurrencies = []string{
	"AUD", "BRL", "CAD", "CHF", "CLP", "CNY", "CZK", "DKK", "EUR", "GBP", "HKD",
	"HUF", "IDR", "ILS", "INR", "JPY", "KRW", "MXN", "MYR", "NOK", "NZD", "PHP",
	"PKR", "PLN", "RUB", "SEK", "SGD", "THB", "TRY", "TWD", "ZAR",
}

var fiatSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(FiatCurrencies))
	for _, c := range FiatCurrencies {
		m[c] = struct{}{}
	}
	return m
}()

// earliestYear is the first year any coin traded.
const earliestYear = 2009

// ValidateSymbol rejects empty coin symbols.
func ValidateSymbol(symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return core.InputError(core.ErrInvalidSymbol, "Missing symbol")
	}
	return nil
}

// ValidateExchange rejects empty exchange names.
func ValidateExchange(exchange string) error {
	if strings.TrimSpace(exchange) == "" {
		return core.InputError(core.ErrInvalidExchange, "Missing exchange")
	}
	return nil
}

// NormalizeFiat uppercases code and checks it against FiatCurrencies.
func NormalizeFiat(code string) (string, error) {
	up := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := fiatSet[up]; !ok {
		return "", core.InputError(core.ErrInvalidFiatCurrency, fmt.Sprintf("Unsupported fiat currency: %s", code))
	}
	return up, nil
}

// ValidateTime rejects times in the future and before 2009.
func ValidateTime(t, now time.Time) error {
	if t.After(now) {
		return core.InputError(core.ErrInvalidDate, "Future date was passed")
	}
	if t.Year() < earliestYear {
		return core.InputError(core.ErrInvalidDate, "Too early date was passed")
	}
	return nil
}

// minuteLayouts are accepted on top of what cast understands.
var minuteLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2 Jan 2006 15:04",
}

// ParseTime parses a user supplied time string. Strings without a zone are
// read in local time.
func ParseTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, core.InputError(core.ErrInvalidDate, "Missing date")
	}
	t, err := cast.ToTimeInDefaultLocationE(text, time.Local)
	if err == nil {
		return t, nil
	}
	for _, layout := range minuteLayouts {
		if t, perr := time.ParseInLocation(layout, text, time.Local); perr == nil {
			return t, nil
		}
	}
	return time.Time{}, core.WrapError(
		core.InputError(core.ErrInvalidDate, fmt.Sprintf("Invalid date: %s", text)), err)
}
