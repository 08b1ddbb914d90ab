package wallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ARK amounts are integers in arktoshi, 1e-8 ARK.
const (
	Decimals       = 8
	ArktoshiPerArk = 100_000_000
)

// ErrInvalidAmount is returned for amounts that are not positive decimals
// with at most eight fractional digits.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal ARK amount such as "1.5" to arktoshi.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return 0, fmt.Errorf("%w: more than %d decimals", ErrInvalidAmount, Decimals)
	}
	frac += strings.Repeat("0", Decimals-len(frac))

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	f, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if w > (^uint64(0)-f)/ArktoshiPerArk {
		return 0, fmt.Errorf("%w: overflow", ErrInvalidAmount)
	}
	total := w*ArktoshiPerArk + f
	if total == 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	return total, nil
}

// FormatAmount renders arktoshi as a decimal ARK amount without trailing
// zeros.
func FormatAmount(arktoshi uint64) string {
	whole := arktoshi / ArktoshiPerArk
	frac := arktoshi % ArktoshiPerArk
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	fs := strings.TrimRight(fmt.Sprintf("%08d", frac), "0")
	return strconv.FormatUint(whole, 10) + "." + fs
}
