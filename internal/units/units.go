package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

const (
	EtherDecimals = 18 // ETH has 18 decimals (wei)
	GweiDecimals  = 9
)

// Unit is a denomination balances are shown in.
type Unit string

const (
	UnitEther Unit = "ether"
	UnitGwei  Unit = "gwei"
	UnitWei   Unit = "wei"
)

// ParseUnit parses a denomination name; empty means ether.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case "", "eth", UnitEther:
		return UnitEther, nil
	case UnitGwei, UnitWei:
		return u, nil
	}
	return "", fmt.Errorf("unknown unit %q: use ether, gwei or wei", s)
}

// Format renders wei in unit.
func Format(wei *uint256.Int, unit Unit) string {
	switch unit {
	case UnitGwei:
		return WeiToGwei(wei)
	case UnitWei:
		return wei.Dec()
	}
	return WeiToEther(wei)
}

// WeiToEther converts wei to an ETH string without float precision loss
func WeiToEther(wei *uint256.Int) string {
	return formatWithDecimals(wei, EtherDecimals)
}

// EtherToWei converts an ETH string to wei without float precision loss
func EtherToWei(eth string) (*uint256.Int, error) {
	return parseWithDecimals(eth, EtherDecimals)
}

// WeiToGwei converts wei to a gwei string
func WeiToGwei(wei *uint256.Int) string {
	return formatWithDecimals(wei, GweiDecimals)
}

// ParseUint parses a non-negative decimal or 0x-hex integer of at most
// 256 bits.
func ParseUint(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty number")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" {
			return new(uint256.Int), nil
		}
		return uint256.FromHex("0x" + digits)
	}
	return uint256.FromDecimal(s)
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 9) = "0.024981836"
func formatWithDecimals(value *uint256.Int, decimals int) string {
	s := value.Dec()

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("0.024981836", 9) = 24981836
func parseWithDecimals(s string, decimals int) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty string")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid decimal format")
	}

	whole := parts[0]
	if whole == "" {
		whole = "0"
	}
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}

	// Pad or truncate fractional part to exact decimals
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else if len(frac) > decimals {
		frac = frac[:decimals]
	}

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromDecimal(combined)
}

// CompareEther compares two ETH decimal string amounts without float precision loss.
// Returns: -1 if a < b, 0 if a == b, 1 if a > b, and error if parsing fails
func CompareEther(a, b string) (int, error) {
	aVal, err := parseWithDecimals(a, EtherDecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}

	bVal, err := parseWithDecimals(b, EtherDecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}

	return aVal.Cmp(bVal), nil
}
