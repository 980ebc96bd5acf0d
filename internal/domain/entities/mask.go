package entities

import "strings"

// MaskAddress redacts a wallet or holder address to its first 2 and last 4
// characters. Full addresses are never re-exposed once aggregation has
// produced display-oriented output.
func MaskAddress(address string) string {
	if len(address) <= 6 {
		return strings.Repeat("*", len(address))
	}
	return address[:2] + "*****" + address[len(address)-4:]
}

// MaskAddresses masks a set of addresses, preserving order.
func MaskAddresses(addresses []string) []string {
	masked := make([]string, len(addresses))
	for i, a := range addresses {
		masked[i] = MaskAddress(a)
	}
	return masked
}
