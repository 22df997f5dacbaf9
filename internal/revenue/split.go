package revenue

import "fmt"

// DefaultFeeBps is the platform's standard cut of a gross sale: 1%.
const DefaultFeeBps = 100

// Split divides a gross amount in minor currency units between the platform
// and the artist. The platform fee rounds up, so the artist share is the
// exact remainder and the two always sum to the gross amount. Callers must
// pass a non-negative gross and a fee rate within [0, 10000] basis points.
func Split(grossCents int64, feeBps int) (platformFeeCents, artistCents int64) {
	if grossCents <= 0 || feeBps <= 0 {
		return 0, grossCents
	}

	bps := int64(feeBps)
	platformFeeCents = (grossCents*bps + 9999) / 10000
	artistCents = grossCents - platformFeeCents
	return platformFeeCents, artistCents
}

// ArtistPercent returns the artist's share of a sale as a percentage for
// display purposes, e.g. 99 for a 100 bps fee.
func ArtistPercent(feeBps int) float64 {
	return float64(10000-feeBps) / 100
}

// FormatCents renders a minor-unit USD amount as a dollar string, e.g.
// 1234 -> "$12.34".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
