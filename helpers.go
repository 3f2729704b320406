// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub

import (
	"math"
	"strings"
	"unicode"
)

// printableString removes any non-graphic runes and surrounding space from s.
func printableString(s string) string {
	ss := strings.Map(func(r rune) rune {
		if unicode.IsGraphic(r) {
			return r
		}
		return -1
	}, s)

	return strings.TrimSpace(ss)
}

// jpegQuality maps a quality in the range (0, 1] to the 1-100 range used by image/jpeg.
func jpegQuality(q float64) int {
	if q <= 0 || math.IsNaN(q) {
		q = DefaultQuality
	}
	if q > 1 {
		q = 1
	}
	return max(1, int(math.Round(q*100)))
}
