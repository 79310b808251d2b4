// Package parser turns raw listing text into typed product attributes.
package parser

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// MissingName is used when a listing has no readable title.
const MissingName = "N/A"

var nonPriceChars = regexp.MustCompile(`[^0-9,.]`)

// CleanPrice extracts a number from price text such as "1,234.56 Dhs".
// Commas are thousands separators. Anything unparseable yields 0.
func CleanPrice(raw string) float64 {
	cleaned := nonPriceChars.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0
	}
	return value
}

// NormalizeName trims the listing title, falling back to MissingName.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return MissingName
	}
	return name
}

// ResolveURL prefixes root-relative links with siteRoot. Other links pass
// through unchanged and an empty link stays empty.
func ResolveURL(siteRoot, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", nil
	}
	if strings.HasPrefix(link, "/") {
		link = strings.TrimSuffix(siteRoot, "/") + link
	}
	if _, err := url.Parse(link); err != nil {
		return "", fmt.Errorf("invalid product link %q: %w", link, err)
	}
	return link, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
