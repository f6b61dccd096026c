package eastmoney

import "strings"

// MarketUnknown is returned for symbols whose market segment cannot be
// derived. Resolution never fails hard.
const MarketUnknown = "UNKNOWN"

// shanghaiPrefixes and shenzhenPrefixes are the A-share board prefixes.
var (
	shanghaiPrefixes = []string{"600", "601", "603", "605", "688"}
	shenzhenPrefixes = []string{"000", "001", "002", "003", "300", "301"}
)

// MarketCode derives the market segment code from a symbol's shape:
// Shanghai main board/STAR ("HA"), Shenzhen ("SA"), Beijing/NEEQ
// ("BJ"), Hong Kong ("HK" + code zero-padded to 5 digits), or US
// ("US:" + uppercased ticker).
func MarketCode(symbol string) string {
	symbol = strings.TrimSpace(symbol)

	for _, p := range shanghaiPrefixes {
		if strings.HasPrefix(symbol, p) {
			return "HA"
		}
	}
	for _, p := range shenzhenPrefixes {
		if strings.HasPrefix(symbol, p) {
			return "SA"
		}
	}
	if strings.HasPrefix(symbol, "8") || strings.HasPrefix(symbol, "4") {
		return "BJ"
	}

	if isDigits(symbol) && len(symbol) >= 1 && len(symbol) <= 5 {
		return "HK" + zeroPad(symbol, 5)
	}

	if isAlpha(symbol) {
		return "US:" + strings.ToUpper(symbol)
	}

	return MarketUnknown
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func zeroPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
