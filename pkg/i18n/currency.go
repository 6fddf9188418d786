package i18n

import "fmt"

// currencySymbols covers the currencies seen in regional payment checks.
var currencySymbols = map[string]struct {
	symbol string
	prefix bool // true = "R12.50", false = "12.50 BWP"
}{
	"ZAR": {"R", true},
	"USD": {"$", true},
	"EUR": {"€", true},
	"GBP": {"£", true},
	"NAD": {"N$", true},
	"BWP": {"P", true},
	"LSL": {"L", false},
	"SZL": {"E", true},
}

// FormatAmount renders amount with its currency symbol, e.g. "R150.00".
// Unknown currencies render as "150.00 XYZ".
func FormatAmount(amount float64, currencyCode string) string {
	info, ok := currencySymbols[currencyCode]
	if !ok {
		return fmt.Sprintf("%.2f %s", amount, currencyCode)
	}
	if info.prefix {
		return fmt.Sprintf("%s%.2f", info.symbol, amount)
	}
	return fmt.Sprintf("%.2f %s", amount, info.symbol)
}
