package templates

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Money formats whole dollars with thousands separators: 12345 -> "$12,345".
func Money(v int64) string {
	if v < 0 {
		return printer.Sprintf("-$%d", -v)
	}
	return printer.Sprintf("$%d", v)
}

// Number formats an integer with thousands separators.
func Number(v int64) string {
	return printer.Sprintf("%d", v)
}

// Percent formats a percentage with one decimal.
func Percent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}
