package compose

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountInWords spells out a rupee amount using the Indian numbering system
// (crore/lakh/thousand, i.e. two-digit groups above the first three digits).
// Generic number-to-words code assumes thousand/million grouping, which reads
// wrong on these documents, so the grouping is done here explicitly.
//
// Example: 123456.78 → "Rupees One Lakh Twenty Three Thousand Four Hundred
// Fifty Six and Paise Seventy Eight Only".
func AmountInWords(amount decimal.Decimal) string {
	negative := amount.Sign() < 0
	if negative {
		amount = amount.Neg()
	}

	rounded := amount.Round(2)
	rupees := rounded.IntPart()
	paise := rounded.Sub(decimal.NewFromInt(rupees)).Mul(decimal.NewFromInt(100)).IntPart()

	var b strings.Builder
	if negative {
		b.WriteString("Minus ")
	}
	b.WriteString("Rupees ")
	b.WriteString(indianWords(rupees))
	if paise > 0 {
		b.WriteString(" and Paise ")
		b.WriteString(indianWords(paise))
	}
	b.WriteString(" Only")
	return b.String()
}

var onesWords = []string{
	"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight",
	"Nine", "Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen",
	"Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy",
	"Eighty", "Ninety",
}

// indianWords converts a non-negative integer into words with Indian
// grouping. Amounts of a hundred crore and above recurse on the crore count
// ("One Hundred Twenty Crore ...").
func indianWords(n int64) string {
	if n == 0 {
		return onesWords[0]
	}

	var parts []string
	if crore := n / 1e7; crore > 0 {
		parts = append(parts, indianWords(crore), "Crore")
		n %= 1e7
	}
	if lakh := n / 1e5; lakh > 0 {
		parts = append(parts, belowHundred(lakh), "Lakh")
		n %= 1e5
	}
	if thousand := n / 1e3; thousand > 0 {
		parts = append(parts, belowHundred(thousand), "Thousand")
		n %= 1e3
	}
	if hundred := n / 100; hundred > 0 {
		parts = append(parts, onesWords[hundred], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}
	return strings.Join(parts, " ")
}

func belowHundred(n int64) string {
	if n < 20 {
		return onesWords[n]
	}
	if n%10 == 0 {
		return tensWords[n/10]
	}
	return tensWords[n/10] + " " + onesWords[n%10]
}
