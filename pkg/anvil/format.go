package anvil

import (
	"strconv"
	"strings"
)

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// Roman formats n as a roman numeral. Values outside 1..3999 fall back to decimal.
func Roman(n int) string {
	if n < 1 || n > 3999 {
		return strconv.Itoa(n)
	}
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}

// ParseRoman parses a canonical roman numeral. Non-canonical spellings such as
// "IIII" are rejected so ordinary words are not mistaken for numerals.
func ParseRoman(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	values := map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := values[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) && values[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	if Roman(total) != s {
		return 0, false
	}
	return total, true
}

// FormatID turns a snake_case id into a title-cased display name.
func FormatID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Slug turns a display name into a snake_case id.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// EnchantmentLabel formats an enchantment and level for display, e.g. "Sharpness V".
// The numeral is omitted for enchantments whose max level is 1.
func EnchantmentLabel(displayName string, level, maxLevel int) string {
	if maxLevel == 1 {
		return displayName
	}
	return displayName + " " + Roman(level)
}
