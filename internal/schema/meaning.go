package schema

import "strings"

var abbreviations = map[string]string{
	"nm": "name", "addr": "address", "tel": "phone", "hp": "phone",
	"ph": "phone", "mob": "phone", "zip": "zipcode", "post": "zipcode",
	"usr": "user", "emp": "employee", "cust": "customer",
}

// AnalyzeMeaning guesses the real-world meaning of a column from its
// name and schema comment. The result feeds realistic-mode obfuscation
// only; character-level obfuscation ignores it. Returns "" when no
// meaning is recognized.
func AnalyzeMeaning(colName, comment string) string {
	c := strings.ToLower(comment)
	n := strings.ToLower(colName)

	// Comment keywords take priority over name heuristics.
	if strings.Contains(c, "phone") || strings.Contains(c, "mobile") || strings.Contains(c, "telefono") {
		return "phone"
	}
	if strings.Contains(c, "email") || strings.Contains(c, "mail") {
		return "email"
	}
	if strings.Contains(c, "address") || strings.Contains(c, "indirizzo") {
		return "address"
	}
	if strings.Contains(c, "name") || strings.Contains(c, "nome") {
		return "name"
	}

	// Expand trailing abbreviations: cust_nm -> name, emp_tel -> phone.
	tokens := strings.FieldsFunc(n, func(r rune) bool { return r == '_' || r == '-' })
	for i, tok := range tokens {
		if full, ok := abbreviations[tok]; ok {
			tokens[i] = full
		}
	}
	n = strings.Join(tokens, "_")

	switch {
	case strings.Contains(n, "email") || strings.Contains(n, "e_mail"):
		return "email"
	case strings.Contains(n, "phone") || strings.Contains(n, "mobile") || strings.Contains(n, "fax"):
		return "phone"
	case strings.Contains(n, "address") || strings.Contains(n, "street") || strings.Contains(n, "city"):
		return "address"
	case strings.HasSuffix(n, "name") || strings.Contains(n, "first_name") ||
		strings.Contains(n, "last_name") || strings.Contains(n, "surname"):
		return "name"
	}
	return ""
}
