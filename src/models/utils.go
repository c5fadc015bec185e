package models

import (
	"strings"
	"unicode"
)

// toSnakeCase converts "UserTypeStatus" to "user_type_status"
// and keeps runs of capitals together, "HTTPCode" becomes "http_code".
func toSnakeCase(s string) string {
	var runes = []rune(s)
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				var prevLower = unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				var nextLower = i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
					sb.WriteByte('_')
				}
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
