package leads

import (
	"net/mail"
	"strings"
)

// ValidatePhone reports whether p has exactly nine digits once every
// non-digit character is removed. Country prefixes are not special-cased,
// so "+34 680 885 637" fails.
func ValidatePhone(p string) bool {
	digits := 0
	for _, r := range p {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits == 9
}

// ValidEmail reports whether e is a bare address with a dotted domain.
func ValidEmail(e string) bool {
	e = strings.TrimSpace(e)
	if e == "" {
		return false
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || addr.Name != "" {
		return false
	}
	domain := e[strings.LastIndex(e, "@")+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
