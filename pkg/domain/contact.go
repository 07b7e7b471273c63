package domain

import (
	"fmt"
	"regexp"
)

// Contact is a Brazilian mobile number in the canonical form
// "(DD) DDDDD-DDDD". It is the participant identity key, so every spelling of
// the same number must normalize to the same Contact value.
type Contact string

var (
	canonicalContact = regexp.MustCompile(`^\(\d{2}\) \d{5}-\d{4}$`)
	digits           = regexp.MustCompile(`\D`)
)

// ParseContact normalizes raw input into a Contact. It accepts the canonical
// form directly, or any spelling that strips down to exactly 11 digits
// (two-digit area code plus nine-digit mobile number).
func ParseContact(raw string) (Contact, bool) {
	if canonicalContact.MatchString(raw) {
		return Contact(raw), true
	}
	d := digits.ReplaceAllString(raw, "")
	if len(d) != 11 {
		return "", false
	}
	return Contact(fmt.Sprintf("(%s) %s-%s", d[:2], d[2:7], d[7:])), true
}

func (c Contact) String() string {
	return string(c)
}

func (c Contact) IsZero() bool {
	return c == ""
}
