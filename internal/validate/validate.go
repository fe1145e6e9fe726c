// Package validate checks the structural shape of credential input. The
// functions are pure; a false result means the value must be treated as absent.
package validate

import "regexp"

var (
	usernamePattern = regexp.MustCompile(`(?i)^[a-z0-9]+$`)

	emailPattern = regexp.MustCompile(`(?i)^[-a-z0-9~!$%^&*_=+}{'?]+(\.[-a-z0-9~!$%^&*_=+}{'?]+)*@` +
		`([a-z0-9_][-a-z0-9_]*(\.[-a-z0-9_]+)*\.(aero|arpa|biz|com|coop|edu|gov|info|int|mil|museum|name|net|org|pro|travel|mobi|[a-z][a-z])` +
		`|([0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}))(:[0-9]{1,5})?$`)
)

// Username returns raw unchanged when it is a non-empty alphanumeric string.
func Username(raw string) (string, bool) {
	if raw == "" || !usernamePattern.MatchString(raw) {
		return "", false
	}
	return raw, true
}

// Email returns raw unchanged when it is a local@domain address whose domain is
// a whitelisted TLD or an IPv4 literal, optionally followed by a port.
func Email(raw string) (string, bool) {
	if raw == "" || !emailPattern.MatchString(raw) {
		return "", false
	}
	return raw, true
}

// Password returns raw when it is non-empty and byte-for-byte equal to confirm.
func Password(raw, confirm string) (string, bool) {
	if raw == "" || raw != confirm {
		return "", false
	}
	return raw, true
}
