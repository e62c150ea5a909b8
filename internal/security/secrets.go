package security

import (
	"regexp"
	"strings"
)

type SecretMatch struct {
	Type     string
	Start    int
	End      int
	Redacted string
}

type SecretScanner struct {
	patterns []*secretPattern
}

type secretPattern struct {
	name       string
	regex      *regexp.Regexp
	redactWith string
}

// Credentials that can show up in transport errors, DSNs and request URLs.
var defaultSecretPatterns = []struct {
	name       string
	pattern    string
	redactWith string
}{
	{"Telegram Bot URL", `/bot[0-9]{6,10}:[a-zA-Z0-9_-]{30,}`, "/bot****"},
	{"Telegram Bot Token", `[0-9]{8,10}:[a-zA-Z0-9_-]{35}`, "****:****"},
	{"Discord Token", `[MN][a-zA-Z\d]{23}\.[\w-]{6}\.[\w-]{27}`, "DISCORD_TOKEN****"},
	{"Bearer Token", `(?i)bearer\s+[a-zA-Z0-9\-_.=]{16,}`, "Bearer ****"},
	{"JWT Token", `eyJ[a-zA-Z0-9\-_]+\.eyJ[a-zA-Z0-9\-_]+\.[a-zA-Z0-9\-_]+`, "eyJ****"},
	{"Database URL", `(?i)(postgres|postgresql|mysql)://[^\s'"]+:[^\s'"]+@[^\s'"]+`, "DB_URL****"},
	{"Generic Secret", `(?i)(secret|password|passwd|pwd|token)['"]?\s*[:=]\s*['"]?[^\s'"]{8,}['"]?`, "SECRET****"},
}

func NewSecretScanner() *SecretScanner {
	scanner := &SecretScanner{
		patterns: make([]*secretPattern, 0, len(defaultSecretPatterns)),
	}

	for _, p := range defaultSecretPatterns {
		scanner.patterns = append(scanner.patterns, &secretPattern{
			name:       p.name,
			regex:      regexp.MustCompile(p.pattern),
			redactWith: p.redactWith,
		})
	}

	return scanner
}

func (s *SecretScanner) Scan(input string) []SecretMatch {
	var matches []SecretMatch

	for _, pattern := range s.patterns {
		for _, loc := range pattern.regex.FindAllStringIndex(input, -1) {
			matches = append(matches, SecretMatch{
				Type:     pattern.name,
				Start:    loc[0],
				End:      loc[1],
				Redacted: pattern.redactWith,
			})
		}
	}

	return matches
}

func (s *SecretScanner) HasSecrets(input string) bool {
	for _, pattern := range s.patterns {
		if pattern.regex.MatchString(input) {
			return true
		}
	}
	return false
}

func (s *SecretScanner) Redact(input string) string {
	result := input
	for _, pattern := range s.patterns {
		result = pattern.regex.ReplaceAllString(result, pattern.redactWith)
	}
	return result
}

var defaultScanner = NewSecretScanner()

func HasSecrets(input string) bool {
	return defaultScanner.HasSecrets(input)
}

func RedactSecrets(input string) string {
	return defaultScanner.Redact(input)
}

// MaskContact hides most of an email local part or a chat/phone identifier
// so logs can still tell recipients apart.
func MaskContact(contact string) string {
	if at := strings.LastIndex(contact, "@"); at > 0 {
		local, domain := contact[:at], contact[at:]
		return local[:1] + "***" + domain
	}
	if len(contact) <= 4 {
		return "***"
	}
	return "***" + contact[len(contact)-4:]
}
