// Package security masks secrets before they reach logs or the terminal.
package security

import (
	"regexp"
	"strings"
)

// sensitiveFields contains field names whose values are always masked.
var sensitiveFields = map[string]bool{
	"password":     true,
	"secret":       true,
	"token":        true,
	"api_key":      true,
	"access_token": true,
	"credentials":  true,
}

// sensitivePattern matches key=value and key: value pairs with a secret key,
// and the password part of a redis:// URL.
var sensitivePattern = regexp.MustCompile(`(?i)(password|secret|token|api[_-]?key)(\s*[=:]\s*)["']?([^\s"',]+)["']?|(redis://[^:/@\s]*:)([^@\s]+)(@)`)

// IsSensitiveField reports whether a field name holds a secret.
func IsSensitiveField(field string) bool {
	return sensitiveFields[strings.ToLower(field)]
}

// MaskCredential masks a credential, keeping a short prefix and suffix on
// long values so that they stay recognisable.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// MaskSensitive masks every secret found in free text.
func MaskSensitive(input string) string {
	return sensitivePattern.ReplaceAllStringFunc(input, func(match string) string {
		m := sensitivePattern.FindStringSubmatch(match)
		if m[1] != "" {
			return m[1] + m[2] + MaskCredential(m[3])
		}
		return m[4] + MaskCredential(m[5]) + m[6]
	})
}

// RedactMap returns a copy of data with sensitive fields masked. Nested maps
// are redacted recursively; strings are scanned for embedded secrets.
func RedactMap(data map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case map[string]interface{}:
			result[k] = RedactMap(val)
		case string:
			if IsSensitiveField(k) {
				result[k] = MaskCredential(val)
			} else {
				result[k] = MaskSensitive(val)
			}
		default:
			if IsSensitiveField(k) {
				result[k] = "***"
			} else {
				result[k] = v
			}
		}
	}
	return result
}
