package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"cookie",
	"api_key",
	"apikey",
}

// Query parameters masked inside logged URIs.
var sensitiveQueryParams = []string{
	"token",
	"access_token",
	"api_key",
	"apikey",
	"key",
	"password",
	"secret",
	"sig",
	"signature",
}

// uriKeys are attribute keys whose values are request targets.
var uriKeys = map[string]bool{
	"uri": true,
	"url": true,
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strVal == "" {
			return a
		}
		if uriKeys[strings.ToLower(a.Key)] {
			return slog.String(a.Key, RedactURI(strVal))
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if scheme, ok := credentialScheme(strVal); ok {
			return slog.String(a.Key, scheme+" "+redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// RedactURI masks the values of sensitive query parameters in a request
// target. Targets that do not parse are returned unchanged.
func RedactURI(uri string) string {
	i := strings.IndexByte(uri, '?')
	if i < 0 {
		return uri
	}
	query, err := url.ParseQuery(uri[i+1:])
	if err != nil {
		return uri
	}
	changed := false
	for name := range query {
		if isSensitiveParam(name) {
			query[name] = []string{redactedValue}
			changed = true
		}
	}
	if !changed {
		return uri
	}
	return uri[:i+1] + query.Encode()
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

func isSensitiveParam(name string) bool {
	name = strings.ToLower(name)
	for _, p := range sensitiveQueryParams {
		if name == p {
			return true
		}
	}
	return false
}

// credentialScheme reports whether v looks like an Authorization header
// value and returns its scheme.
func credentialScheme(v string) (string, bool) {
	scheme, rest, ok := strings.Cut(v, " ")
	if !ok || rest == "" {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "bearer", "basic":
		return scheme, true
	}
	return "", false
}
