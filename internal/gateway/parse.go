package gateway

import (
	"net/url"
	"strings"
)

// ParseCookies reads the name/value pairs of one or more Cookie header
// values. Values are kept verbatim. A later pair overwrites an earlier one of
// the same name.
func ParseCookies(headerValues []string) map[string]string {
	cookies := make(map[string]string)
	for _, header := range headerValues {
		for pair := range strings.SplitSeq(header, ";") {
			name, value, _ := strings.Cut(pair, "=")
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			cookies[name] = strings.TrimSpace(value)
		}
	}

	return cookies
}

// ParseQueryString splits a raw query string into a flat map. Keys and values
// are percent-decoded where possible and kept raw otherwise. The last
// occurrence of a key wins.
func ParseQueryString(qs string) map[string]string {
	query := make(map[string]string)
	for pair := range strings.SplitSeq(qs, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		query[unescape(key)] = unescape(value)
	}

	return query
}

func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}

	return decoded
}
