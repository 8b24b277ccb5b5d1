package download

import "net/url"

// IsValidURL reports whether s may be used to start a transfer: it must parse as a URL
// with an http or https scheme and a non-empty host.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
