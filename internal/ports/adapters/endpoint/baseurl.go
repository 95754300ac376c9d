package endpoint

import (
	"fmt"
	"net/url"
	"strings"
)

// Spec describes where a backend may be reached.
type Spec struct {
	// Name labels errors, e.g. GEMINI_BASE_URL.
	Name         string
	DefaultURL   string
	DefaultHosts []string
}

func NormalizeBaseURL(baseURL, defaultURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultURL
	}
	return strings.TrimRight(baseURL, "/")
}

func (s Spec) ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = NormalizeBaseURL(baseURL, s.DefaultURL)

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", s.Name, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: absolute URL with host is required", s.Name, baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid %s %q: userinfo is not allowed", s.Name, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid %s %q: query and fragment are not allowed", s.Name, baseURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid %s %q: host is required", s.Name, baseURL)
	}

	// credentials travel with every request, never in clear text
	if scheme != "https" {
		return fmt.Errorf("invalid %s %q: https is required", s.Name, baseURL)
	}

	allowed := s.normalizeAllowedHosts(allowedHosts)
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not in the allowed hosts", s.Name, baseURL, host)
	}
	return nil
}

func (s Spec) normalizeAllowedHosts(allowedHosts []string) map[string]struct{} {
	out := hostSet(allowedHosts)
	if len(out) == 0 {
		return hostSet(s.DefaultHosts)
	}
	return out
}

func hostSet(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	return out
}
