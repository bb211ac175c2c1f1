package source

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AuthPair is an (auth_token, ct0) credential pair observed in the cookie
// bundle, either scoped to a specific domain or collapsed from the
// name-indexed flat view.
type AuthPair struct {
	AuthToken string
	CT0       string
}

// CookieBundle is the parsed form of SOURCE_COOKIES_JSON: every distinct
// (auth_token, ct0) pair available for rotation, plus the remaining cookies
// forwarded verbatim on every request.
type CookieBundle struct {
	AuthPairs       []AuthPair
	OtherCookies    map[string]string
	DomainRewrites  int
	GuestToken      string
}

type rawCookieEntry struct {
	Name   string `json:"name"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// ParseCookies parses SOURCE_COOKIES_JSON into a CookieBundle. Each array
// entry is either a serialized "Name=Value; Domain=…; Path=…;" string or a
// {name|key, value, domain, path?} object. auth_token and ct0 are required
// somewhere in the bundle.
func ParseCookies(raw string) (*CookieBundle, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse cookie bundle: %w", err)
	}

	byDomain := map[string]map[string]string{}
	flat := map[string]string{}
	rewrites := 0

	for _, item := range items {
		entry, err := decodeCookieEntry(item)
		if err != nil {
			return nil, err
		}
		domain := normalizeDomain(entry.Domain, &rewrites)
		if _, ok := byDomain[domain]; !ok {
			byDomain[domain] = map[string]string{}
		}
		byDomain[domain][entry.Name] = entry.Value
		flat[entry.Name] = entry.Value
	}

	pairs := collectAuthPairs(byDomain, flat)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("cookie bundle has no auth_token/ct0 pair")
	}

	other := map[string]string{}
	for name, value := range flat {
		if name == "auth_token" || name == "ct0" {
			continue
		}
		other[name] = value
	}

	return &CookieBundle{
		AuthPairs:      pairs,
		OtherCookies:   other,
		DomainRewrites: rewrites,
		GuestToken:     flat["guest_id"],
	}, nil
}

func decodeCookieEntry(raw json.RawMessage) (rawCookieEntry, error) {
	var obj rawCookieEntry
	if err := json.Unmarshal(raw, &obj); err == nil && (obj.Name != "" || obj.Key != "") {
		if obj.Name == "" {
			obj.Name = obj.Key
		}
		return obj, nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return rawCookieEntry{}, fmt.Errorf("decode cookie entry: %w", err)
	}
	return parseCookieString(str)
}

// parseCookieString parses "Name=Value; Domain=…; Path=…;" entries.
func parseCookieString(s string) (rawCookieEntry, error) {
	parts := strings.Split(s, ";")
	if len(parts) == 0 {
		return rawCookieEntry{}, fmt.Errorf("empty cookie string")
	}
	name, value, ok := strings.Cut(strings.TrimSpace(parts[0]), "=")
	if !ok {
		return rawCookieEntry{}, fmt.Errorf("malformed cookie pair %q", parts[0])
	}
	entry := rawCookieEntry{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}
	for _, attr := range parts[1:] {
		k, v, ok := strings.Cut(strings.TrimSpace(attr), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "domain":
			entry.Domain = strings.TrimSpace(v)
		case "path":
			entry.Path = strings.TrimSpace(v)
		}
	}
	return entry, nil
}

func normalizeDomain(domain string, rewrites *int) string {
	switch domain {
	case "x.com", ".x.com":
		*rewrites++
		return ".twitter.com"
	case "":
		return "(unscoped)"
	default:
		return domain
	}
}

func collectAuthPairs(byDomain map[string]map[string]string, flat map[string]string) []AuthPair {
	seen := map[AuthPair]bool{}
	var pairs []AuthPair
	add := func(authToken, ct0 string) {
		if authToken == "" || ct0 == "" {
			return
		}
		pair := AuthPair{AuthToken: authToken, CT0: ct0}
		if !seen[pair] {
			seen[pair] = true
			pairs = append(pairs, pair)
		}
	}
	for _, cookies := range byDomain {
		add(cookies["auth_token"], cookies["ct0"])
	}
	add(flat["auth_token"], flat["ct0"])
	return pairs
}
