package urlutil

import (
	"errors"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const (
	PageTypeCareerRoot = "career_root"
	PageTypeJobList    = "job_list"
	PageTypeJobDetail  = "job_detail"
	PageTypeNonJob     = "non_job"
)

var ErrInvalidDomain = errors.New("invalid domain")

var careerRoots = []string{
	"careers",
	"jobs",
	"join-us",
	"joinus",
	"work-with-us",
	"workwithus",
}

var jobListSegments = []string{
	"jobs",
	"careers",
	"openings",
	"positions",
	"vacancies",
	"job-openings",
	"job-board",
	"jobs-board",
}

var blockedSegments = map[string]struct{}{
	"blog":      {},
	"blogs":     {},
	"events":    {},
	"press":     {},
	"news":      {},
	"docs":      {},
	"support":   {},
	"help":      {},
	"legal":     {},
	"privacy":   {},
	"terms":     {},
	"resources": {},
}

var atsHosts = []string{
	"greenhouse.io",
	"lever.co",
	"ashbyhq.com",
	"myworkdayjobs.com",
	"workdayjobs.com",
	"smartrecruiters.com",
	"bamboohr.com",
	"workable.com",
}

// Normalize returns the canonical form of a link and its host.
func Normalize(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(raw))
		if err != nil {
			return "", "", err
		}
	}
	u.Fragment = ""
	u.Host = normalizeHost(u.Host)
	u.Path = normalizePath(u.Path)
	u.RawQuery = normalizeQuery(u.RawQuery)
	return u.String(), u.Hostname(), nil
}

// RegistrableDomain reduces a domain, host or URL ("https://careers.openai.com/x")
// to its eTLD+1 ("openai.com").
func RegistrableDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidDomain
	}
	_, host, err := Normalize(raw)
	if err != nil || host == "" || !strings.Contains(host, ".") {
		return "", ErrInvalidDomain
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", ErrInvalidDomain
	}
	return domain, nil
}

// DetectPageType classifies a link by its path shape.
func DetectPageType(raw string) string {
	normalized, host, err := Normalize(raw)
	if err != nil || host == "" {
		return PageTypeNonJob
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return PageTypeNonJob
	}
	segs := splitPath(u.Path)

	if IsATSHost(host) {
		switch {
		case len(segs) == 0:
			return PageTypeNonJob
		case len(segs) == 1, isJobListSegment(segs[len(segs)-1]):
			return PageTypeJobList
		default:
			return PageTypeJobDetail
		}
	}

	if isBlockedPath(segs) {
		return PageTypeNonJob
	}
	if isCareerRootPath(segs) {
		if segs[0] == "jobs" {
			return PageTypeJobList
		}
		return PageTypeCareerRoot
	}
	if isJobListPath(segs) {
		return PageTypeJobList
	}
	if isJobDetailPath(segs) {
		return PageTypeJobDetail
	}
	return PageTypeNonJob
}

// IsDeepLink reports whether the link points at a single posting rather than a
// careers homepage or listing.
func IsDeepLink(raw string) bool {
	return DetectPageType(raw) == PageTypeJobDetail
}

func IsATSHost(host string) bool {
	h := normalizeHost(host)
	for _, ats := range atsHosts {
		if h == ats || strings.HasSuffix(h, "."+ats) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	return clean
}

func normalizeQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	for key := range values {
		lk := strings.ToLower(key)
		if strings.HasPrefix(lk, "utm_") || lk == "gclid" || lk == "fbclid" || lk == "ref" || lk == "source" {
			delete(values, key)
		}
	}
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	normalized := url.Values{}
	for _, k := range keys {
		normalized[k] = values[k]
	}
	return normalized.Encode()
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	return parts
}

func isCareerRootSegment(seg string) bool {
	for _, root := range careerRoots {
		if seg == root {
			return true
		}
	}
	return false
}

func isJobListSegment(seg string) bool {
	for _, root := range jobListSegments {
		if seg == root {
			return true
		}
	}
	return false
}

func isCareerRootPath(segs []string) bool {
	return len(segs) == 1 && isCareerRootSegment(segs[0])
}

func isJobListPath(segs []string) bool {
	if len(segs) == 1 && isJobListSegment(segs[0]) {
		return true
	}
	return len(segs) == 2 && segs[0] == "careers" && isJobListSegment(segs[1])
}

func isJobDetailPath(segs []string) bool {
	for i, seg := range segs {
		if isJobListSegment(seg) || seg == "careers" || seg == "job" {
			if i+1 < len(segs) && !isJobListSegment(segs[i+1]) {
				return true
			}
		}
	}
	return false
}

func isBlockedPath(segs []string) bool {
	if len(segs) == 0 {
		return true
	}
	if _, ok := blockedSegments[segs[0]]; ok {
		return true
	}
	for _, seg := range segs {
		if isJobListSegment(seg) || isCareerRootSegment(seg) || seg == "job" {
			return false
		}
	}
	for _, seg := range segs {
		if _, ok := blockedSegments[seg]; ok {
			return true
		}
	}
	return false
}
