package ai

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

var mockSkills = []string{
	"golang", "python", "kubernetes", "postgresql", "aws", "react",
	"agile", "scrum", "jira", "asana", "stakeholder management", "pmp",
	"machine learning", "product strategy", "distributed systems",
}

// MockClient is an offline pipeline. Postings are derived from the domain and
// role so repeated scans of the same organization return the same links.
type MockClient struct {
	Delay time.Duration
}

func NewMockClient() *MockClient {
	return &MockClient{Delay: 500 * time.Millisecond}
}

func (m *MockClient) wait(ctx context.Context) error {
	if m.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(m.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockClient) SynthesizeProfile(ctx context.Context, rawText string) (Profile, error) {
	if err := m.wait(ctx); err != nil {
		return Profile{}, serviceError("synthesize profile", err)
	}
	if strings.TrimSpace(rawText) == "" {
		return Profile{}, serviceError("synthesize profile", errors.New("empty resume"))
	}

	lower := strings.ToLower(rawText)
	var skills []string
	for _, s := range mockSkills {
		if strings.Contains(lower, s) {
			skills = append(skills, s)
		}
	}

	roles := seekingRoles(rawText)
	if len(roles) == 0 {
		roles = []string{"Software Engineer"}
	}

	return Profile{
		SourceText:  rawText,
		Skills:      skills,
		TargetRoles: roles,
		Summary:     fmt.Sprintf("%s with %d recognised skills.", roles[0], len(skills)),
	}, nil
}

func (m *MockClient) FindCandidates(ctx context.Context, orgName, domain, primaryRole string) ([]Candidate, error) {
	if err := m.wait(ctx); err != nil {
		return nil, serviceError("find candidates", err)
	}
	if primaryRole == "" {
		return nil, nil
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(domain + "|" + primaryRole)))
	return []Candidate{{
		Title:      primaryRole,
		Link:       fmt.Sprintf("https://%s/jobs/%d", domain, h.Sum32()%100000),
		Snippet:    fmt.Sprintf("%s is hiring a %s.", orgName, primaryRole),
		PostedDate: time.Now().Format("2006-01-02"),
	}}, nil
}

func (m *MockClient) EvaluateCandidate(ctx context.Context, candidate Candidate, profile Profile) (Verdict, error) {
	if err := m.wait(ctx); err != nil {
		return Verdict{}, serviceError("evaluate candidate", err)
	}
	keywords := append(append([]string(nil), profile.TargetRoles...), profile.Skills...)
	if MatchesKeywords(candidate.Title+" "+candidate.Snippet, keywords) {
		return Verdict{Accepted: true, Rationale: "Title matches the candidate's target roles."}, nil
	}
	return Verdict{Accepted: false, Rationale: "No overlap with the candidate's roles or skills."}, nil
}

func MatchesKeywords(text string, keywords []string) bool {
	lowerText := strings.ToLower(text)
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// seekingRoles reads a "Seeking: A or B" line.
func seekingRoles(text string) []string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "seeking:") {
			continue
		}
		rest := strings.TrimSpace(line[len("seeking:"):])
		if i := strings.Index(strings.ToLower(rest), " roles"); i >= 0 {
			rest = rest[:i]
		}
		var roles []string
		for _, part := range strings.Split(rest, " or ") {
			part = strings.Trim(strings.TrimSpace(part), ".,")
			if part != "" {
				roles = append(roles, part)
			}
		}
		return roles
	}
	return nil
}
