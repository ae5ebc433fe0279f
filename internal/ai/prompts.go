package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const scoutSystemInstruction = `Only report postings published within the last 7 days.
Ignore any result that is older, undated beyond a week, or that is a company careers homepage rather than a single posting.`

func profilePrompt(resumeText string) string {
	return fmt.Sprintf(`You are a recruiter building a precise candidate identity.

Read the resume below and return JSON with:
- "skills": the core technical and domain skills, most important first
- "targetRoles": job titles this candidate should apply for, most suitable first, including the expected seniority (Junior, Mid, Senior, Staff, Lead)
- "vectorSummary": one sentence that pins down the candidate's niche exactly

Resume:
%s`, truncateText(resumeText, 12000))
}

// scoutQuery builds the search grounding query for one organization.
func scoutQuery(domain, primaryRole string) string {
	return fmt.Sprintf(`site:%s (inurl:careers OR inurl:jobs OR inurl:greenhouse OR inurl:lever OR inurl:workday) "%s" after:7d`, domain, primaryRole)
}

func scoutPrompt(orgName, domain, primaryRole string) string {
	return fmt.Sprintf(`Find the 3 most recent job openings at %s (%s) for the role "%s".

Every link must point at a single posting or its application page (for example /jobs/12345 or a boards.greenhouse.io posting).
Do not return careers homepages or search result pages.

Search grounding query: %s`, orgName, domain, primaryRole, scoutQuery(domain, primaryRole))
}

func extractPrompt(searchText string) string {
	return fmt.Sprintf(`From the text below, extract every job posting as JSON with "title", "link", "snippet" and, when known, "postedDate".
Keep links exactly as they appear and only keep direct posting links.

Text:
%s`, searchText)
}

func criticPrompt(candidate Candidate, profile Profile) string {
	posted := candidate.PostedDate
	if posted == "" {
		posted = "Unknown"
	}
	return fmt.Sprintf(`Decide whether this posting is a match for the candidate. Answer with a strict yes/no.

Candidate summary: %s
Candidate target roles: %s
Candidate skills: %s

Posting title: %s
Posting details: %s
Posting link: %s
Posted: %s

Reject when any rule fails:
1. Recency: the posting is explicitly older than 7 days.
2. Viability: the link is a generic careers page instead of a specific posting.
3. Relevance: the role does not fit the candidate's seniority and niche.

Return JSON {"isValid": boolean, "reason": "one short sentence"}.`,
		profile.Summary,
		strings.Join(profile.TargetRoles, ", "),
		strings.Join(profile.Skills, ", "),
		candidate.Title,
		truncateText(candidate.Snippet, 800),
		candidate.Link,
		posted,
	)
}

// truncateText limits text to maxLen bytes without splitting a rune
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// cleanJSON removes markdown code blocks if present
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
