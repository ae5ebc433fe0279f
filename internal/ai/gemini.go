package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/baxromumarov/job-sentinel/internal/urlutil"
)

const (
	maxCandidates      = 3
	defaultRPM         = 30
	defaultTemperature = 0.1
)

type generateFunc func(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error)

// GeminiClient implements Client on the Gemini API. Calls are paced by a
// shared limiter so a full watchlist pass cannot burst the quota.
type GeminiClient struct {
	models   Models
	limiter  *rate.Limiter
	generate generateFunc
}

func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := newGeminiClient(cfg, func(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
		if err != nil {
			return "", fmt.Errorf("Gemini API error: %w", err)
		}
		return resp.Text(), nil
	})
	return g, nil
}

func newGeminiClient(cfg Config, generate generateFunc) *GeminiClient {
	models := cfg.Models
	defaults := DefaultModels()
	if models.Profile == "" {
		models.Profile = defaults.Profile
	}
	if models.Scout == "" {
		models.Scout = defaults.Scout
	}
	if models.Critic == "" {
		models.Critic = defaults.Critic
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRPM
	}

	return &GeminiClient{
		models:   models,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		generate: generate,
	}
}

func (g *GeminiClient) call(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	text, err := g.generate(ctx, model, prompt, config)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from Gemini")
	}
	return text, nil
}

func jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](defaultTemperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
}

var profileSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"skills":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"targetRoles":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"vectorSummary": {Type: genai.TypeString},
	},
	Required: []string{"skills", "targetRoles", "vectorSummary"},
}

var candidatesSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":      {Type: genai.TypeString},
			"link":       {Type: genai.TypeString},
			"snippet":    {Type: genai.TypeString},
			"postedDate": {Type: genai.TypeString},
		},
		Required: []string{"title", "link", "snippet"},
	},
}

var verdictSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isValid": {Type: genai.TypeBoolean},
		"reason":  {Type: genai.TypeString},
	},
	Required: []string{"isValid", "reason"},
}

// SynthesizeProfile extracts skills, target roles and a one-line summary from resume text.
func (g *GeminiClient) SynthesizeProfile(ctx context.Context, rawText string) (Profile, error) {
	response, err := g.call(ctx, g.models.Profile, profilePrompt(rawText), jsonConfig(profileSchema))
	if err != nil {
		return Profile{}, serviceError("synthesize profile", err)
	}

	var result Profile
	if err := json.Unmarshal([]byte(cleanJSON(response)), &result); err != nil {
		return Profile{}, serviceError("synthesize profile", fmt.Errorf("failed to parse profile: %w", err))
	}
	result.SourceText = rawText
	return result, nil
}

// FindCandidates runs a search-grounded scout pass and then extracts structured
// postings from its answer. Only deep links survive.
func (g *GeminiClient) FindCandidates(ctx context.Context, orgName, domain, primaryRole string) ([]Candidate, error) {
	searchText, err := g.call(ctx, g.models.Scout, scoutPrompt(orgName, domain, primaryRole), &genai.GenerateContentConfig{
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		SystemInstruction: genai.NewContentFromText(scoutSystemInstruction, genai.RoleUser),
	})
	if err != nil {
		return nil, serviceError("find candidates", err)
	}

	response, err := g.call(ctx, g.models.Scout, extractPrompt(searchText), jsonConfig(candidatesSchema))
	if err != nil {
		return nil, serviceError("find candidates", err)
	}

	var raw []Candidate
	if err := json.Unmarshal([]byte(cleanJSON(response)), &raw); err != nil {
		// An unparseable extraction is treated as "nothing found".
		return nil, nil
	}
	return filterCandidates(raw), nil
}

// EvaluateCandidate asks the critic for a binary verdict.
func (g *GeminiClient) EvaluateCandidate(ctx context.Context, candidate Candidate, profile Profile) (Verdict, error) {
	response, err := g.call(ctx, g.models.Critic, criticPrompt(candidate, profile), jsonConfig(verdictSchema))
	if err != nil {
		return Verdict{}, serviceError("evaluate candidate", err)
	}

	var result Verdict
	if err := json.Unmarshal([]byte(cleanJSON(response)), &result); err != nil {
		return Verdict{}, serviceError("evaluate candidate", fmt.Errorf("failed to parse verdict: %w (response: %s)", err, response))
	}
	return result, nil
}

func filterCandidates(raw []Candidate) []Candidate {
	out := make([]Candidate, 0, len(raw))
	for _, c := range raw {
		c.Title = strings.TrimSpace(c.Title)
		c.Link = strings.TrimSpace(c.Link)
		if c.Title == "" || c.Link == "" {
			continue
		}
		if !urlutil.IsDeepLink(c.Link) {
			continue
		}
		out = append(out, c)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}
