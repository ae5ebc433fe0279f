package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Client is the classification pipeline: profiling, candidate discovery and
// candidate evaluation. Every failure it returns matches ErrExternalService.
type Client interface {
	SynthesizeProfile(ctx context.Context, rawText string) (Profile, error)
	FindCandidates(ctx context.Context, orgName, domain, primaryRole string) ([]Candidate, error)
	EvaluateCandidate(ctx context.Context, candidate Candidate, profile Profile) (Verdict, error)
}

const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// Config selects and tunes the pipeline provider.
type Config struct {
	Provider          string
	APIKey            string
	Models            Models
	RequestsPerMinute int
}

// Models names the model used by each capability.
type Models struct {
	Profile string
	Scout   string
	Critic  string
}

func DefaultModels() Models {
	return Models{
		Profile: "gemini-2.5-pro",
		Scout:   "gemini-2.5-flash",
		Critic:  "gemini-2.5-pro",
	}
}

// NewClient creates a pipeline client for cfg.Provider.
// An empty provider means "gemini" when an API key is present and "mock" otherwise.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		if cfg.APIKey != "" {
			provider = ProviderGemini
		} else {
			provider = ProviderMock
		}
	}

	switch provider {
	case ProviderGemini:
		if cfg.APIKey == "" {
			slog.Warn("ai provider is gemini but no API key is set, falling back to mock")
			return NewMockClient(), nil
		}
		slog.Info("using Gemini pipeline client", "profile_model", cfg.Models.Profile, "scout_model", cfg.Models.Scout, "critic_model", cfg.Models.Critic)
		return NewGeminiClient(ctx, cfg)
	case ProviderMock:
		slog.Info("using mock pipeline client (set GEMINI_API_KEY for real AI)")
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

// Profile is the synthesized candidate identity. It is only valid for the
// exact SourceText that produced it.
type Profile struct {
	SourceText  string   `json:"resumeText"`
	Skills      []string `json:"skills"`
	TargetRoles []string `json:"targetRoles"`
	Summary     string   `json:"vectorSummary"`
}

// PrimaryRole is the query term used by the scout.
func (p Profile) PrimaryRole() string {
	if len(p.TargetRoles) == 0 {
		return ""
	}
	return p.TargetRoles[0]
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	p.Skills = append([]string(nil), p.Skills...)
	p.TargetRoles = append([]string(nil), p.TargetRoles...)
	return p
}

// Candidate is a posting returned by the scout.
type Candidate struct {
	Title      string `json:"title"`
	Link       string `json:"link"`
	Snippet    string `json:"snippet"`
	PostedDate string `json:"postedDate,omitempty"`
}

// Verdict is the critic's binary decision.
type Verdict struct {
	Accepted  bool   `json:"isValid"`
	Rationale string `json:"reason"`
}

var ErrExternalService = errors.New("external service error")

// ServiceError wraps any failure of a pipeline capability.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrExternalService)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrExternalService
}

func (e *ServiceError) Kind() string {
	return "ai"
}

func serviceError(op string, err error) error {
	return &ServiceError{Op: op, Err: err}
}
