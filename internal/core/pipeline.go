package core

import (
	"context"
	"fmt"

	"github.com/baxromumarov/job-sentinel/internal/ai"
	"github.com/baxromumarov/job-sentinel/internal/observability"
)

// Pipeline fronts the classification client and counts every call per agent.
type Pipeline struct {
	aiClient ai.Client
}

func NewPipeline(aiClient ai.Client) *Pipeline {
	return &Pipeline{aiClient: aiClient}
}

func (p *Pipeline) Profile(ctx context.Context, sourceText string) (ai.Profile, error) {
	observability.IncAICall("profiler")
	result, err := p.aiClient.SynthesizeProfile(ctx, sourceText)
	if err != nil {
		return ai.Profile{}, fmt.Errorf("profiling failed: %w", err)
	}
	return result, nil
}

func (p *Pipeline) Scout(ctx context.Context, entry WatchEntry, primaryRole string) ([]ai.Candidate, error) {
	observability.IncAICall("scout")
	result, err := p.aiClient.FindCandidates(ctx, entry.Name, entry.Domain, primaryRole)
	if err != nil {
		return nil, fmt.Errorf("scouting %s failed: %w", entry.Name, err)
	}
	return result, nil
}

func (p *Pipeline) Critique(ctx context.Context, candidate ai.Candidate, profile ai.Profile) (ai.Verdict, error) {
	observability.IncAICall("critic")
	result, err := p.aiClient.EvaluateCandidate(ctx, candidate, profile)
	if err != nil {
		return ai.Verdict{}, fmt.Errorf("critique failed: %w", err)
	}
	return result, nil
}
