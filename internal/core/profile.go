package core

import (
	"strings"

	"github.com/baxromumarov/job-sentinel/internal/ai"
)

// ProfileStore holds the source text and the profile synthesized from it.
// A profile is only ever valid for the exact text that produced it.
// Not safe for concurrent use; Sentinel serializes access.
type ProfileStore struct {
	sourceText string
	profile    *ai.Profile
	locking    bool
}

func (p *ProfileStore) SourceText() string {
	return p.sourceText
}

// Current returns a copy of the profile, if one is locked.
func (p *ProfileStore) Current() (ai.Profile, bool) {
	if p.profile == nil {
		return ai.Profile{}, false
	}
	return p.profile.Clone(), true
}

// SetSourceText replaces the source text. Any change invalidates the profile
// and reports true.
func (p *ProfileStore) SetSourceText(text string) bool {
	if text == p.sourceText {
		return false
	}
	p.sourceText = text
	p.Invalidate()
	return true
}

func (p *ProfileStore) Invalidate() {
	p.profile = nil
}

// beginLock reserves the single in-flight lock slot and returns the text to synthesize.
func (p *ProfileStore) beginLock() (string, error) {
	if strings.TrimSpace(p.sourceText) == "" {
		return "", newError(ErrValidation, "source text is empty")
	}
	if p.locking {
		return "", ErrProfileBusy
	}
	p.locking = true
	return p.sourceText, nil
}

// finishLock stores a synthesized profile when the source text it was built
// from is still current.
func (p *ProfileStore) finishLock(text string, profile ai.Profile) error {
	p.locking = false
	if text != p.sourceText {
		return ErrSourceChanged
	}
	profile.SourceText = text
	p.profile = &profile
	return nil
}

func (p *ProfileStore) abortLock() {
	p.locking = false
}

func (p *ProfileStore) Locking() bool {
	return p.locking
}

// restore installs persisted state, dropping a profile that no longer matches its text.
func (p *ProfileStore) restore(text string, profile *ai.Profile) {
	p.sourceText = text
	p.profile = nil
	if profile == nil {
		return
	}
	if profile.SourceText != "" && profile.SourceText != text {
		return
	}
	c := profile.Clone()
	c.SourceText = text
	p.profile = &c
}
