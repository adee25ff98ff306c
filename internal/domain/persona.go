// Package domain contains core domain types for the roundtable service.
package domain

import (
	"context"
	"strings"
)

// Archetype selects the persona-specific instruction block used in prompts.
type Archetype string

const (
	// ArchetypeAnalytical is the data-driven, skeptical voice.
	ArchetypeAnalytical Archetype = "analytical"
	// ArchetypeCreative is the exploratory, idea-generating voice.
	ArchetypeCreative Archetype = "creative"
	// ArchetypePractical is the decisive, action-oriented voice.
	ArchetypePractical Archetype = "practical"
)

// Valid reports whether a is a known archetype.
func (a Archetype) Valid() bool {
	switch a {
	case ArchetypeAnalytical, ArchetypeCreative, ArchetypePractical:
		return true
	}
	return false
}

// KeywordWeight is one topical keyword and how strongly it pulls a persona in.
type KeywordWeight struct {
	Term   string  `yaml:"term" json:"term"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// LengthProfile governs how long a persona's reply may be.
type LengthProfile struct {
	// Base is the response budget in characters before any adjustment.
	Base int `yaml:"base" json:"base"`
	// BriefFactor applies when the user asks for a short answer (< 1).
	BriefFactor float64 `yaml:"brief_factor" json:"brief_factor"`
	// DetailedFactor applies when the user asks for depth (> 1).
	DetailedFactor float64 `yaml:"detailed_factor" json:"detailed_factor"`
	// TechnicalBonus applies whenever the reply itself looks technical.
	TechnicalBonus float64 `yaml:"technical_bonus" json:"technical_bonus"`
	// DataOriented personas get an extra boost for technical replies to detailed requests.
	DataOriented bool `yaml:"data_oriented" json:"data_oriented"`
}

// GenerationOptions are passed through to the text generator untouched.
type GenerationOptions struct {
	Model           string  `yaml:"model" json:"model,omitempty"`
	Temperature     float32 `yaml:"temperature" json:"temperature,omitempty"`
	MaxOutputTokens int     `yaml:"max_output_tokens" json:"max_output_tokens,omitempty"`
}

// Generator is the narrow capability a persona needs to speak.
// Implementations may be slow, may return empty text and may fail.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, opts GenerationOptions) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// Persona is an immutable conversational participant.
type Persona struct {
	// ID is the full display name, e.g. "Analyst Alex".
	ID string
	// Key is the short addressing name, e.g. "alex".
	Key        string
	Archetype  Archetype
	Descriptor string
	Directive  string
	Style      []string
	Keywords   []KeywordWeight
	Length     LengthProfile
	Options    GenerationOptions
	Generator  Generator
}

// ShortName returns the capitalized short name used to label transcript lines.
func (p Persona) ShortName() string {
	if p.Key == "" {
		return p.ID
	}
	return strings.ToUpper(p.Key[:1]) + p.Key[1:]
}

// Names returns the lowercased forms a user may address the persona by.
func (p Persona) Names() []string {
	key := strings.ToLower(p.Key)
	id := strings.ToLower(p.ID)
	if key == id || key == "" {
		return []string{id}
	}
	return []string{key, id}
}

// Ready reports whether the persona has a usable generation capability.
func (p Persona) Ready() bool {
	return p.Generator != nil
}
