package persona

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/randx"
)

func TestDefaultRosterIsValid(t *testing.T) {
	t.Parallel()

	r := DefaultRoster()
	require.Equal(t, 3, r.Len())

	p, ok := r.Get("ALEX")
	require.True(t, ok)
	assert.Equal(t, "Analyst Alex", p.ID)

	p, ok = r.Get("creative casey")
	require.True(t, ok)
	assert.Equal(t, KeyCasey, p.Key)

	assert.ElementsMatch(t, []string{"Analyst Alex", "Creative Casey", "Practical Parker"}, r.Degraded())
}

func TestNewRosterRejectsIncompletePersonas(t *testing.T) {
	t.Parallel()

	_, err := NewRoster(
		domain.Persona{ID: "No Key", Archetype: domain.ArchetypeCreative, Length: domain.LengthProfile{Base: 100}},
		domain.Persona{ID: "Zero Budget", Key: "zero", Archetype: domain.ArchetypeCreative},
		domain.Persona{ID: "Odd", Key: "odd", Archetype: "mystic", Length: domain.LengthProfile{Base: 100}},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPersona))
	assert.Contains(t, err.Error(), "missing key")
	assert.Contains(t, err.Error(), "length budget")
	assert.Contains(t, err.Error(), "unknown archetype")
}

func TestNewRosterRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	p := Defaults()[0]
	_, err := NewRoster(p, p)
	require.ErrorIs(t, err, ErrInvalidPersona)
	assert.Contains(t, err.Error(), "duplicate name")
}

func TestBindGeneratorKeepsExplicitGenerators(t *testing.T) {
	t.Parallel()

	own := domain.GeneratorFunc(func(context.Context, string, domain.GenerationOptions) (string, error) {
		return "own", nil
	})
	shared := domain.GeneratorFunc(func(context.Context, string, domain.GenerationOptions) (string, error) {
		return "shared", nil
	})

	personas := Defaults()
	personas[1].Generator = own
	r, err := NewRoster(personas...)
	require.NoError(t, err)

	bound := r.BindGenerator(shared)
	assert.Empty(t, bound.Degraded())
	assert.Len(t, r.Degraded(), 2, "original roster must not change")

	casey, _ := bound.Get(KeyCasey)
	out, err := casey.Generator.Generate(context.Background(), "", domain.GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "own", out)

	alex, _ := bound.Get(KeyAlex)
	out, err = alex.Generator.Generate(context.Background(), "", domain.GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "shared", out)
}

func TestDomainRuleMatches(t *testing.T) {
	t.Parallel()

	rule := DefaultTables().Domain
	tests := []struct {
		message string
		want    bool
	}{
		{"Is 0x52908400098527886E0F7030069857D2E4169EE7 a safe address?", true},
		{"Should I move my savings into bitcoin?", true},
		{"How do smart contract audits work", true},
		{"Let's talk about tokenization of text", false},
		{"What should we cook tonight?", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rule.Matches(tt.message), tt.message)
	}
}

func TestTransitionsFollower(t *testing.T) {
	t.Parallel()

	tr := DefaultTables().Transitions
	assert.Equal(t, KeyCasey, tr.Follower(KeyAlex, randx.Constant(0.1)))
	assert.Equal(t, KeyParker, tr.Follower(KeyAlex, randx.Constant(0.9)))
	assert.Equal(t, "", tr.Follower(KeyCasey, randx.Constant(0.95)))
	assert.Equal(t, "", tr.Follower("nobody", randx.Constant(0.1)))
}

func TestDirectivesFor(t *testing.T) {
	t.Parallel()

	d := DefaultTables().Directives
	got, ok := d.For("Parker", "CASEY")
	require.True(t, ok)
	assert.Contains(t, got, "Ground Casey")

	_, ok = d.For(KeyAlex, KeyAlex)
	assert.False(t, ok)
}

func TestContainsWord(t *testing.T) {
	t.Parallel()

	assert.True(t, ContainsWord("ask everyone now", "everyone"))
	assert.True(t, ContainsWord("all", "all"))
	assert.False(t, ContainsWord("totally fine", "all"))
	assert.False(t, ContainsWord("", "all"))
}
