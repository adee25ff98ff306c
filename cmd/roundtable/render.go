package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashureev/roundtable/internal/domain"
	"github.com/ashureev/roundtable/internal/orchestrator"
	"github.com/ashureev/roundtable/internal/persona"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	bodyStyle   = lipgloss.NewStyle().PaddingLeft(2).Width(80)

	archetypeColors = map[domain.Archetype]lipgloss.Color{
		domain.ArchetypeAnalytical: lipgloss.Color("12"),
		domain.ArchetypeCreative:   lipgloss.Color("13"),
		domain.ArchetypePractical:  lipgloss.Color("10"),
	}
)

func personaStyle(a domain.Archetype) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	if c, ok := archetypeColors[a]; ok {
		s = s.Foreground(c)
	}
	return s
}

func renderTurn(out io.Writer, roster *persona.Roster, res orchestrator.Result) {
	if res.TopicChanged {
		fmt.Fprintln(out, markerStyle.Render(domain.TopicChangeMarker))
	}
	for _, r := range res.Conversation {
		name := systemStyle.Render(r.Persona)
		if p, ok := roster.Get(r.Persona); ok {
			name = personaStyle(p.Archetype).Render(p.ID)
		}
		fmt.Fprintln(out, name)
		fmt.Fprintln(out, bodyStyle.Render(r.Text))
	}
}
