package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the roster",
	RunE: func(cmd *cobra.Command, _ []string) error {
		roster, _, err := loadRoster()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range roster.All() {
			fmt.Fprintf(out, "%s  %s\n", personaStyle(p.Archetype).Render(p.ID), mutedStyle.Render("("+p.Key+") "+p.Descriptor))
		}
		return nil
	},
}
