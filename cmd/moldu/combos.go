package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moldu/assistant/internal/combo"
	"github.com/moldu/assistant/internal/display"
	"github.com/moldu/assistant/internal/grammar"
	"github.com/moldu/assistant/internal/types"
)

var combosChips string

type comboOutput struct {
	Chips         []types.ChipID `json:"chips"`
	Verbs         []types.VerbID `json:"verbs"`
	LegacyMessage string         `json:"legacy_message"`
}

type combosOutput struct {
	Combos       []comboOutput  `json:"combos"`
	AllowedChips []types.ChipID `json:"allowed_next_chips,omitempty"`
}

var combosCmd = &cobra.Command{
	Use:   "combos",
	Short: "List registered chip/verb combos and allowed next chips",
	Long: `List the structured command registry. With --chips, restrict the list to
combos containing those chips and show which chips may still be added.

Examples:
  moldu combos
  moldu combos --chips current_mail
  moldu combos --chips current_mail,todo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var selected []types.ChipID
		if combosChips != "" {
			for _, raw := range strings.Split(combosChips, ",") {
				id, ok := grammar.ResolveChipID(raw)
				if !ok {
					return fmt.Errorf("unknown chip %q", raw)
				}
				selected = append(selected, id)
			}
		}

		allowed := combo.AllowedNextChips(selected)
		var listed []comboOutput
		for _, e := range combo.Entries() {
			if !containsAll(e.Chips, selected) {
				continue
			}
			listed = append(listed, comboOutput{e.Chips, e.Verbs, e.LegacyMessage})
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(combosOutput{Combos: listed, AllowedChips: allowed})
		}

		display.Header(fmt.Sprintf("%d combos", len(listed)))
		for _, c := range listed {
			var tokens []string
			for _, id := range c.Chips {
				tokens = append(tokens, grammar.ChipToken(id))
			}
			for _, id := range c.Verbs {
				tokens = append(tokens, grammar.VerbToken(id))
			}
			fmt.Printf("  %s\n    %s\n",
				display.Bold.Render(strings.Join(tokens, " ")),
				display.Dim.Render(c.LegacyMessage))
		}
		if len(selected) > 0 {
			var tokens []string
			for _, id := range allowed {
				tokens = append(tokens, grammar.ChipToken(id))
			}
			display.SubHeader("allowed next chips: " + strings.Join(tokens, " "))
		}
		return nil
	},
}

func containsAll(haystack, want []types.ChipID) bool {
	for _, w := range want {
		found := false
		for _, h := range haystack {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func init() {
	combosCmd.Flags().StringVar(&combosChips, "chips", "", "Comma-separated chip selection to filter by")
	rootCmd.AddCommand(combosCmd)
}
