package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moldu/assistant/internal/classify"
	"github.com/moldu/assistant/internal/display"
)

var (
	classifyRecentCtx bool
	classifyEmailID   string
)

type classifyOutput struct {
	Message  string `json:"message"`
	TurnKind string `json:"turn_kind"`
	Rule     string `json:"rule"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify MESSAGE",
	Short: "Classify a message's turn kind and show the rule that fired",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := args[0]
		result := classify.Classify(message, classify.Context{
			HasStickyContext: classifyRecentCtx,
			EmailMessageID:   classifyEmailID,
		})

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(classifyOutput{
				Message:  message,
				TurnKind: string(result.Kind),
				Rule:     result.Rule,
			})
		}

		fmt.Printf("%s %s\n", display.KindBadge(result.Kind), display.Dim.Render("rule="+result.Rule))
		return nil
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyRecentCtx, "recent-context", false, "Assume an active sticky mail context")
	classifyCmd.Flags().StringVar(&classifyEmailID, "email-id", "", "Assume an explicit mail item id on the turn")
	rootCmd.AddCommand(classifyCmd)
}
