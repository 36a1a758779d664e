package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moldu/assistant/internal/display"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or reset the conversation session",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show thread, scope, sticky mail context, and pending state",
	RunE: func(cmd *cobra.Command, args []string) error {
		blob := sess.Export()

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(blob)
		}

		display.Header("session")
		fmt.Printf("  thread:  %s\n", blob.ThreadID)
		fmt.Printf("  scope:   %s\n", orDash(string(blob.Scope)))
		fmt.Printf("  history: %d entries\n", len(blob.History))
		if blob.PendingPromiseProject != "" {
			fmt.Printf("  pending promise project: %s\n", blob.PendingPromiseProject)
		}
		if blob.Sticky != nil {
			display.SubHeader("sticky mail context")
			fmt.Printf("    message: %s\n", blob.Sticky.EmailMessageID)
			fmt.Printf("    turns remaining: %d\n", blob.Sticky.TurnsRemaining)
		} else {
			display.SubHeader("sticky mail context: absent")
		}
		return nil
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a fresh thread and clear all sticky state",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess.ResetThread()
		if err := db.SaveSession(userID, sess.Export()); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
		display.SuccessMsg("session reset, new thread %s", sess.ThreadID)
		return nil
	},
}

var sessionLogLimit int

var sessionLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent turns from the diagnostic log, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		turns, err := db.RecentTurns(userID, sessionLogLimit)
		if err != nil {
			return fmt.Errorf("read turn log: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(turns)
		}

		display.Header(fmt.Sprintf("%d turns", len(turns)))
		for _, r := range turns {
			fmt.Printf("  %s %s\n", display.KindBadge(r.TurnKind), display.Truncate(r.Message, 60))
			if r.Answer != "" {
				fmt.Println("    " + display.Dim.Render(display.Truncate(r.Answer, 80)))
			}
		}
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	sessionLogCmd.Flags().IntVar(&sessionLogLimit, "limit", 20, "Maximum number of turns to show")
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionResetCmd)
	sessionCmd.AddCommand(sessionLogCmd)
	rootCmd.AddCommand(sessionCmd)
}
