package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moldu/assistant/internal/backend"
	"github.com/moldu/assistant/internal/combo"
	"github.com/moldu/assistant/internal/display"
	"github.com/moldu/assistant/internal/grammar"
)

var resolveProbe bool

var resolveCmd = &cobra.Command{
	Use:   "resolve MESSAGE",
	Short: "Resolve a message's intent (local combo or backend router)",
	Long: `Show what the routing engine makes of a message before any dispatch:
the parsed structured combo if one resolves, otherwise the backend router's
intent payload. --probe uses the long diagnostic timeout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, probed := grammar.StripProbePrefix(args[0])

		if res := combo.Resolve(message); res != nil && !resolveProbe && !probed {
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			display.Header("structured combo")
			fmt.Printf("  scope=%s domain=%s key=%s\n", res.Scope, res.Domain, res.ComboKey)
			fmt.Println("  " + display.Dim.Render(res.LegacyMessage))
			return nil
		}

		timeout := backend.ResolveTimeout
		req := &backend.ResolveRequest{
			Message: message,
			Context: backend.ResolveContext{Surface: "cli", Scope: sess.Scope},
		}
		if resolveProbe || probed {
			timeout = backend.ProbeResolveTimeout
			req.Context.IntentProbe = true
			req.Context.ForceIntentLLM = true
		}

		payload, err := client.ResolveIntent(cmd.Context(), req, timeout)
		if err != nil {
			return fmt.Errorf("resolve intent: %w", err)
		}
		if payload == nil {
			display.SubHeader("router returned no intent")
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveProbe, "probe", false, "Force the backend router with the diagnostic timeout")
	rootCmd.AddCommand(resolveCmd)
}
