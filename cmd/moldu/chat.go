package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moldu/assistant/internal/backend"
	"github.com/moldu/assistant/internal/dispatch"
	"github.com/moldu/assistant/internal/display"
	"github.com/moldu/assistant/internal/intent"
	"github.com/moldu/assistant/internal/mailhost"
	"github.com/moldu/assistant/internal/store"
)

var (
	chatTone        string
	chatSkipTone    bool
	chatEmailID     string
	chatCurrentMail bool
	chatMailFile    string
	chatShowRuntime bool
)

type chatOutput struct {
	Kind           string `json:"kind"`
	TurnKind       string `json:"turn_kind"`
	UIAction       string `json:"ui_action,omitempty"`
	Answer         string `json:"answer,omitempty"`
	Status         string `json:"status,omitempty"`
	ConfirmationID string `json:"confirmation_id,omitempty"`
	Retried        bool   `json:"retried,omitempty"`
	Error          string `json:"error,omitempty"`
}

var chatCmd = &cobra.Command{
	Use:   "chat [MESSAGE]",
	Short: "Send one chat turn (or start an interactive loop)",
	Long: `Send a message through the routing engine: structured prefix parsing,
turn classification, sticky mail context, pre-flight intent resolution, and
the backend dispatch pipeline.

Examples:
  moldu chat "@현재메일 /요약"
  moldu chat "@전체사서함 /검색 프로젝트 킥오프"
  moldu chat "@자연어 내일 회의실 잡아줘"
  moldu chat            # interactive loop`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline := buildPipeline()
		if len(args) == 1 {
			return runTurn(cmd.Context(), pipeline, args[0])
		}
		return runInteractive(cmd.Context(), pipeline)
	},
}

func buildPipeline() *dispatch.Pipeline {
	mailFile := chatMailFile
	if mailFile == "" {
		mailFile = defaultMailFile()
	}
	host := mailhost.NewFileHost(mailFile)
	host.OnItemChanged(sess.OnItemChanged)

	orch := intent.New(client, logger.Named("intent"))
	return dispatch.New(sess, client, orch, host, logger.Named("dispatch"))
}

func runInteractive(ctx context.Context, pipeline *dispatch.Pipeline) error {
	fmt.Println(display.Muted.Render("interactive mode (empty line or Ctrl-D to quit)"))
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(display.Bold.Render("> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		if err := runTurn(ctx, pipeline, line); err != nil {
			display.ErrorMsg("%v", err)
		}
	}
	return scanner.Err()
}

func runTurn(ctx context.Context, pipeline *dispatch.Pipeline, message string) error {
	var board *display.ProgressBoard
	opts := dispatch.SendOptions{
		EmailMessageID:         chatEmailID,
		CurrentMailOnly:        chatCurrentMail,
		ReplyTone:              chatTone,
		SkipReplyToneIntercept: chatSkipTone,
	}
	if !jsonOutput {
		display.UserLine(message)
		board = display.NewProgressBoard()
		opts.OnProgress = func(e backend.ProgressEvent) {
			board.Update(e.Key, e.Label, e.Status)
		}
	}

	if chatShowRuntime {
		ro := pipeline.PreviewRuntimeOptions(ctx, message, opts)
		data, _ := json.MarshalIndent(ro, "", "  ")
		display.SubHeader("runtime options preview")
		fmt.Println(string(data))
	}

	result := pipeline.Send(ctx, message, opts)

	if db != nil && result.Kind == dispatch.ResultAnswer {
		rec := &store.TurnRecord{
			UserID:   userID,
			ThreadID: sess.ThreadID,
			TurnKind: result.TurnKind,
			Message:  message,
			Answer:   result.Response.Answer,
		}
		if result.RuntimeOptions != nil {
			rec.Scope = result.RuntimeOptions.Scope
		}
		if err := db.LogTurn(rec); err != nil {
			logger.Warn("could not log turn", zap.Error(err))
		}
	}

	if jsonOutput {
		return printChatJSON(result)
	}
	renderResult(result)

	if result.Kind == dispatch.ResultAnswer && result.Response.Status == backend.StatusConfirmRequired {
		return confirmLoop(ctx, result)
	}
	return nil
}

func renderResult(result *dispatch.Result) {
	fmt.Println(display.KindBadge(result.TurnKind))
	switch result.Kind {
	case dispatch.ResultUIIntercept:
		display.SuccessMsg("UI interception: %s", result.UIAction)
		if result.Intent != nil {
			fmt.Println(display.Dim.Render("  intent: " + result.Intent.Intent))
		}
	case dispatch.ResultAnswer:
		display.AssistantLine(result.Response.Answer)
		if result.Retried {
			fmt.Println(display.Dim.Render("  (retried with a fresh mail item)"))
		}
	case dispatch.ResultError:
		display.ErrorMsg("%s", result.UserMessage)
		logger.Debug("turn failed")
	}
}

func confirmLoop(ctx context.Context, result *dispatch.Result) error {
	resp := result.Response
	display.SubHeader("pending tool calls:")
	for _, tc := range resp.ToolCalls {
		fmt.Printf("  - %s\n", tc.Name)
	}
	fmt.Print("approve? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	approved := strings.EqualFold(strings.TrimSpace(line), "y")

	out, err := client.Confirm(ctx, &backend.ConfirmRequest{
		ConfirmationID: resp.ConfirmationID,
		Approved:       approved,
	}, backend.ChatTimeoutTask)
	if err != nil {
		return fmt.Errorf("confirm tool calls: %w", err)
	}
	display.AssistantLine(out.Answer)
	return nil
}

func printChatJSON(result *dispatch.Result) error {
	out := chatOutput{
		Kind:     string(result.Kind),
		TurnKind: string(result.TurnKind),
		UIAction: result.UIAction,
		Retried:  result.Retried,
	}
	if result.Response != nil {
		out.Answer = result.Response.Answer
		out.Status = result.Response.Status
		out.ConfirmationID = result.Response.ConfirmationID
	}
	if result.Err != nil {
		out.Error = result.UserMessage
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	chatCmd.Flags().StringVar(&chatTone, "tone", "", "Reply tone for compose quick actions")
	chatCmd.Flags().BoolVar(&chatSkipTone, "skip-tone-picker", false, "Do not intercept with the reply tone picker")
	chatCmd.Flags().StringVar(&chatEmailID, "email-id", "", "Explicit mail item id for this turn")
	chatCmd.Flags().BoolVar(&chatCurrentMail, "current-mail", false, "Bind this turn to the currently selected mail")
	chatCmd.Flags().StringVar(&chatMailFile, "mail-file", "", "Path of the selected-mail JSON file (file-backed mail host)")
	chatCmd.Flags().BoolVar(&chatShowRuntime, "show-runtime", false, "Print the assembled runtime options before sending")
	rootCmd.AddCommand(chatCmd)
}
