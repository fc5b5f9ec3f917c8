package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/solvaholic/msgclass/internal/llm"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a local Ollama model",
	Long: `Chat opens an interactive session with a model served by a local Ollama
instance. Each prompt is sent on its own; the session history is kept in
memory for display and is lost on exit.

Commands inside the session:
  /history  show the conversation so far
  /clear    clear the conversation history
  /exit     leave (Ctrl+D also works)`,
	RunE: runChat,
}

var (
	chatModel       string
	chatTemperature float64
	chatMaxTokens   int
	chatHost        string
)

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatModel, "model", "", "Model name (default: chat.model)")
	chatCmd.Flags().Float64Var(&chatTemperature, "temperature", 0, "Sampling temperature, 0.0 to 2.0 (default: chat.temperature)")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "Maximum reply tokens, 100 to 2000 (default: chat.max_tokens)")
	chatCmd.Flags().StringVar(&chatHost, "host", "", "Ollama base URL (default: chat.host)")
}

func runChat(cmd *cobra.Command, args []string) error {
	s := llm.Settings{
		Model:       settings.Chat.Model,
		Temperature: settings.Chat.Temperature,
		MaxTokens:   settings.Chat.MaxTokens,
	}
	host := settings.Chat.Host

	flags := cmd.Flags()
	if flags.Changed("model") {
		s.Model = chatModel
	}
	if flags.Changed("temperature") {
		s.Temperature = chatTemperature
	}
	if flags.Changed("max-tokens") {
		s.MaxTokens = chatMaxTokens
	}
	if flags.Changed("host") {
		host = chatHost
	}
	if err := s.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	client := &llm.Client{BaseURL: host}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	models, err := client.ListModels(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(out, "Ollama service error: %v\n\n", err)
		fmt.Fprintln(out, "Troubleshooting:")
		fmt.Fprintln(out, "  1. Make sure Ollama is installed and running")
		fmt.Fprintln(out, "  2. Check with: ollama list")
		fmt.Fprintf(out, "  3. Verify the host (%s)\n", host)
		fmt.Fprintln(out, "  4. Start msgclass chat again")
		return fmt.Errorf("cannot reach Ollama at %s", host)
	}
	logger.Debug("connected to ollama", "host", host, "models", len(models))

	session := llm.NewSession(client, s)
	return chatLoop(cmd.Context(), cmd.InOrStdin(), out, session)
}

func chatLoop(ctx context.Context, in io.Reader, out io.Writer, session *llm.Session) error {
	separator(out)
	fmt.Fprintf(out, "  Ollama Chat (%s)\n", session.Settings.Model)
	separator(out)
	fmt.Fprintln(out, "Type your message (/clear, /history, /exit; Ctrl+D to quit):")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		prompt := strings.TrimSpace(scanner.Text())

		switch prompt {
		case "":
			continue
		case "/exit", "/quit":
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case "/clear":
			session.Clear()
			fmt.Fprintln(out, "Chat history cleared.")
			continue
		case "/history":
			printHistory(out, session.History())
			continue
		}

		reply, err := session.Send(ctx, prompt)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			if llm.MentionsModel(err) {
				fmt.Fprintf(out, "Pull the model with: ollama pull %s\n", session.Settings.Model)
			}
			continue
		}
		fmt.Fprintf(out, "\n%s\n[%s]\n\n", reply, time.Now().Format("15:04:05"))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Fprintln(out, "\nGoodbye!")
	return nil
}

func printHistory(w io.Writer, turns []llm.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	for _, t := range turns {
		fmt.Fprintf(w, "[%s] %s: %s\n", t.Timestamp.Format("15:04:05"), t.Role, t.Content)
	}
}
