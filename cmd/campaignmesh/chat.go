package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/runner"
	"github.com/hupe1980/campaignmesh/session"
)

var chatVerbose bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the manager agent in the terminal",
	Long: `Chat starts an interactive conversation with the manager agent.

Commands:
  /reset        save this conversation and start a new one
  /load <id>    continue a stored conversation
  /sessions     list stored conversations
  /exit         quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "show agent handoffs and tool calls")
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()

	var observers []engine.Observer
	if chatVerbose {
		observers = progressObservers(out)
	}

	a, err := newApp(ctx, cfg, observers...)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "%s session %s. Type /exit to quit.\n", color.GreenString("campaignmesh"), a.runner.SessionID())

	return repl(ctx, cmd.InOrStdin(), out, a.runner)
}

func repl(ctx context.Context, in io.Reader, out io.Writer, r *runner.Runner) error {
	prompt := color.New(color.FgCyan, color.Bold).Sprint("you> ")
	aiLabel := color.New(color.FgGreen, color.Bold).Sprint("ai> ")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, prompt)

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := command(ctx, out, r, line)
			if err != nil {
				fmt.Fprintf(out, "%s %v\n", color.RedString("error:"), err)
			}
			if quit {
				return nil
			}
			continue
		}

		resp, err := r.Chat(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "%s %v\n", color.RedString("error:"), err)
			continue
		}

		fmt.Fprintf(out, "%s%s\n", aiLabel, resp)
	}
}

func command(ctx context.Context, out io.Writer, r *runner.Runner, line string) (bool, error) {
	fields := strings.Fields(line)

	switch fields[0] {
	case "/exit", "/quit":
		return true, nil
	case "/reset":
		msg, err := r.Reset(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "%s (session %s)\n", msg, r.SessionID())
	case "/load":
		if len(fields) != 2 {
			return false, errors.New("usage: /load <id>")
		}
		history, err := r.Load(ctx, fields[1])
		if errors.Is(err, session.ErrNotFound) {
			return false, errors.New("context not found")
		}
		if err != nil {
			return false, err
		}
		faint := color.New(color.Faint)
		for _, line := range history {
			faint.Fprintln(out, line)
		}
	case "/sessions":
		titles := r.Contexts()
		for _, id := range titles.IDs() {
			title := "(untitled)"
			if t := titles[id]; t != nil {
				title = *t
			}
			fmt.Fprintf(out, "%s  %s\n", color.CyanString(id), title)
		}
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}

	return false, nil
}

func progressObservers(out io.Writer) []engine.Observer {
	faint := color.New(color.Faint)

	return []engine.Observer{
		engine.OnAgentChange(func(_ context.Context, agent string) {
			faint.Fprintf(out, "  -> %s\n", agent)
		}),
		engine.OnToolCall(func(_ context.Context, agent string, call core.FunctionCall) {
			faint.Fprintf(out, "  [%s] %s\n", agent, call.Name)
		}),
	}
}
