package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pavelanni/quizrunner/internal/command"
	appI18n "github.com/pavelanni/quizrunner/internal/i18n"
	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
	"github.com/pavelanni/quizrunner/internal/tui"
)

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take <test>",
		Short: "Answer a test interactively in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runTake,
	}
	terminalFlags(cmd)
	return cmd
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <test>",
		Short: "Score a comma-separated list of answers and record the result",
		Example: `  quizrunner score geography.json --answers A,X,C
  quizrunner score geography.json --answers B,,none`,
		Args: cobra.ExactArgs(1),
		RunE: runScore,
	}
	cmd.Flags().String("answers", "", "Selected option per question, in order (empty or none to skip)")
	_ = cmd.MarkFlagRequired("answers")
	terminalFlags(cmd)
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the saved results",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	terminalFlags(cmd)
	return cmd
}

func clearHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear-history",
		Short: "Erase every saved result",
		Args:  cobra.NoArgs,
		RunE:  runClearHistory,
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	terminalFlags(cmd)
	return cmd
}

func terminalFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("no-color", false, "Disable colored output")
	addStoreFlags(f)
	addSourceFlags(f)
	addCommonFlags(f)
}

// openDispatcher prepares logging and a dispatcher for a terminal command.
// The returned func releases the store.
func openDispatcher(cmd *cobra.Command, withSource bool) (*command.Dispatcher, bool, func(), error) {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	svc, _, closeFn, err := openService(cmd.Context(), v, withSource)
	if err != nil {
		return nil, false, nil, err
	}
	noColor := v.GetBool("no-color") || !tui.IsTerminal(cmd.OutOrStdout())
	return command.New(quiz.NewSession(svc)), noColor, closeFn, nil
}

func runTake(cmd *cobra.Command, args []string) error {
	d, noColor, closeFn, err := openDispatcher(cmd, true)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	sub, _, err := tui.Take(ctx, d, args[0], cmd.InOrStdin(), cmd.OutOrStdout(), noColor)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.OutOrStdout(), appI18n.T(ctx, "TestAborted"))
		return nil
	}
	if err != nil {
		return loadError(cmd, args[0], err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderResults(ctx, sub, noColor))
	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	d, noColor, closeFn, err := openDispatcher(cmd, true)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	if _, err := d.Dispatch(ctx, command.LoadTest{SourceID: args[0]}); err != nil {
		return loadError(cmd, args[0], err)
	}
	answers, _ := cmd.Flags().GetString("answers")
	res, err := d.Dispatch(ctx, command.Submit{Selections: parseAnswers(answers)})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderResults(ctx, *res.Submission, noColor))
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	d, noColor, closeFn, err := openDispatcher(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	res, err := d.Dispatch(ctx, command.ViewHistory{})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderHistory(ctx, res.History, noColor))
	return nil
}

func runClearHistory(cmd *cobra.Command, _ []string) error {
	d, _, closeFn, err := openDispatcher(cmd, false)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	confirmed, _ := cmd.Flags().GetBool("yes")
	if !confirmed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", appI18n.T(ctx, "ConfirmClear"))
		confirmed = readConfirmation(cmd.InOrStdin())
	}

	if _, err := d.Dispatch(ctx, command.ClearHistory{Confirmed: confirmed}); err != nil {
		if errors.Is(err, quiz.ErrConfirmationRequired) {
			fmt.Fprintln(cmd.OutOrStdout(), appI18n.T(ctx, "ConfirmationRequired"))
			return nil
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), appI18n.T(ctx, "HistoryCleared"))
	return nil
}

// parseAnswers maps "A,,C" to {0: "A", 1: "none", 2: "C"}.
func parseAnswers(s string) map[int]string {
	selections := make(map[int]string)
	if strings.TrimSpace(s) == "" {
		return selections
	}
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			part = model.NoSelection
		}
		selections[i] = part
	}
	return selections
}

func readConfirmation(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// loadError prints the localized load failure and returns err for the exit code.
func loadError(cmd *cobra.Command, sourceID string, err error) error {
	ctx := cmd.Context()
	data := map[string]any{"Test": sourceID}
	var fe *quiz.FetchError
	var se *quiz.SchemaError
	switch {
	case errors.As(err, &fe):
		fmt.Fprintln(cmd.ErrOrStderr(), appI18n.Td(ctx, "LoadErrorFetch", data))
	case errors.As(err, &se):
		fmt.Fprintln(cmd.ErrOrStderr(), appI18n.Td(ctx, "LoadErrorSchema", data))
	}
	return err
}
