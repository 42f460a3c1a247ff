package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"babymeasure/internal/domain"
)

var chartOut string

func init() {
	askCmd.Flags().StringVar(&chartOut, "chart", "", "write chart images to this file")
}

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Send messages to the bot from the command line",
	Long: `Send one message given as arguments, or read one message per line
from stdin until EOF.

Examples:
  # Log a bottle
  babymeasure ask log formula 120ml at 7:30

  # Interactive session
  babymeasure ask`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		a, err := newApplication(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		return ask(cmd.Context(), a.chat, args, cmd.InOrStdin(), cmd.OutOrStdout(), chartOut)
	},
}

type answerer interface {
	Reply(ctx context.Context, text string) domain.Response
}

// ask answers the message in args, or every line of in when args is empty.
func ask(ctx context.Context, chat answerer, args []string, in io.Reader, out io.Writer, chartPath string) error {
	if len(args) > 0 {
		return answer(ctx, chat, strings.Join(args, " "), out, chartPath)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := answer(ctx, chat, line, out, chartPath); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func answer(ctx context.Context, chat answerer, text string, out io.Writer, chartPath string) error {
	resp := chat.Reply(ctx, text)
	if _, err := fmt.Fprintln(out, resp.Text); err != nil {
		return err
	}
	if len(resp.Image) == 0 {
		return nil
	}
	if chartPath == "" {
		_, err := fmt.Fprintf(out, "(chart: %d bytes, use --chart to save it)\n", len(resp.Image))
		return err
	}
	if err := os.WriteFile(chartPath, resp.Image, 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	_, err := fmt.Fprintf(out, "(chart written to %s)\n", chartPath)
	return err
}
