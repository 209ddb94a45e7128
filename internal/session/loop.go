package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

const separator = "=================================================="

// LoopConfig configures the interactive loop.
type LoopConfig struct {
	In  io.Reader
	Out io.Writer
	// Prompts are printed only when true; piped input runs silently apart
	// from verdicts.
	Prompts bool
}

// Run reads commands until quit, end of input or ctx is done. Failures of a
// single command are reported and the loop continues.
func (c *Controller) Run(ctx context.Context, config LoopConfig) error {
	scanner := bufio.NewScanner(config.In)
	out := config.Out

	read := func(prompt string) (string, bool) {
		if config.Prompts {
			fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if config.Prompts {
			fmt.Fprintln(out)
			fmt.Fprintln(out, separator)
		}
		line, ok := read("Enter Google Slides URL or presentation ID (or 'quit' to exit): ")
		if !ok {
			break
		}

		cmd := ParseCommand(line)
		switch cmd.Kind {
		case CommandQuit:
			fmt.Fprintln(out, "Goodbye.")
			return nil
		case CommandSkip:
			continue
		}

		v, err := c.Check(ctx, cmd.Locator)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return ctx.Err()
			}
			c.config.Logger.Debug("check failed", slog.Any("error", err))
			PrintFailure(out, err)
			continue
		}
		PrintVerdict(out, v)

		answer, ok := read("\nDo you want to extract full content? (y/n): ")
		if !ok {
			break
		}
		if !isYes(answer) {
			continue
		}

		extraction, err := c.Save(v)
		if err != nil {
			PrintFailure(out, err)
			continue
		}
		PrintExtraction(out, extraction)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
