package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/tailored-agentic-units/react/kernel"
)

var (
	userColor     = color.New(color.FgYellow)
	responseColor = color.New(color.FgGreen)
	toolColor     = color.New(color.FgBlue)
	systemColor   = color.New(color.FgRed)
	confirmColor  = color.New(color.FgYellow, color.Bold)
)

// cli is the interactive front end: it reads prompts, runs them as turns
// and renders the turn events.
type cli struct {
	kernel  *kernel.Kernel
	session string
	in      *bufio.Reader
	out     io.Writer
	piped   string // stdin content sent along with the first prompt
	logger  *slog.Logger
}

func (c *cli) loop(ctx context.Context) error {
	first := true
	for {
		userColor.Fprint(c.out, "> ")
		input, err := readInput(c.in)
		if errors.Is(err, io.EOF) {
			systemColor.Fprintln(c.out, "\n[System] EOF received, exiting.")
			return nil
		}
		if err != nil {
			return err
		}

		piped := ""
		if first {
			piped = c.piped
			first = false
		}

		if err := c.runTurn(ctx, formatPrompt(input, piped)); err != nil {
			if ctx.Err() != nil {
				systemColor.Fprintln(c.out, "\n[System] Program interrupted by user, exiting.")
				return nil
			}
			systemColor.Fprintf(c.out, "\n[System] %v\n", err)
		}
	}
}

// runTurn runs one prompt and renders its events until the turn ends.
func (c *cli) runTurn(ctx context.Context, prompt string) error {
	h, err := c.kernel.Run(ctx, c.session, prompt)
	if err != nil {
		return err
	}

	fmt.Fprint(c.out, "[LLM] ")
	for ev := range h.Events() {
		switch e := ev.(type) {
		case kernel.InputPrepared:
			c.logger.Debug("model input prepared", "messages", len(e.Messages))
		case kernel.StreamDelta:
			responseColor.Fprint(c.out, e.Text)
		case kernel.ToolResult:
			fmt.Fprintln(c.out)
			toolColor.Fprintln(c.out, e.Output)
		case kernel.ConfirmationRequested:
			c.confirm(h, e)
		case kernel.Stop:
			fmt.Fprintln(c.out)
		}
	}

	_, err = h.Wait(ctx)
	return err
}

// confirm asks the user about a pending tool call and forwards the answer.
// Losing the input abandons the turn.
func (c *cli) confirm(h *kernel.Handle, req kernel.ConfirmationRequested) {
	fmt.Fprintln(c.out)
	confirmColor.Fprint(c.out, req.Description, " ")

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		c.logger.Warn("confirmation input closed", "tool", req.Tool, "error", err)
		h.Cancel()
		return
	}
	if err := h.Respond(strings.TrimSpace(line)); err != nil {
		c.logger.Warn("confirmation not delivered", "tool", req.Tool, "error", err)
	}
}

// readInput reads lines until an empty line and returns them joined.
// Leading empty lines are skipped. io.EOF is returned only when nothing was
// read.
func readInput(r *bufio.Reader) (string, error) {
	var lines []string
	for {
		line, err := r.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")

		if trimmed == "" && err == nil {
			if len(lines) == 0 {
				continue
			}
			return strings.Join(lines, "\n"), nil
		}
		if trimmed != "" || len(lines) > 0 {
			lines = append(lines, trimmed)
		}

		if err != nil {
			if len(lines) > 0 && errors.Is(err, io.EOF) {
				return strings.TrimRight(strings.Join(lines, "\n"), "\n"), nil
			}
			return "", err
		}
	}
}

// formatPrompt wraps user input, prefixing piped stdin content when present.
func formatPrompt(input, piped string) string {
	var b strings.Builder
	if piped != "" {
		fmt.Fprintf(&b, "\nstdin:\n%s\n", piped)
	}
	fmt.Fprintf(&b, "\ncurrent user input:%s\n", input)
	return b.String()
}
