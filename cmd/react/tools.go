package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tailored-agentic-units/react/core/protocol"
	"github.com/tailored-agentic-units/react/tools"
)

// confirmedTools always need an affirmative reply before they run.
var confirmedTools = []string{"run_bash_script"}

type builtin struct {
	tool    protocol.Tool
	handler tools.Handler
}

var builtins = []builtin{
	{
		tool: protocol.Tool{
			Name:        "add",
			Description: "Adds two numbers and returns the sum.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"a": map[string]any{"type": "number", "description": "First addend."},
					"b": map[string]any{"type": "number", "description": "Second addend."},
				},
				"required": []any{"a", "b"},
			},
		},
		handler: handleAdd,
	},
	{
		tool: protocol.Tool{
			Name:        "run_bash_script",
			Description: "Runs a bash script and returns its stdout and stderr.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"script": map[string]any{"type": "string", "description": "The script passed to bash -c."},
				},
				"required": []any{"script"},
			},
		},
		handler: handleRunBashScript,
	},
	{
		tool: protocol.Tool{
			Name:        "datetime",
			Description: "Returns the current date and time in RFC3339 format.",
		},
		handler: handleDatetime,
	},
	{
		tool: protocol.Tool{
			Name:        "read_file",
			Description: "Reads the contents of a file at the given path.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Absolute or relative path to the file to read.",
					},
				},
				"required": []any{"path"},
			},
		},
		handler: handleReadFile,
	},
	{
		tool: protocol.Tool{
			Name:        "list_directory",
			Description: "Lists files and directories at the given path.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Absolute or relative path to the directory to list.",
					},
				},
			},
		},
		handler: handleListDirectory,
	},
}

// builtinTools returns a registry holding every builtin tool.
func builtinTools() (*tools.Registry, error) {
	r := tools.NewRegistry()
	for _, b := range builtins {
		if err := r.Register(b.tool, b.handler); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", b.tool.Name, err)
		}
	}
	r.RequireConfirmation(confirmedTools...)
	return r, nil
}

func handleAdd(_ context.Context, raw json.RawMessage) (tools.Output, error) {
	var args struct {
		A float64 `json:"a"`
		B float64 `json:"b"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Output{}, fmt.Errorf("invalid arguments: %w", err)
	}
	return tools.Output{Content: strconv.FormatFloat(args.A+args.B, 'f', -1, 64)}, nil
}

type scriptResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

func handleRunBashScript(ctx context.Context, raw json.RawMessage) (tools.Output, error) {
	var args struct {
		Script string `json:"script"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Output{}, fmt.Errorf("invalid arguments: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "bash", "-c", args.Script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	result := scriptResult{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return tools.Output{}, err
		}
		result.ExitCode = exitErr.ExitCode()
	}
	result.Stdout = strings.TrimSpace(stdout.String())
	result.Stderr = strings.TrimSpace(stderr.String())

	data, err := json.Marshal(result)
	if err != nil {
		return tools.Output{}, err
	}
	return tools.Output{Content: string(data), IsError: result.ExitCode != 0}, nil
}

func handleDatetime(_ context.Context, _ json.RawMessage) (tools.Output, error) {
	return tools.Output{Content: time.Now().Format(time.RFC3339)}, nil
}

func handleReadFile(_ context.Context, raw json.RawMessage) (tools.Output, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Output{}, fmt.Errorf("invalid arguments: %w", err)
	}

	data, err := os.ReadFile(args.Path)
	if err != nil {
		return tools.Output{}, err
	}
	return tools.Output{Content: string(data)}, nil
}

func handleListDirectory(_ context.Context, raw json.RawMessage) (tools.Output, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Output{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Path == "" {
		args.Path = "."
	}

	entries, err := os.ReadDir(args.Path)
	if err != nil {
		return tools.Output{}, err
	}

	var b strings.Builder
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return tools.Output{Content: b.String()}, nil
}
