package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func execute(t *testing.T, name, args string) (string, bool) {
	t.Helper()

	r, err := builtinTools()
	if err != nil {
		t.Fatalf("builtinTools() failed: %v", err)
	}
	out, err := r.Execute(context.Background(), name, json.RawMessage(args))
	if err != nil {
		t.Fatalf("Execute(%s) failed: %v", name, err)
	}
	return out.Content, out.IsError
}

func TestBuiltinTools_Registry(t *testing.T) {
	r, err := builtinTools()
	if err != nil {
		t.Fatalf("builtinTools() failed: %v", err)
	}

	var names []string
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	if got := strings.Join(names, ","); got != "add,datetime,list_directory,read_file,run_bash_script" {
		t.Errorf("tools = %s", got)
	}
	if !r.RequiresConfirmation("run_bash_script") {
		t.Error("run_bash_script should require confirmation")
	}
	if r.RequiresConfirmation("add") {
		t.Error("add should not require confirmation")
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		args string
		want string
	}{
		{args: `{"a": 2, "b": 3}`, want: "5"},
		{args: `{"a": 1.5, "b": 2.25}`, want: "3.75"},
		{args: `{"a": -4, "b": 4}`, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			got, isErr := execute(t, "add", tt.args)
			if isErr || got != tt.want {
				t.Errorf("add(%s) = %q (error %v), want %q", tt.args, got, isErr, tt.want)
			}
		})
	}
}

func TestAdd_InvalidArguments(t *testing.T) {
	got, isErr := execute(t, "add", `{"a": "two", "b": 3}`)
	if !isErr || !strings.Contains(got, "invalid arguments for add") {
		t.Errorf("add() = %q (error %v), want schema failure", got, isErr)
	}
}

func TestRunBashScript(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}

	tests := []struct {
		name    string
		script  string
		want    scriptResult
		wantErr bool
	}{
		{
			name:   "stdout",
			script: "echo hello",
			want:   scriptResult{Stdout: "hello"},
		},
		{
			name:   "stderr",
			script: "echo oops >&2",
			want:   scriptResult{Stderr: "oops"},
		},
		{
			name:    "exit status",
			script:  "echo partial; exit 3",
			want:    scriptResult{Stdout: "partial", ExitCode: 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, _ := json.Marshal(map[string]string{"script": tt.script})
			got, isErr := execute(t, "run_bash_script", string(args))

			var result scriptResult
			if err := json.Unmarshal([]byte(got), &result); err != nil {
				t.Fatalf("output %q is not JSON: %v", got, err)
			}
			if result != tt.want || isErr != tt.wantErr {
				t.Errorf("run_bash_script() = %+v (error %v), want %+v (error %v)", result, isErr, tt.want, tt.wantErr)
			}
		})
	}
}

func TestDatetime(t *testing.T) {
	got, isErr := execute(t, "datetime", "")
	if isErr {
		t.Fatalf("datetime() failed: %s", got)
	}
	if _, err := time.Parse(time.RFC3339, got); err != nil {
		t.Errorf("datetime() = %q, not RFC3339: %v", got, err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("remember the milk"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	args, _ := json.Marshal(map[string]string{"path": path})

	got, isErr := execute(t, "read_file", string(args))
	if isErr || got != "remember the milk" {
		t.Errorf("read_file() = %q (error %v)", got, isErr)
	}

	missing, _ := json.Marshal(map[string]string{"path": filepath.Join(t.TempDir(), "missing.txt")})
	if _, isErr := execute(t, "read_file", string(missing)); !isErr {
		t.Error("read_file() of a missing file should report an error")
	}
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0644)
	os.Mkdir(filepath.Join(dir, "sub"), 0755)
	args, _ := json.Marshal(map[string]string{"path": dir})

	got, isErr := execute(t, "list_directory", string(args))
	if isErr || got != "a.txt\nsub/\n" {
		t.Errorf("list_directory() = %q (error %v)", got, isErr)
	}
}
