package react

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/tailored-agentic-units/react/reasoning"
)

// ImplicitThought is the thought recorded when the model answers without
// following the grammar at all.
const ImplicitThought = "(Implicit) I can answer without any more tools!"

const (
	markerThought     = "Thought:"
	markerAction      = "Action:"
	markerActionInput = "Action Input:"
)

// Grammar markers only count at the start of a line, so prose inside an
// answer or a thought is never read as grammar.
var (
	actionMarker  = regexp.MustCompile(`(?m)^[ \t]*(Action:)`)
	answerMarker  = regexp.MustCompile(`(?m)^[ \t]*((?:Final )?Answer:)`)
	finalResponse = regexp.MustCompile(`(?s)Thought:(.*?)\n[ \t]*(?:Final )?Answer:(.*)$`)
	inputBoundary = regexp.MustCompile(`\n\s*(?:Observation|Thought|Action|Answer|Final Answer):`)
)

// Parser classifies raw model output as exactly one reasoning step.
type Parser interface {
	Parse(output string) (reasoning.Step, error)
}

// ReActParser parses the Thought/Action/Action Input and Thought/Answer
// grammar produced by ReActFormatter prompts. It is stateless.
//
// Only the first Action block of an output is honoured; any further blocks
// in the same output are ignored so that a cycle requests at most one tool.
type ReActParser struct{}

// NewParser creates a ReActParser.
func NewParser() *ReActParser {
	return &ReActParser{}
}

func (ReActParser) Parse(output string) (reasoning.Step, error) {
	text := cleanOutput(output)
	if text == "" {
		return nil, parseErr(NoAction, "empty output", nil)
	}

	if !strings.Contains(text, markerThought) {
		return reasoning.ResponseStep{Thought: ImplicitThought, Response: text}, nil
	}

	actionAt := markerIndex(actionMarker, text)
	answerAt := markerIndex(answerMarker, text)

	switch {
	case actionAt >= 0 && answerAt >= 0 && answerAt < actionAt:
		return nil, parseErr(Ambiguous, "answer precedes action", nil)
	case actionAt >= 0:
		return parseAction(text, actionAt)
	case answerAt >= 0:
		return parseResponse(text)
	default:
		return nil, parseErr(NoAction, "could not find Action or Answer in output", nil)
	}
}

// markerIndex returns the offset of the marker captured by re, or -1.
func markerIndex(re *regexp.Regexp, text string) int {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return -1
	}
	return loc[2]
}

func parseAction(text string, actionAt int) (reasoning.Step, error) {
	var thought string
	if at := strings.Index(text, markerThought); at >= 0 && at < actionAt {
		thought = strings.TrimSpace(text[at+len(markerThought) : actionAt])
	}

	rest := text[actionAt+len(markerAction):]
	line, _, _ := strings.Cut(rest, "\n")
	name := strings.TrimSpace(line)
	if i := strings.IndexAny(name, " ()`"); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return nil, parseErr(NoAction, "empty action name", nil)
	}

	inputAt := strings.Index(rest, markerActionInput)
	if inputAt < 0 {
		return nil, parseErr(MalformedArguments, "missing Action Input for "+name, nil)
	}
	raw := rest[inputAt+len(markerActionInput):]
	if loc := inputBoundary.FindStringIndex(raw); loc != nil {
		raw = raw[:loc[0]]
	}

	input, err := decodeInput(raw)
	if err != nil {
		return nil, parseErr(MalformedArguments, "invalid Action Input for "+name, err)
	}

	return reasoning.ActionStep{Thought: thought, Action: name, Input: input}, nil
}

func parseResponse(text string) (reasoning.Step, error) {
	m := finalResponse.FindStringSubmatch(text)
	if m == nil {
		return nil, parseErr(NoAction, "could not extract final answer", nil)
	}
	return reasoning.ResponseStep{
		Thought:  strings.TrimSpace(m[1]),
		Response: strings.TrimSpace(m[2]),
	}, nil
}

// decodeInput extracts the first JSON object from raw, repairing it when
// the model produced almost-JSON, and returns it compacted.
func decodeInput(raw string) (json.RawMessage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty input")
	}

	candidate, err := extractFirstJSONObject(raw)
	if err != nil {
		candidate = raw
	}

	if obj, ok := compactObject(candidate); ok {
		return obj, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return nil, repairErr
	}
	if obj, ok := compactObject(repaired); ok {
		return obj, nil
	}
	return nil, errors.New("input is not a JSON object")
}

func compactObject(s string) (json.RawMessage, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, false
	}
	return json.RawMessage(buf.Bytes()), true
}

func cleanOutput(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}

	raw = strings.TrimSpace(strings.TrimPrefix(raw, "```"))
	if i := strings.IndexByte(raw, '\n'); i != -1 {
		first := strings.ToLower(strings.TrimSpace(raw[:i]))
		if first == "text" || first == "markdown" {
			raw = raw[i+1:]
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "```"))
}

func extractFirstJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", errors.New("no '{' found")
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", errors.New("unterminated JSON object")
}
