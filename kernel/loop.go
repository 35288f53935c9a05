package kernel

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tailored-agentic-units/react/core/protocol"
	"github.com/tailored-agentic-units/react/observability"
	"github.com/tailored-agentic-units/react/reasoning"
	"github.com/tailored-agentic-units/react/session"
	"github.com/tailored-agentic-units/react/stream"
)

type phase int

const (
	phaseNewTurn phase = iota
	phaseBuildPrompt
	phaseAwaitModel
	phaseToolCall
	phaseAwaitConfirmation
	phaseFinished
)

func (p phase) String() string {
	switch p {
	case phaseNewTurn:
		return "new_turn"
	case phaseBuildPrompt:
		return "build_prompt"
	case phaseAwaitModel:
		return "await_model"
	case phaseToolCall:
		return "tool_call"
	case phaseAwaitConfirmation:
		return "await_confirmation"
	case phaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// transition performs the work of one phase and names the next.
type transition func(*turn, context.Context) (phase, error)

var transitions = map[phase]transition{
	phaseNewTurn:           (*turn).newTurn,
	phaseBuildPrompt:       (*turn).buildPrompt,
	phaseAwaitModel:        (*turn).awaitModel,
	phaseToolCall:          (*turn).toolCall,
	phaseAwaitConfirmation: (*turn).awaitConfirmation,
}

// turn is the state of one Run. Everything that outlives the turn lives in
// the session.
type turn struct {
	kernel  *Kernel
	session session.Session
	input   string
	runID   string
	events  *stream.Channel[Event]

	prompt     []protocol.Message
	action     reasoning.ActionStep
	response   string
	iterations int
	recorded   int // formatted step messages already appended to memory
}

func (t *turn) run(ctx context.Context) (result *Result, err error) {
	ctx, span := t.startSpan(ctx, traceSpanTurn)
	defer func() {
		span.SetAttributes(attribute.Int(traceAttrIteration, t.iterations))
		markSpanResult(span, err)
		span.End()
	}()

	p := phaseNewTurn
	for p != phaseFinished {
		if err := ctx.Err(); err != nil {
			return nil, t.fail(ctx, p, err)
		}
		next, err := transitions[p](t, ctx)
		if err != nil {
			return nil, t.fail(ctx, p, err)
		}
		p = next
	}

	result = &Result{
		Response:   t.response,
		Sources:    t.session.Sources(),
		Reasoning:  t.session.Reasoning(),
		Iterations: t.iterations,
	}
	t.notify(ctx, EventTurnComplete, observability.LevelInfo, map[string]any{
		"iterations":      t.iterations,
		"sources":         len(result.Sources),
		"response_length": len(result.Response),
	})
	return result, nil
}

// newTurn clears the per-turn state and records the user's input.
func (t *turn) newTurn(ctx context.Context) (phase, error) {
	t.session.Reset()

	if err := t.session.Append(ctx, protocol.NewMessage(protocol.RoleUser, t.input)); err != nil {
		return phaseFinished, err
	}

	t.notify(ctx, EventTurnStart, observability.LevelInfo, map[string]any{
		"input_length":   len(t.input),
		"max_iterations": t.kernel.maxIterations,
		"tools":          len(t.kernel.tools.List()),
	})
	return phaseBuildPrompt, nil
}

// buildPrompt formats the next model input from memory and the trace, and
// appends the step messages memory does not yet hold so later cycles see
// their own reasoning. The header and the replayed history are never
// written back.
func (t *turn) buildPrompt(ctx context.Context) (phase, error) {
	if t.kernel.maxIterations > 0 && t.iterations >= t.kernel.maxIterations {
		return phaseFinished, fmt.Errorf("%w: %d", ErrMaxIterations, t.kernel.maxIterations)
	}
	t.iterations++

	history, err := t.session.Messages(ctx)
	if err != nil {
		return phaseFinished, err
	}

	formatted := t.kernel.formatter.Format(t.kernel.tools.List(), history, t.session.Reasoning())
	fresh := formatted[min(1+len(history)+t.recorded, len(formatted)):]

	prompt := formatted
	if t.kernel.client.Capabilities().RetainsConversation && len(prompt) > 2 {
		prompt = prompt[len(prompt)-1:]
	}
	t.prompt = prompt

	if err := t.emit(ctx, InputPrepared{Messages: slices.Clone(prompt)}); err != nil {
		return phaseFinished, err
	}
	if len(fresh) > 0 {
		if err := t.session.Append(ctx, fresh...); err != nil {
			return phaseFinished, err
		}
		t.recorded += len(fresh)
	}

	t.notify(ctx, EventPrompt, observability.LevelVerbose, map[string]any{
		"iteration": t.iterations,
		"messages":  len(prompt),
		"recorded":  len(fresh),
	})
	return phaseAwaitModel, nil
}

// awaitModel streams the model's reply, forwarding each delta, then
// classifies the full text.
func (t *turn) awaitModel(ctx context.Context) (phase, error) {
	text, err := t.streamModel(ctx)
	if err != nil {
		return phaseFinished, err
	}

	step, err := t.kernel.parser.Parse(text)
	if err != nil {
		return t.recoverParse(ctx, text, err)
	}

	switch s := step.(type) {
	case reasoning.ResponseStep:
		if err := t.session.Append(ctx, protocol.NewMessage(protocol.RoleAssistant, s.Response)); err != nil {
			return phaseFinished, err
		}
		t.session.AddStep(s)
		t.response = s.Response
		if err := t.emit(ctx, Stop{}); err != nil {
			return phaseFinished, err
		}
		return phaseFinished, nil

	case reasoning.ActionStep:
		if err := t.session.Append(ctx, protocol.NewMessage(protocol.RoleAssistant, s.Content())); err != nil {
			return phaseFinished, err
		}
		t.session.AddStep(s)
		t.action = s
		return phaseToolCall, nil

	default:
		return t.recoverParse(ctx, text, fmt.Errorf("unexpected %s step", reasoning.Kind(step)))
	}
}

func (t *turn) streamModel(ctx context.Context) (text string, err error) {
	ctx, span := t.startSpan(ctx, traceSpanModel, attribute.Int(traceAttrIteration, t.iterations))
	defer func() {
		markSpanResult(span, err)
		span.End()
	}()

	s, err := t.kernel.client.Stream(ctx, t.prompt)
	if err != nil {
		return "", fmt.Errorf("model stream: %w", err)
	}
	defer s.Close()

	var sb strings.Builder
	deltas := 0
	for s.Next() {
		delta := s.Delta()
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		deltas++
		if err := t.emit(ctx, StreamDelta{Text: delta}); err != nil {
			return "", err
		}
	}
	if err := s.Err(); err != nil {
		return "", fmt.Errorf("model stream: %w", err)
	}

	t.notify(ctx, EventModelComplete, observability.LevelVerbose, map[string]any{
		"iteration":     t.iterations,
		"deltas":        deltas,
		"output_length": sb.Len(),
	})
	return sb.String(), nil
}

// recoverParse keeps unparsable output in memory and feeds the failure back
// to the model as an observation.
func (t *turn) recoverParse(ctx context.Context, text string, parseErr error) (phase, error) {
	if err := t.session.Append(ctx, protocol.NewMessage(protocol.RoleAssistant, text)); err != nil {
		return phaseFinished, err
	}
	t.session.AddStep(reasoning.ObservationStep{Observation: parseObservation(parseErr)})

	t.notify(ctx, EventParseError, observability.LevelWarning, map[string]any{
		"iteration": t.iterations,
		"error":     parseErr.Error(),
	})
	return phaseBuildPrompt, nil
}

// toolCall resolves the pending action against the executor.
func (t *turn) toolCall(ctx context.Context) (phase, error) {
	name := t.action.Action

	if _, ok := t.kernel.tools.Lookup(name); !ok {
		unknown := &UnknownToolError{Tool: name}
		t.session.AddStep(reasoning.ObservationStep{Observation: unknown.Error()})
		t.notify(ctx, EventToolUnknown, observability.LevelWarning, map[string]any{
			"iteration": t.iterations,
			"name":      name,
		})
		return phaseBuildPrompt, nil
	}

	if t.kernel.requiresConfirmation(name) {
		return phaseAwaitConfirmation, nil
	}
	return phaseBuildPrompt, t.invoke(ctx)
}

// awaitConfirmation suspends the turn until the caller answers through
// Respond or the turn's context ends. There is no timeout.
func (t *turn) awaitConfirmation(ctx context.Context) (phase, error) {
	name := t.action.Action
	args, err := t.action.Arguments()
	request := session.NewConfirmation(name, args, describeCall(t.action, err))

	reply, err := t.session.AwaitConfirmation(request)
	if err != nil {
		return phaseFinished, err
	}

	err = t.emit(ctx, ConfirmationRequested{
		ID:          request.ID,
		Tool:        request.Tool,
		Arguments:   request.Arguments,
		Description: request.Description,
	})
	if err != nil {
		t.session.CancelConfirmation()
		return phaseFinished, err
	}
	t.notify(ctx, EventConfirmRequest, observability.LevelInfo, map[string]any{
		"iteration":    t.iterations,
		"name":         name,
		"confirmation": request.ID,
	})

	token, err := reply.Receive(ctx)
	if err != nil && !errors.Is(err, stream.ErrClosed) {
		t.session.CancelConfirmation()
		return phaseFinished, err
	}

	accepted := err == nil && token == t.kernel.confirmToken
	t.notify(ctx, EventConfirmResponse, observability.LevelInfo, map[string]any{
		"iteration":    t.iterations,
		"name":         name,
		"confirmation": request.ID,
		"accepted":     accepted,
	})

	if !accepted {
		declined := &ConfirmationDeclinedError{Tool: name}
		t.session.AddStep(reasoning.ObservationStep{Observation: declined.Error()})
		return phaseBuildPrompt, nil
	}
	return phaseBuildPrompt, t.invoke(ctx)
}

// invoke runs the pending action. Tool failures become observations; only
// cancellation and memory failures end the turn.
func (t *turn) invoke(ctx context.Context) (err error) {
	name := t.action.Action

	ctx, span := t.startSpan(ctx, traceSpanTool,
		attribute.Int(traceAttrIteration, t.iterations),
		attribute.String(traceAttrToolName, name),
	)
	defer func() {
		markSpanResult(span, err)
		span.End()
	}()

	t.notify(ctx, EventToolCall, observability.LevelVerbose, map[string]any{
		"iteration": t.iterations,
		"name":      name,
	})

	output, execErr := t.kernel.tools.Execute(ctx, name, t.action.Input)
	if execErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		failed := &ToolInvocationError{Tool: name, Err: execErr}
		t.session.AddStep(reasoning.ObservationStep{Observation: failed.Error()})
		t.notify(ctx, EventToolComplete, observability.LevelWarning, map[string]any{
			"iteration": t.iterations,
			"name":      name,
			"error":     true,
		})
		span.RecordError(execErr)
		return nil
	}

	t.session.AddSource(output)
	if err := t.emit(ctx, ToolResult{Tool: name, Output: output.Content}); err != nil {
		return err
	}
	if err := t.session.Append(ctx, protocol.NewMessage(protocol.RoleTool, output.Content)); err != nil {
		return err
	}
	t.session.AddStep(reasoning.ObservationStep{Observation: output.Content})

	t.notify(ctx, EventToolComplete, observability.LevelVerbose, map[string]any{
		"iteration": t.iterations,
		"name":      name,
		"error":     output.IsError,
	})
	return nil
}

func (t *turn) emit(ctx context.Context, event Event) error {
	return t.events.Send(ctx, event)
}

func (t *turn) notify(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	data["session"] = t.session.Key()
	data["run_id"] = t.runID
	t.kernel.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "kernel.turn",
		Data:      data,
	})
}

func (t *turn) fail(ctx context.Context, p phase, err error) error {
	level := observability.LevelError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		level = observability.LevelWarning
	}
	t.notify(context.WithoutCancel(ctx), EventError, level, map[string]any{
		"phase":      p.String(),
		"iterations": t.iterations,
		"error":      err.Error(),
	})
	return err
}

// describeCall renders an action as the confirmation prompt shown to the
// user, e.g. `run_bash_script({"script":"ls"}), ok?`. An argument decode
// failure is included in the description.
func describeCall(step reasoning.ActionStep, decodeErr error) string {
	args := string(step.Input)
	if args == "" {
		args = "{}"
	}
	if decodeErr != nil {
		return fmt.Sprintf("%s(%s) [undecodable arguments: %v], ok?", step.Action, args, decodeErr)
	}
	return fmt.Sprintf("%s(%s), ok?", step.Action, args)
}
