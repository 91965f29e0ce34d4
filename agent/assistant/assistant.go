// Package assistant runs the voice dialogue loop for one call: caller
// utterances go through the dialogue model, tool calls are executed against
// the scheduling service, and the model's final text becomes the spoken
// reply.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/wrenvoice/voice-scheduler/agent/prompt"
	toolx "github.com/wrenvoice/voice-scheduler/agent/tool"
)

var (
	ErrValidation  = errors.New("assistant validation error")
	ErrModelInvoke = errors.New("assistant model invoke error")
)

// maxToolRounds bounds model->tool->model cycles inside one caller turn.
const maxToolRounds = 8

// TurnRequest is one caller utterance.
type TurnRequest struct {
	Utterance string
}

// TurnResponse is the assistant's reply for a turn. Reply may be empty when
// the turn ended with a tool-spoken confirmation or call teardown; Ended is
// set once end_conversation has run.
type TurnResponse struct {
	Reply string
	Ended bool
}

// Assistant holds the per-call dialogue state. It is bound to one session
// and one room, and is not safe for concurrent use.
type Assistant struct {
	modelRunner compose.Runnable[[]*schema.Message, *schema.Message]
	turnRunner  compose.Runnable[TurnRequest, TurnResponse]
	dispatcher  *toolx.Dispatcher
	history     []*schema.Message
	ended       bool
}

// New compiles the dialogue graphs with the call tools bound to the model
// and seeds the conversation with the assistant instructions.
func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	dispatcher *toolx.Dispatcher,
) (*Assistant, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", ErrValidation)
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("%w: tool dispatcher is required", ErrValidation)
	}

	toolModel, err := chatModel.WithTools(toolx.Infos())
	if err != nil {
		return nil, fmt.Errorf("%w: bind call tools: %v", ErrModelInvoke, err)
	}

	modelRunner, err := compileModelGraph(ctx, toolModel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInvoke, err)
	}

	a := &Assistant{
		modelRunner: modelRunner,
		dispatcher:  dispatcher,
		history: []*schema.Message{
			schema.SystemMessage(prompt.LoadPromptSet().Assistant),
		},
	}

	turnRunner, err := compileTurnGraph(ctx, a.runDialogue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInvoke, err)
	}
	a.turnRunner = turnRunner

	return a, nil
}

// Greeting is the assistant's opening line, spoken before any caller input.
func (a *Assistant) Greeting() string {
	return "Hi! I can help you book, change, or cancel appointments. " +
		"Could I get your phone number to look you up?"
}

// Ended reports whether end_conversation has run on this call.
func (a *Assistant) Ended() bool {
	return a.ended
}

// Respond handles one caller utterance and returns the reply to speak.
func (a *Assistant) Respond(ctx context.Context, utterance string) (TurnResponse, error) {
	if a.ended {
		return TurnResponse{Ended: true}, nil
	}
	if strings.TrimSpace(utterance) == "" {
		return TurnResponse{}, fmt.Errorf("%w: utterance is required", ErrValidation)
	}
	out, err := a.turnRunner.Invoke(ctx, TurnRequest{Utterance: utterance})
	if err != nil {
		return TurnResponse{}, err
	}
	return out, nil
}

// runDialogue is the model/tool loop for one turn. Tool results feed back
// into the model until it produces plain text, the call ends, or the round
// bound is hit.
func (a *Assistant) runDialogue(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	a.history = append(a.history, schema.UserMessage(req.Utterance))

	for round := 0; round < maxToolRounds; round++ {
		msg, err := a.modelRunner.Invoke(ctx, a.history)
		if err != nil {
			return TurnResponse{}, fmt.Errorf("%w: dialogue invoke: %v", ErrModelInvoke, err)
		}
		if msg == nil {
			return TurnResponse{}, fmt.Errorf("%w: empty dialogue response", ErrModelInvoke)
		}

		a.history = append(a.history, msg)

		if len(msg.ToolCalls) == 0 {
			return TurnResponse{Reply: strings.TrimSpace(msg.Content)}, nil
		}

		for _, call := range msg.ToolCalls {
			name := strings.TrimSpace(call.Function.Name)
			args, err := parseToolArgs(call.Function.Arguments)
			if err != nil {
				log.Warn().Err(err).Str("tool", name).Msg("malformed tool arguments")
				a.history = append(a.history,
					schema.ToolMessage("The tool arguments were malformed. Try the call again with valid JSON arguments.", call.ID))
				continue
			}

			result, err := a.dispatcher.Execute(ctx, name, args)
			if err != nil {
				return TurnResponse{}, fmt.Errorf("%w: execute tool %s: %v", ErrModelInvoke, name, err)
			}
			a.history = append(a.history, schema.ToolMessage(result, call.ID))

			if name == toolx.ToolEndConversation {
				a.ended = true
				return TurnResponse{Ended: true}, nil
			}
		}
	}

	return TurnResponse{}, fmt.Errorf("%w: tool round limit reached", ErrModelInvoke)
}

func parseToolArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, fmt.Errorf("parse tool args: %w", err)
	}
	return args, nil
}
