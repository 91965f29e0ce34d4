package assistant

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// compileModelGraph wraps the tool-bound chat model in a single-node graph
// so every model invocation runs through the compiled runtime.
func compileModelGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
) (compose.Runnable[[]*schema.Message, *schema.Message], error) {
	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add dialogue model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "model"); err != nil {
		return nil, fmt.Errorf("add dialogue edge start->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add dialogue edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("assistant.model_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile dialogue model graph: %w", err)
	}
	return runner, nil
}

// compileTurnGraph is the runtime graph for one caller turn: validate the
// utterance, then run the dialogue loop (model plus tool execution).
func compileTurnGraph(
	ctx context.Context,
	dialogueFlow func(context.Context, TurnRequest) (TurnResponse, error),
) (compose.Runnable[TurnRequest, TurnResponse], error) {
	graph := compose.NewGraph[TurnRequest, TurnResponse]()

	if err := graph.AddLambdaNode("validate_turn",
		compose.InvokableLambda(func(ctx context.Context, req TurnRequest) (TurnRequest, error) {
			if strings.TrimSpace(req.Utterance) == "" {
				return TurnRequest{}, fmt.Errorf("%w: utterance is required", ErrValidation)
			}
			return req, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn validate node: %w", err)
	}

	if err := graph.AddLambdaNode("run_dialogue",
		compose.InvokableLambda(func(ctx context.Context, req TurnRequest) (TurnResponse, error) {
			return dialogueFlow(ctx, req)
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn dialogue node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "validate_turn"); err != nil {
		return nil, fmt.Errorf("add turn edge start->validate: %w", err)
	}
	if err := graph.AddEdge("validate_turn", "run_dialogue"); err != nil {
		return nil, fmt.Errorf("add turn edge validate->dialogue: %w", err)
	}
	if err := graph.AddEdge("run_dialogue", compose.END); err != nil {
		return nil, fmt.Errorf("add turn edge dialogue->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("assistant.turn_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}
