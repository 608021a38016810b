package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/revola-ai/realtime-api-wrapper/core/events"
)

// ToolDefinition describes a function tool offered to the model.
type ToolDefinition struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// ToolHandler executes a tool call. It receives the raw JSON arguments the
// model streamed and returns a result that is serialized into the
// function_call_output item.
type ToolHandler func(ctx context.Context, arguments json.RawMessage) (any, error)

type registeredTool struct {
	definition ToolDefinition
	handler    ToolHandler
}

// NewToolDefinition builds a tool definition whose parameter schema is
// reflected from a Go struct (or pointer to one).
func NewToolDefinition(name, description string, parameters any) ToolDefinition {
	definition := ToolDefinition{Type: "function", Name: name, Description: description}
	if parameters == nil {
		return definition
	}

	reflector := jsonschema.Reflector{DoNotReference: true}
	if reflect.TypeOf(parameters).Kind() == reflect.Ptr {
		definition.Parameters = reflector.ReflectFromType(reflect.TypeOf(parameters).Elem())
	} else {
		definition.Parameters = reflector.Reflect(parameters)
	}
	return definition
}

// AddTool registers a tool and re-announces the session so the model can use
// it. The handler runs when a function_call item for it completes.
func (c *Client) AddTool(definition ToolDefinition, handler ToolHandler) error {
	if definition.Name == "" {
		return fmt.Errorf("tool definition is missing a name")
	}
	if handler == nil {
		return fmt.Errorf("tool %q is missing a handler", definition.Name)
	}
	if definition.Type == "" {
		definition.Type = "function"
	}

	c.mu.Lock()
	if _, exists := c.tools[definition.Name]; exists {
		c.mu.Unlock()
		return fmt.Errorf("tool %q is already registered", definition.Name)
	}
	c.tools[definition.Name] = registeredTool{definition: definition, handler: handler}
	c.mu.Unlock()

	return c.sendSessionUpdate()
}

// RemoveTool unregisters a tool by name.
func (c *Client) RemoveTool(name string) error {
	c.mu.Lock()
	if _, exists := c.tools[name]; !exists {
		c.mu.Unlock()
		return fmt.Errorf("tool %q is not registered", name)
	}
	delete(c.tools, name)
	c.mu.Unlock()

	return c.sendSessionUpdate()
}

// UnsetTools drops every registered tool.
func (c *Client) UnsetTools() error {
	c.mu.Lock()
	c.tools = map[string]registeredTool{}
	c.mu.Unlock()

	return c.sendSessionUpdate()
}

// callTool executes a completed function call and reports its output back to
// the conversation, asking for a follow-up response either way.
func (c *Client) callTool(ctx context.Context, tool FormattedTool) {
	output, err := c.executeTool(ctx, tool)
	if err != nil {
		logger.Warn("tool call failed", "tool", tool.Name, "error", err)
		payload, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
		if marshalErr != nil {
			payload = []byte(`{"error":"tool execution failed"}`)
		}
		output = string(payload)
	}

	if sendErr := c.api.Send(
		events.TypeConversationItemCreate,
		map[string]any{"item": map[string]any{
			"type":    "function_call_output",
			"call_id": tool.CallID,
			"output":  output,
		}},
	); sendErr != nil {
		logger.Warn("failed to send tool output", "tool", tool.Name, "error", sendErr)
		return
	}
	if err := c.CreateResponse(); err != nil {
		logger.Warn("failed to request response after tool call", "tool", tool.Name, "error", err)
	}
}

func (c *Client) executeTool(ctx context.Context, tool FormattedTool) (string, error) {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()

	c.mu.Lock()
	registered, ok := c.tools[tool.Name]
	c.mu.Unlock()
	if !ok {
		err := fmt.Errorf("tool not found: %s", tool.Name)
		span.RecordError(err)
		return "", err
	}

	arguments := json.RawMessage(tool.Arguments)
	if !json.Valid(arguments) {
		err := fmt.Errorf("tool %q received invalid arguments", tool.Name)
		span.RecordError(err)
		return "", err
	}

	result, err := registered.handler(ctx, arguments)
	if err != nil {
		err = fmt.Errorf("failed to execute tool %q: %w", tool.Name, err)
		span.RecordError(err)
		return "", err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		err = fmt.Errorf("failed to serialize output of tool %q: %w", tool.Name, err)
		span.RecordError(err)
		return "", err
	}
	return string(payload), nil
}
