package schemas

import "context"

// -- LLM Schemas & Interface --

// ModelRole identifies which part of the observe/act loop a request belongs to.
// Each role can be served by a different provider and model.
type ModelRole string

const (
	RoleObserver ModelRole = "observer" // Describes the screenshot and its hint labels.
	RoleActor    ModelRole = "actor"    // Chooses the next action.
	RoleTable    ModelRole = "table"    // Extracts structured data from the screenshot.
	RoleLocator  ModelRole = "locator"  // Picks a grid cell for an unlabeled element.
)

// GenerationOptions provides parameters to control the text generation process.
type GenerationOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// GenerationRequest encapsulates a complete request to the LLM. ImagePath is
// optional; when set the image is attached to the user turn.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	ImagePath    string            `json:"image_path,omitempty"`
	Role         ModelRole         `json:"role"`
	Options      GenerationOptions `json:"options"`
}

// ToolSpec describes a callable tool with a JSON schema for its arguments.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is the structured decision returned by a tool-calling model. An empty
// Name means the model replied with Text only.
type ToolCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Text      string `json:"text,omitempty"`
}

// LLMClient defines a standard interface for interacting with a Large Language
// Model, abstracting the specifics of the underlying provider.
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}

// ToolCallingClient is an LLMClient that can also be forced to pick exactly one tool.
type ToolCallingClient interface {
	LLMClient
	GenerateToolCall(ctx context.Context, req GenerationRequest, tools []ToolSpec) (*ToolCall, error)
}
