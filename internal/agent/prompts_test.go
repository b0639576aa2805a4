package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/courtpilot/internal/action"
)

func TestActorPrompt(t *testing.T) {
	catalog, err := action.NewCatalog(action.CatalogOptions{Table: action.KindParseTableData, Input: true})
	require.NoError(t, err)

	prompt := ActorPrompt("Description of the webpage:\n* a calendar", "Find a free court.", catalog)

	assert.True(t, strings.HasPrefix(prompt, "You are an assistant that helps a user to solve a task. The task provided by the user is the following:\nFind a free court.\n"))
	assert.Contains(t, prompt, catalog.Render())
	assert.Contains(t, prompt, "* a calendar")
	assert.Contains(t, prompt, "Thought: Your reasoning behind the action you are taking.")
	assert.Contains(t, prompt, "should be one of SCROLL, CLICK, INPUT, PARSE_TABLE_DATA, ANSWER. Only provide the action.")
}

func TestActorPrompt_WithoutInput(t *testing.T) {
	catalog, err := action.NewCatalog(action.CatalogOptions{Table: action.KindAnalyzeTable})
	require.NoError(t, err)

	prompt := ActorPrompt("desc", "task", catalog)
	assert.NotContains(t, prompt, "INPUT(")
	assert.Contains(t, prompt, "should be one of SCROLL, CLICK, ANALYZE_TABLE, ANSWER.")
}

func TestModelPrompts(t *testing.T) {
	assert.Contains(t, ObserverPrompt(), "yellow boxes are placed on top of clickable UI elements")
	assert.Contains(t, TablePrompt("free slots at 17:00"), "Task: free slots at 17:00")
	assert.Contains(t, TablePrompt("x"), "'NOT AVAILABLE'")
	assert.Contains(t, LocatorPrompt("the Freiplätze tab"), "following location on the image: the Freiplätze tab")
	assert.Contains(t, LocatorPrompt("x"), "RESULT: <number>")
	assert.Contains(t, ToolCallSystemPrompt("Book P2."), "Book P2.")
	assert.Contains(t, ToolCallSystemPrompt("x"), "<ANSWER></ANSWER>")
}
