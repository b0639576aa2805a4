package cmd

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/courtpilot/internal/action"
	"github.com/xkilldash9x/courtpilot/internal/agent"
)

func TestPrintResult(t *testing.T) {
	color.NoColor = true

	t.Run("answered", func(t *testing.T) {
		var buf bytes.Buffer
		err := printResult(&buf, agent.Result{RunID: "r1", Answer: "P2 18:00-19:00", Answered: true, Rounds: 3}, false)
		require.NoError(t, err)
		assert.Equal(t, "ANSWER\nP2 18:00-19:00\n\n(3 rounds, run r1)\n", buf.String())
	})

	t.Run("budget exhausted", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printResult(&buf, agent.Result{RunID: "r2", Rounds: 5}, false))
		assert.Equal(t, "No answer after 5 rounds (run r2).\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		result := agent.Result{RunID: "r3", Answered: true, Answer: "P1", Rounds: 1,
			Actions: []action.Action{{Kind: action.KindAnswer, Payload: "P1"}}}
		require.NoError(t, printResult(&buf, result, true))

		var decoded agent.Result
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, result.RunID, decoded.RunID)
		assert.Equal(t, result.Actions[0].Kind, decoded.Actions[0].Kind)
	})
}
