// File: cmd/courtpilot/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(context.Canceled))
	assert.Equal(t, 0, exitCode(fmt.Errorf("round 3: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("failed to start browser")))
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("writes panic log", func(t *testing.T) {
		dir := t.TempDir()
		var written string
		var code int
		osWriteFile = func(name string, data []byte, perm os.FileMode) error {
			written = string(data)
			return os.WriteFile(filepath.Join(dir, name), data, perm)
		}
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("chrome went away")
		}()

		assert.Equal(t, 2, code)
		assert.Contains(t, written, "panic: chrome went away")
		assert.FileExists(t, filepath.Join(dir, panicLogFile))
	})

	t.Run("log write fails", func(t *testing.T) {
		var code int
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only filesystem") }
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, 1, code)
	})

	t.Run("no panic", func(t *testing.T) {
		called := false
		osExit = func(int) { called = true }
		func() {
			defer handlePanic()
		}()
		require.False(t, called)
	})
}
