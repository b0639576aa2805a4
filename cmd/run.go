package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/internal/agent"
	"github.com/xkilldash9x/courtpilot/internal/browser"
	"github.com/xkilldash9x/courtpilot/internal/llmclient"
	"github.com/xkilldash9x/courtpilot/internal/observability"
)

func newRunCmd() *cobra.Command {
	var (
		taskFile string
		asJSON   bool
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Open the booking site and let the observer and actor look for a free court",
		Long: `Launches the persistent browser profile, navigates to the start URL and runs
up to --rounds observe/decide/act rounds. The run stops early as soon as the
actor answers the task.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if taskFile != "" {
				raw, err := os.ReadFile(taskFile)
				if err != nil {
					return fmt.Errorf("failed to read task file: %w", err)
				}
				cfg.Agent.Task = strings.TrimSpace(string(raw))
			}
			if strings.TrimSpace(cfg.Agent.Task) == "" {
				return fmt.Errorf("a task is required; pass --task, --task-file or set agent.task")
			}

			router, err := llmclient.NewRouterFromConfig(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize models: %w", err)
			}
			defer func() {
				if err := router.Close(); err != nil {
					logger.Warn("Failed to close model clients.", zap.Error(err))
				}
			}()

			session, err := browser.NewSession(ctx, cfg.Browser, logger)
			if err != nil {
				return fmt.Errorf("failed to start browser: %w", err)
			}
			defer func() {
				if err := session.Close(); err != nil {
					logger.Warn("Failed to close browser session.", zap.Error(err))
				}
			}()

			var echo io.Writer
			if cfg.Logger.Transcript {
				echo = cmd.ErrOrStderr()
			}
			transcript := observability.NewTranscript(logger, echo)

			runner, err := agent.NewRunner(cfg, session, router, transcript, logger)
			if err != nil {
				return err
			}

			result, err := runner.Run(ctx, cfg.Agent.Task, cfg.Browser.StartURL)
			if err != nil {
				return fmt.Errorf("run %s failed: %w", result.RunID, err)
			}
			return printResult(cmd.OutOrStdout(), result, asJSON)
		},
	}

	runCmd.Flags().String("task", "", "Task the agent should solve (overrides agent.task)")
	runCmd.Flags().StringVar(&taskFile, "task-file", "", "Read the task from a file")
	runCmd.Flags().String("url", "", "Start URL (overrides browser.start_url)")
	runCmd.Flags().Int("rounds", 0, "Maximum number of rounds")
	runCmd.Flags().String("mode", "", "Actor mode: text or toolcall")
	runCmd.Flags().Bool("headless", false, "Run the browser without a window")
	runCmd.Flags().Bool("locator", false, "Allow clicking unlabeled elements through the grid locator")
	runCmd.Flags().Bool("replay-observer", false, "Serve recorded observer responses instead of calling the model")
	runCmd.Flags().Bool("replay-actor", false, "Serve recorded actor responses instead of calling the model")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return runCmd
}

// printResult writes the final answer, or a notice that the round budget ran out.
func printResult(w io.Writer, result agent.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.Answered {
		_, err := color.New(color.FgYellow).Fprintf(w, "No answer after %d rounds (run %s).\n", result.Rounds, result.RunID)
		return err
	}
	bold := color.New(color.FgGreen, color.Bold)
	if _, err := bold.Fprintln(w, "ANSWER"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n\n(%d rounds, run %s)\n", result.Answer, result.Rounds, result.RunID)
	return err
}
