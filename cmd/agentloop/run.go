package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/config"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/executor"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/observer"
)

func runCmd(cfgPath *string) *cobra.Command {
	var (
		jsonOutput  bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "run <question> [question...]",
		Short: "Answer one or more questions; several questions run concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			logger := logging.NewLogger(cfg.LoggerConfig(os.Stderr)).
				WithComponent("agentloop").
				WithContext("provider", cfg.Model.Provider)

			llm, err := newModel(ctx, cfg, logger)
			if err != nil {
				return err
			}

			tools, cleanup, err := newTools(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			a, err := agent.New(cfg.AgentType(), llm, tools, cfg.AgentOptions, func(o *agent.Options) { o.Logger = logger })
			if err != nil {
				return err
			}

			var obs core.Observer = observer.NewLogging(logger)
			if cfg.Executor.Verbose {
				obs = observer.NewMulti(obs, observer.NewConsole(cmd.ErrOrStderr()))
			}

			execOpts, err := cfg.ExecutorOptions()
			if err != nil {
				return err
			}

			e, err := executor.New(a, tools, execOpts, func(o *executor.Options) {
				o.Logger = logger
				o.Observer = obs
			})
			if err != nil {
				return err
			}

			inputs := make([]core.Values, len(args))
			for i, q := range args {
				inputs[i] = core.Values{agent.DefaultInputKey: q}
			}

			start := time.Now()
			outputs, err := e.CallBatch(ctx, inputs, concurrency)
			logger.LogRun(string(a.Type()), len(inputs), time.Since(start), err == nil, err)
			if err != nil {
				return err
			}

			return printOutputs(cmd, args, outputs, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full outputs as JSON")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "maximum number of questions answered in parallel")

	return cmd
}

func printOutputs(cmd *cobra.Command, questions []string, outputs []core.Values, jsonOutput bool) error {
	w := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outputs)
	}

	for i, out := range outputs {
		if len(questions) > 1 {
			fmt.Fprintf(w, "Q: %s\n", questions[i])
		}
		fmt.Fprintln(w, out[agent.DefaultOutputKey])
	}

	return nil
}

func validateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s agent, %s provider, tools %v\n", cfg.AgentType(), cfg.Model.Provider, cfg.Tools.Enabled)
			return nil
		},
	}
}
