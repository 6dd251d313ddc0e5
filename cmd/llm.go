package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepbuddy/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the configured LLM backend",
}

var llmInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show which provider and model plan generation will use",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		lc, ok := llm.Discover(cfg.LLMConfig())
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "No LLM configured:", lc.Validate())
			return nil
		}
		model := modelOf(lc)
		price, priced := llm.PriceOf(model)
		fmt.Fprintf(cmd.OutOrStdout(), "Provider:  %s\n", lc.Provider)
		fmt.Fprintf(cmd.OutOrStdout(), "Model:     %s\n", model)
		fmt.Fprintf(cmd.OutOrStdout(), "Retries:   %d attempts\n", lc.Retry.MaxAttempts)
		fmt.Fprintf(cmd.OutOrStdout(), "Timeout:   %s\n", lc.Timeout)
		if priced {
			fmt.Fprintf(cmd.OutOrStdout(), "Price:     $%.2f in / $%.2f out per 1M tokens\n", price.Input, price.Output)
		}
		return nil
	},
}

var llmPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a tiny structured request to verify credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		lc, ok := llm.Discover(cfg.LLMConfig())
		if !ok {
			return lc.Validate()
		}
		return withSession(cmd, func(s *session) error {
			provider, err := llm.NewProvider(cmd.Context(), lc, s.logger)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(llm.WithOperation(cmd.Context(), "ping"), lc.Timeout)
			defer cancel()

			start := time.Now()
			resp, err := provider.Generate(ctx, llm.Ask(
				"Reply with the requested JSON only.",
				`Return {"ok": true}.`,
				pingSchema, 64))
			if err != nil {
				return fmt.Errorf("ping %s: %w", lc.Provider, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s answered in %s (%d in / %d out tokens): %s\n",
				resp.Model, time.Since(start).Round(time.Millisecond),
				resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Content)
			return nil
		})
	},
}

var pingSchema = &llm.Schema{
	Name:        "ping",
	Description: "Connectivity check",
	Definition: map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"ok": map[string]any{"type": "boolean"}},
		"required":             []string{"ok"},
		"additionalProperties": false,
	},
}

func modelOf(c llm.Config) string {
	switch c.Provider {
	case llm.ProviderAnthropic:
		return c.Anthropic.Model
	case llm.ProviderOpenAI:
		return c.OpenAI.Model
	case llm.ProviderGemini:
		return c.Gemini.Model
	case llm.ProviderOpenRouter:
		return c.OpenRouter.Model
	}
	return c.Provider
}

func init() {
	llmCmd.AddCommand(llmInfoCmd, llmPingCmd)
}
