package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/course-flow/internal/llm"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models offered by the OpenAI-compatible endpoint, vision models first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			keys := cfg.LLMKeys()
			if len(keys) == 0 {
				return fmt.Errorf("no API key: set llm.api_keys or %s", cfg.LLM.APIKeyEnv)
			}

			client := llm.NewClient(llmConfig(cfg, keys[0]))
			ids, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderModels(llm.RankModels(ids), cfg.LLM.VisionModel, cfg.LLM.StructureModel))
			return nil
		},
	}
}

func renderModels(ranked []string, visionModel, structureModel string) string {
	rows := make([][]string, 0, len(ranked))
	for i, id := range ranked {
		vision := ""
		if llm.IsVisionModel(id) {
			vision = "yes"
		}
		var role string
		switch id {
		case visionModel:
			role = "notes"
		case structureModel:
			role = "structure"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), id, vision, role})
	}
	return renderTable([]string{"#", "Model", "Vision", "Configured"}, rows, []columnAlignment{alignRight})
}
