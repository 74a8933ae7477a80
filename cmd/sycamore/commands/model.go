package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// modelCmd groups model artifact commands
var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "모델 아티팩트 관리",
}

// modelInspectCmd loads the configured artifact and prints its metadata
var modelInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "모델 아티팩트 검사",
	Long: `MODEL_PATH(또는 MODEL_REMOTE_URL)의 모델을 로드하고 메타데이터를 출력합니다.
피처 순서가 기대 순서와 다르면 실패합니다.

Example:
  go run ./cmd/sycamore model inspect
  MODEL_PATH=models/v2.json go run ./cmd/sycamore model inspect`,
	RunE: runModelInspect,
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelInspectCmd)
}

func runModelInspect(cmd *cobra.Command, args []string) error {
	cfg, log, err := cliEnv()
	if err != nil {
		return err
	}

	a, err := newApp(context.Background(), cfg, log, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	adapter, err := a.models.Current()
	if err != nil {
		return fmt.Errorf("no model loaded from %s: %w", cfg.Model.Path, err)
	}

	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"model":         adapter.Info(),
		"feature_names": adapter.FeatureNames(),
	})
}
