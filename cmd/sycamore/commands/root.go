package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	policyFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "sycamore",
	Short:         "Sycamore - 신용 리스크 스코어링 서비스",
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `Sycamore Unified CLI

신용 점수, 재무 건전성, 투자 성향 추천 서비스.
모델 아티팩트 + 정책 YAML 기반으로 동작합니다.

Usage:
  go run ./cmd/sycamore [command]

Examples:
  go run ./cmd/sycamore api
  go run ./cmd/sycamore score --input applicant.json
  go run ./cmd/sycamore model inspect
  go run ./cmd/sycamore policy validate --file policy.yaml`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy", "", "policy YAML (default: POLICY_PATH or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
