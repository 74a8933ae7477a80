package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/sycamore/backend/internal/policy"
)

// policyCmd groups scoring policy commands
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "스코어링 정책 관리",
}

// policyValidateCmd checks a policy YAML file
var policyValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "정책 YAML 검증",
	Long: `정책 YAML을 파싱/검증하고 해시를 출력합니다.
알 수 없는 필드, 잘못된 등급 경계, 합이 100이 아닌 배분은 실패합니다.

Example:
  go run ./cmd/sycamore policy validate --file policy.yaml`,
	RunE: runPolicyValidate,
}

var validateFile string

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyValidateCmd)

	policyValidateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "정책 YAML 경로")
	_ = policyValidateCmd.MarkFlagRequired("file")
}

func runPolicyValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := policy.Load(validateFile)
	if err != nil {
		return fmt.Errorf("❌ %s: %w", validateFile, err)
	}

	hash, err := policy.Hash(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✅ %s is valid\n", validateFile)
	fmt.Fprintf(out, "  Policy    : %s (v%s)\n", cfg.Meta.PolicyID, cfg.Meta.Version)
	fmt.Fprintf(out, "  Hash      : %s\n", hash)
	fmt.Fprintf(out, "  Tiers     : LOW <= %.4f < MEDIUM <= %.4f < HIGH\n", cfg.RiskTiers.LowMaxPD, cfg.RiskTiers.MediumMaxPD)
	fmt.Fprintf(out, "  Missing   : %s\n", cfg.Alignment.MissingFeatures)
	return nil
}
