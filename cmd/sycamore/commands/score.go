package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/sycamore/backend/internal/advisor"
	"github.com/wonny/sycamore/backend/internal/api/schema"
	"github.com/wonny/sycamore/backend/internal/features"
	"github.com/wonny/sycamore/backend/internal/health"
)

// scoreCmd scores one applicant record
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "신용 점수 산출 (단건)",
	Long: `JSON 신청자 레코드 1건의 신용 점수를 계산합니다.

Example:
  go run ./cmd/sycamore score --input applicant.json
  cat applicant.json | go run ./cmd/sycamore score --input -`,
	RunE: runScore,
}

// healthCmd computes the financial health score of one record
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "재무 건전성 점수 산출 (단건)",
	Long: `JSON 신청자 레코드 1건의 재무 건전성 점수와 등급을 계산합니다.

Example:
  go run ./cmd/sycamore health --input applicant.json`,
	RunE: runHealth,
}

// adviseCmd recommends an allocation
var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "투자 성향/자산 배분 추천",
	Long: `재무 건전성 점수와 나이로 자산 배분을 추천합니다.

Example:
  go run ./cmd/sycamore advise --score 72.5 --age 40`,
	RunE: runAdvise,
}

var (
	inputPath   string
	adviseScore float64
	adviseAge   int
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(adviseCmd)

	scoreCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "신청자 JSON 파일 (- = stdin)")
	healthCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "신청자 JSON 파일 (- = stdin)")

	adviseCmd.Flags().Float64Var(&adviseScore, "score", 0, "재무 건전성 점수 (0-100)")
	adviseCmd.Flags().IntVar(&adviseAge, "age", 30, "나이")
	_ = adviseCmd.MarkFlagRequired("score")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, log, err := cliEnv()
	if err != nil {
		return err
	}

	record, err := readRecord(inputPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := schema.Applicant().Validate(record); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, log, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.ScoreFields(ctx, record)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, _, err := cliEnv()
	if err != nil {
		return err
	}
	pol, _, err := loadPolicy(cfg)
	if err != nil {
		return err
	}

	record, err := readRecord(inputPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := schema.Applicant().Validate(record); err != nil {
		return err
	}
	raw, err := features.ParseRecord(record)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), health.New(pol.Health).EvaluateRecord(raw))
}

func runAdvise(cmd *cobra.Command, args []string) error {
	if adviseScore < 0 || adviseScore > 100 {
		return fmt.Errorf("--score must be within [0, 100]")
	}
	if adviseAge < 0 {
		return fmt.Errorf("--age must be >= 0")
	}

	cfg, _, err := cliEnv()
	if err != nil {
		return err
	}
	pol, _, err := loadPolicy(cfg)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), advisor.New(pol.Investment).Advise(adviseScore, adviseAge))
}
