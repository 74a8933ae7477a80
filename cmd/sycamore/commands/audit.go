package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wonny/sycamore/backend/internal/audit"
	"github.com/wonny/sycamore/backend/pkg/database"
)

// auditCmd groups audit log commands
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "결정 감사 로그 조회",
	Long: `PostgreSQL에 기록된 신용 결정을 조회합니다. (DATABASE_URL 필요)

Example:
  go run ./cmd/sycamore audit recent --limit 20
  go run ./cmd/sycamore audit show <decision-id>`,
}

var auditRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "최근 결정 목록",
	RunE:  runAuditRecent,
}

var auditShowCmd = &cobra.Command{
	Use:   "show <decision-id>",
	Short: "결정 1건 조회",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditShow,
}

var auditLimit int

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditRecentCmd)
	auditCmd.AddCommand(auditShowCmd)

	auditRecentCmd.Flags().IntVar(&auditLimit, "limit", 20, "조회 건수")
}

func openAudit(ctx context.Context) (*database.DB, *audit.Repository, error) {
	cfg, _, err := cliEnv()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, audit.NewRepository(db.Pool), nil
}

func runAuditRecent(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db, repo, err := openAudit(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	decisions, err := repo.Recent(ctx, auditLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-36s  %-20s  %5s  %-6s  %12s\n", "ID", "CREATED", "SCORE", "TIER", "LOAN")
	for _, d := range decisions {
		fmt.Fprintf(out, "%-36s  %-20s  %5d  %-6s  %12.2f\n",
			d.ID, d.CreatedAt.Format("2006-01-02 15:04:05"), d.CreditScore, d.RiskTier, d.RecommendedLoanAmount)
	}
	return nil
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid decision id: %w", err)
	}

	ctx := context.Background()
	db, repo, err := openAudit(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	d, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), d)
}
