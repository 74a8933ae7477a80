package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "구성 요소 상태 점검",
	Long: `모델, 정책, Redis, PostgreSQL 연결 상태를 점검합니다.

Example:
  go run ./cmd/sycamore status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := cliEnv()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := newApp(ctx, cfg, log, appOptions{Infra: true})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Sycamore Status ===")
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if adapter, err := a.models.Current(); err != nil {
		fmt.Fprintf(out, "%-12s ❌ %v\n", "Model:", err)
	} else {
		info := adapter.Info()
		fmt.Fprintf(out, "%-12s ✅ %s %s (explainer: %v)\n", "Model:", info.Backend, info.Version, info.HasExplainer)
	}
	fmt.Fprintf(out, "%-12s ✅ %s %s\n", "Policy:", a.policy.Meta.PolicyID, a.policyHash[:12])

	if len(a.checks()) == 0 {
		fmt.Fprintf(out, "%-12s -  (redis/audit disabled)\n", "Infra:")
	}
	for name, check := range a.checks() {
		if err := check(ctx); err != nil {
			fmt.Fprintf(out, "%-12s ❌ %v\n", name+":", err)
			continue
		}
		fmt.Fprintf(out, "%-12s ✅ ok\n", name+":")
	}
	return nil
}
