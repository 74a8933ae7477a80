package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sycamore/backend/internal/contracts"
)

func newTestCmd(stdin string) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	return cmd, &out
}

func TestReadRecord(t *testing.T) {
	record, err := readRecord("-", strings.NewReader(`{"LIMIT_BAL": 20000, "SEX": "2"}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("20000"), record["LIMIT_BAL"])
	assert.Equal(t, "2", record["SEX"])

	_, err = readRecord("-", strings.NewReader(`null`))
	assert.Error(t, err)

	_, err = readRecord("-", strings.NewReader(`[1, 2]`))
	assert.Error(t, err)

	_, err = readRecord(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestPolicyValidate(t *testing.T) {
	cmd, out := newTestCmd("")

	validateFile = filepath.Join("..", "..", "..", "internal", "policy", "testdata", "policy.yaml")
	require.NoError(t, runPolicyValidate(cmd, nil))
	assert.Contains(t, out.String(), "is valid")
	assert.Contains(t, out.String(), "Hash")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("risk_tiers:\n  low_max_pd: 0.9\n  medium_max_pd: 0.1\n"), 0o644))
	validateFile = bad
	assert.Error(t, runPolicyValidate(cmd, nil))

	unknown := filepath.Join(t.TempDir(), "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("risk_tierz: {}\n"), 0o644))
	validateFile = unknown
	assert.Error(t, runPolicyValidate(cmd, nil))
}

func TestAdvise(t *testing.T) {
	t.Setenv("POLICY_PATH", "")
	policyFile = ""

	cmd, out := newTestCmd("")
	adviseScore, adviseAge = 80, 40
	require.NoError(t, runAdvise(cmd, nil))

	var profile contracts.InvestmentProfile
	require.NoError(t, json.Unmarshal(out.Bytes(), &profile))
	assert.Equal(t, contracts.RiskToleranceModerate, profile.RiskTolerance)
	assert.Equal(t, 100, profile.AllocationTotal())
	assert.Equal(t, 20, profile.InvestmentHorizon)

	adviseScore = 101
	assert.Error(t, runAdvise(cmd, nil))
}

func TestHealth(t *testing.T) {
	t.Setenv("POLICY_PATH", "")
	policyFile = ""
	inputPath = "-"

	record := `{"LIMIT_BAL": 50000, "SEX": 1, "EDUCATION": 2, "MARRIAGE": 1, "AGE": 35,
		"PAY_0": 0, "PAY_2": 0, "PAY_3": 0, "PAY_4": 0, "PAY_5": 0, "PAY_6": 0,
		"BILL_AMT1": 1000, "BILL_AMT2": 1000, "BILL_AMT3": 1000,
		"BILL_AMT4": 1000, "BILL_AMT5": 1000, "BILL_AMT6": 1000,
		"PAY_AMT1": 1000, "PAY_AMT2": 1000, "PAY_AMT3": 1000,
		"PAY_AMT4": 1000, "PAY_AMT5": 1000, "PAY_AMT6": 1000}`
	cmd, out := newTestCmd(record)
	require.NoError(t, runHealth(cmd, nil))

	var res contracts.FinancialHealthResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, contracts.HealthBandStrong, res.HealthBand)

	cmd, _ = newTestCmd(`{"LIMIT_BAL": "lots"}`)
	assert.Error(t, runHealth(cmd, nil))
}

func TestScore_WithModelArtifact(t *testing.T) {
	t.Setenv("POLICY_PATH", "")
	t.Setenv("MODEL_BACKEND", "file")
	t.Setenv("MODEL_PATH", filepath.Join("..", "..", "..", "internal", "model", "testdata", "credit_xgb.json"))
	t.Setenv("EXPLAINER_PATH", filepath.Join("..", "..", "..", "internal", "model", "testdata", "explainer_tree.json"))
	policyFile = ""
	inputPath = "-"

	record := `{"LIMIT_BAL": 20000, "SEX": 2, "EDUCATION": 2, "MARRIAGE": 1, "AGE": 24,
		"PAY_0": 2, "PAY_2": 2, "PAY_3": -1, "PAY_4": -1, "PAY_5": -2, "PAY_6": -2,
		"BILL_AMT1": 3913, "BILL_AMT2": 3102, "BILL_AMT3": 689,
		"BILL_AMT4": 0, "BILL_AMT5": 0, "BILL_AMT6": 0,
		"PAY_AMT1": 0, "PAY_AMT2": 689, "PAY_AMT3": 0,
		"PAY_AMT4": 0, "PAY_AMT5": 0, "PAY_AMT6": 0}`
	cmd, out := newTestCmd(record)
	require.NoError(t, runScore(cmd, nil))

	var res contracts.ScoringResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.GreaterOrEqual(t, res.ProbabilityOfDefault, 0.0)
	assert.LessOrEqual(t, res.ProbabilityOfDefault, 1.0)
	assert.NotEmpty(t, res.RiskTier)
	assert.NotEmpty(t, res.ModelVersion)
}

func TestScore_NoModel(t *testing.T) {
	t.Setenv("POLICY_PATH", "")
	t.Setenv("MODEL_BACKEND", "file")
	t.Setenv("MODEL_PATH", filepath.Join(t.TempDir(), "missing.json"))
	policyFile = ""
	inputPath = "-"

	cmd, _ := newTestCmd(`{"LIMIT_BAL": 20000, "SEX": 2, "EDUCATION": 2, "MARRIAGE": 1, "AGE": 24,
		"PAY_0": 0, "PAY_2": 0, "PAY_3": 0, "PAY_4": 0, "PAY_5": 0, "PAY_6": 0}`)
	err := runScore(cmd, nil)
	require.Error(t, err)
	assert.True(t, contracts.IsModelUnavailable(err))
}
