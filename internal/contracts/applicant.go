package contracts

// Raw field names (UCI "default of credit card clients" 컬럼명 그대로)
const (
	FieldLimitBal  = "LIMIT_BAL"
	FieldAge       = "AGE"
	FieldSex       = "SEX"
	FieldEducation = "EDUCATION"
	FieldMarriage  = "MARRIAGE"
)

// Derived feature names
const (
	FeatureAvgBillAmt         = "avg_bill_amt"
	FeatureAvgPayAmt          = "avg_pay_amt"
	FeatureCreditUtilization  = "credit_utilization"
	FeaturePaymentConsistency = "payment_consistency"
	FeatureLatePaymentCount   = "late_payment_count"
	FeatureSevereDelinquency  = "severe_delinquency"
	FeatureCashflowVolatility = "cashflow_volatility"
)

// Months of history carried by a record
const HistoryMonths = 6

// PayStatusFields are the repayment-status columns, most recent first.
// The dataset skips PAY_1.
var PayStatusFields = [HistoryMonths]string{"PAY_0", "PAY_2", "PAY_3", "PAY_4", "PAY_5", "PAY_6"}

// BillAmountFields are the bill statement columns, most recent first
var BillAmountFields = [HistoryMonths]string{"BILL_AMT1", "BILL_AMT2", "BILL_AMT3", "BILL_AMT4", "BILL_AMT5", "BILL_AMT6"}

// PayAmountFields are the payment columns, most recent first
var PayAmountFields = [HistoryMonths]string{"PAY_AMT1", "PAY_AMT2", "PAY_AMT3", "PAY_AMT4", "PAY_AMT5", "PAY_AMT6"}

// DerivedFeatureNames lists derived features in vector order
var DerivedFeatureNames = []string{
	FeatureAvgBillAmt,
	FeatureAvgPayAmt,
	FeatureCreditUtilization,
	FeaturePaymentConsistency,
	FeatureLatePaymentCount,
	FeatureSevereDelinquency,
	FeatureCashflowVolatility,
}

// ExpectedFeatures is the canonical feature order the classifier was trained on
// ⭐ SSOT: 모델 입력 순서는 여기서만 정의 (학습 시 순서와 반드시 일치)
var ExpectedFeatures = []string{
	FieldLimitBal, FieldAge, FieldSex, FieldEducation, FieldMarriage,
	"PAY_0", "PAY_2", "PAY_3", "PAY_4", "PAY_5", "PAY_6",
	FeatureAvgBillAmt, FeatureAvgPayAmt, FeatureCreditUtilization,
	FeaturePaymentConsistency, FeatureLatePaymentCount,
	FeatureSevereDelinquency, FeatureCashflowVolatility,
}

// IsDerivedFeature reports whether name is one of the derived features
func IsDerivedFeature(name string) bool {
	for _, n := range DerivedFeatureNames {
		if n == name {
			return true
		}
	}
	return false
}

// RawApplicantRecord is one applicant's raw financial history.
// Bill and payment amounts are optional per month; nil means the column was absent.
type RawApplicantRecord struct {
	LimitBal  float64 `json:"LIMIT_BAL"`
	Age       int     `json:"AGE"`
	Sex       int     `json:"SEX"`
	Education int     `json:"EDUCATION"`
	Marriage  int     `json:"MARRIAGE"`

	PayStatus [HistoryMonths]int      `json:"-"`
	BillAmt   [HistoryMonths]*float64 `json:"-"`
	PayAmt    [HistoryMonths]*float64 `json:"-"`

	// Precomputed holds derived features supplied by the caller.
	// 호출자가 넘긴 파생 변수는 재계산 값으로 덮어쓰지 않음
	Precomputed map[string]float64 `json:"-"`
}

// BillAmounts returns the present bill amounts in month order
func (r RawApplicantRecord) BillAmounts() []float64 {
	return present(r.BillAmt)
}

// PayAmounts returns the present payment amounts in month order
func (r RawApplicantRecord) PayAmounts() []float64 {
	return present(r.PayAmt)
}

func present(values [HistoryMonths]*float64) []float64 {
	out := make([]float64, 0, HistoryMonths)
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// DerivedFeatureSet holds features computed from a RawApplicantRecord
type DerivedFeatureSet struct {
	AvgBillAmt         float64 `json:"avg_bill_amt"`
	AvgPayAmt          float64 `json:"avg_pay_amt"`
	CreditUtilization  float64 `json:"credit_utilization"`  // [0, 1.5]
	PaymentConsistency float64 `json:"payment_consistency"` // [0, 2]
	LatePaymentCount   int     `json:"late_payment_count"`
	SevereDelinquency  int     `json:"severe_delinquency"` // 0 or 1
	CashflowVolatility float64 `json:"cashflow_volatility"`
}

// AsMap returns the derived features keyed by feature name
func (d DerivedFeatureSet) AsMap() map[string]float64 {
	return map[string]float64{
		FeatureAvgBillAmt:         d.AvgBillAmt,
		FeatureAvgPayAmt:          d.AvgPayAmt,
		FeatureCreditUtilization:  d.CreditUtilization,
		FeaturePaymentConsistency: d.PaymentConsistency,
		FeatureLatePaymentCount:   float64(d.LatePaymentCount),
		FeatureSevereDelinquency:  float64(d.SevereDelinquency),
		FeatureCashflowVolatility: d.CashflowVolatility,
	}
}
