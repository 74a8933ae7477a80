package features

import (
	"github.com/wonny/sycamore/backend/internal/contracts"
)

// Vector merges raw fields and derived features into the model input mapping.
// Caller-supplied precomputed values take precedence over computed ones.
func Vector(raw contracts.RawApplicantRecord, derived contracts.DerivedFeatureSet) map[string]float64 {
	vec := map[string]float64{
		contracts.FieldLimitBal:  raw.LimitBal,
		contracts.FieldAge:       float64(raw.Age),
		contracts.FieldSex:       float64(raw.Sex),
		contracts.FieldEducation: float64(raw.Education),
		contracts.FieldMarriage:  float64(raw.Marriage),
	}

	for i, name := range contracts.PayStatusFields {
		vec[name] = float64(raw.PayStatus[i])
	}

	for name, v := range derived.AsMap() {
		vec[name] = v
	}

	for name, v := range raw.Precomputed {
		if contracts.IsDerivedFeature(name) {
			vec[name] = v
		}
	}

	return vec
}

// Effective returns the derived features the pipeline actually uses:
// computed values overlaid with any caller-supplied ones
func Effective(raw contracts.RawApplicantRecord, derived contracts.DerivedFeatureSet) contracts.DerivedFeatureSet {
	if len(raw.Precomputed) == 0 {
		return derived
	}

	out := derived
	for name, v := range raw.Precomputed {
		switch name {
		case contracts.FeatureAvgBillAmt:
			out.AvgBillAmt = v
		case contracts.FeatureAvgPayAmt:
			out.AvgPayAmt = v
		case contracts.FeatureCreditUtilization:
			out.CreditUtilization = v
		case contracts.FeaturePaymentConsistency:
			out.PaymentConsistency = v
		case contracts.FeatureLatePaymentCount:
			out.LatePaymentCount = int(v)
		case contracts.FeatureSevereDelinquency:
			out.SevereDelinquency = int(v)
		case contracts.FeatureCashflowVolatility:
			out.CashflowVolatility = v
		}
	}
	return out
}

// ToAny converts a float vector to the generic mapping accepted by the model adapter
func ToAny(vec map[string]float64) map[string]any {
	out := make(map[string]any, len(vec))
	for k, v := range vec {
		out[k] = v
	}
	return out
}
