package features

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/sycamore/backend/internal/contracts"
)

// ParseRecord interprets a flat field mapping as a RawApplicantRecord.
// LIMIT_BAL, demographics and PAY_* status codes are required; bill and payment
// columns are optional. Derived feature keys are kept as caller-supplied values.
func ParseRecord(fields map[string]any) (contracts.RawApplicantRecord, error) {
	var rec contracts.RawApplicantRecord

	if fields == nil {
		return rec, contracts.NewValidationError("record", "record is empty")
	}

	// 필수 필드 누락은 한 번에 모아서 보고
	required := append([]string{
		contracts.FieldLimitBal, contracts.FieldAge, contracts.FieldSex,
		contracts.FieldEducation, contracts.FieldMarriage,
	}, contracts.PayStatusFields[:]...)

	var missing []string
	for _, name := range required {
		if v, ok := fields[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return rec, contracts.NewValidationError("record", "missing required fields: "+strings.Join(missing, ", "))
	}

	var err error
	if rec.LimitBal, err = requireFloat(fields, contracts.FieldLimitBal); err != nil {
		return rec, err
	}
	if rec.Age, err = requireInt(fields, contracts.FieldAge); err != nil {
		return rec, err
	}
	if rec.Sex, err = requireInt(fields, contracts.FieldSex); err != nil {
		return rec, err
	}
	if rec.Education, err = requireInt(fields, contracts.FieldEducation); err != nil {
		return rec, err
	}
	if rec.Marriage, err = requireInt(fields, contracts.FieldMarriage); err != nil {
		return rec, err
	}

	for i, name := range contracts.PayStatusFields {
		if rec.PayStatus[i], err = requireInt(fields, name); err != nil {
			return rec, err
		}
	}

	for i, name := range contracts.BillAmountFields {
		if rec.BillAmt[i], err = optionalFloat(fields, name); err != nil {
			return rec, err
		}
	}
	for i, name := range contracts.PayAmountFields {
		if rec.PayAmt[i], err = optionalFloat(fields, name); err != nil {
			return rec, err
		}
	}

	for _, name := range contracts.DerivedFeatureNames {
		v, err := optionalFloat(fields, name)
		if err != nil {
			return rec, err
		}
		if v == nil {
			continue
		}
		if isCountFeature(name) {
			if err := checkInt(name, *v); err != nil {
				return rec, err
			}
		}
		if rec.Precomputed == nil {
			rec.Precomputed = make(map[string]float64)
		}
		rec.Precomputed[name] = *v
	}

	return rec, nil
}

func requireFloat(fields map[string]any, name string) (float64, error) {
	f, ok := contracts.ToFloat64(fields[name])
	if !ok {
		return 0, contracts.NewValidationError(name, fmt.Sprintf("must be a number, got %v", fields[name]))
	}
	return f, nil
}

func requireInt(fields map[string]any, name string) (int, error) {
	f, err := requireFloat(fields, name)
	if err != nil {
		return 0, err
	}
	if err := checkInt(name, f); err != nil {
		return 0, err
	}
	return int(f), nil
}

// checkInt rejects fractional values and anything outside the int32 range
func checkInt(name string, f float64) error {
	if f != math.Trunc(f) {
		return contracts.NewValidationError(name, fmt.Sprintf("must be an integer, got %v", f))
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return contracts.NewValidationError(name, fmt.Sprintf("integer out of range, got %v", f))
	}
	return nil
}

// 카운트 피처는 헬스 평가에서 int로 쓰이므로 정수만 허용
func isCountFeature(name string) bool {
	return name == contracts.FeatureLatePaymentCount || name == contracts.FeatureSevereDelinquency
}

// optionalFloat returns nil when the field is absent or null
func optionalFloat(fields map[string]any, name string) (*float64, error) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return nil, nil
	}
	f, ok := contracts.ToFloat64(raw)
	if !ok {
		return nil, contracts.NewValidationError(name, fmt.Sprintf("must be a number, got %v", raw))
	}
	return &f, nil
}
