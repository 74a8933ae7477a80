package features

import (
	"math"

	"github.com/wonny/sycamore/backend/internal/contracts"
)

// Clipping bounds for ratio features
const (
	MaxCreditUtilization  = 1.5
	MaxPaymentConsistency = 2.0

	// SevereDelinquencyMonths: 3개월 이상 연체 시 심각 연체로 분류
	SevereDelinquencyMonths = 3
)

// Engine computes derived features from raw applicant records
// ⭐ SSOT: 파생 변수 계산은 여기서만 (순수 함수, 상태 없음)
type Engine struct{}

// NewEngine creates a new feature engine
func NewEngine() *Engine {
	return &Engine{}
}

// Compute derives the statistical features of one record.
// Missing bill/payment columns default the affected features to 0.
func (e *Engine) Compute(raw contracts.RawApplicantRecord) contracts.DerivedFeatureSet {
	bills := raw.BillAmounts()
	payments := raw.PayAmounts()

	avgBill := mean(bills)
	avgPay := mean(payments)

	late, severe := delinquency(raw.PayStatus)

	return contracts.DerivedFeatureSet{
		AvgBillAmt:         avgBill,
		AvgPayAmt:          avgPay,
		CreditUtilization:  creditUtilization(avgBill, raw.LimitBal),
		PaymentConsistency: paymentConsistency(bills, payments),
		LatePaymentCount:   late,
		SevereDelinquency:  severe,
		CashflowVolatility: sampleStdDev(bills),
	}
}

// creditUtilization = avg bill / max(limit, 1), clipped to [0, 1.5]
func creditUtilization(avgBill, limit float64) float64 {
	return clip(avgBill/math.Max(limit, 1), 0, MaxCreditUtilization)
}

// paymentConsistency = Σpayments / max(Σbills, 1), clipped to [0, 2].
// 청구 내역이 전혀 없으면 0
func paymentConsistency(bills, payments []float64) float64 {
	if len(bills) == 0 {
		return 0
	}
	return clip(sum(payments)/math.Max(sum(bills), 1), 0, MaxPaymentConsistency)
}

// delinquency returns the number of late months and the severe delinquency flag
func delinquency(status [contracts.HistoryMonths]int) (int, int) {
	late := 0
	severe := 0
	for _, s := range status {
		if s > 0 {
			late++
		}
		if s >= SevereDelinquencyMonths {
			severe = 1
		}
	}
	return late, severe
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// sampleStdDev uses the n-1 denominator; fewer than two values gives 0
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)
	sq := 0.0
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
