package explain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Labeler maps raw feature names to display labels
type Labeler struct {
	table map[string]string
}

// NewLabeler uses table first, then humanizes the raw name
func NewLabeler(table map[string]string) *Labeler {
	return &Labeler{table: table}
}

// Label returns the display label: avg_bill_amt → "Avg Bill Amt"
func (l *Labeler) Label(name string) string {
	if label, ok := l.table[name]; ok && label != "" {
		return label
	}
	// Caser는 상태를 가지므로 호출마다 새로 생성 (고루틴 간 공유 금지)
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
