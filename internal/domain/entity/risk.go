package entity

import "fmt"

// RiskLevel уровень риска. Значения упорядочены: NORMAL < ELEVATED < HIGH.
type RiskLevel int

const (
	RiskNormal RiskLevel = iota
	RiskElevated
	RiskHigh
)

var riskNames = map[RiskLevel]string{
	RiskNormal:   "NORMAL",
	RiskElevated: "ELEVATED",
	RiskHigh:     "HIGH",
}

// String возвращает имя уровня в верхнем регистре
func (l RiskLevel) String() string {
	if name, ok := riskNames[l]; ok {
		return name
	}
	return fmt.Sprintf("RiskLevel(%d)", int(l))
}

// Emoji возвращает значок уровня для сообщений
func (l RiskLevel) Emoji() string {
	switch l {
	case RiskNormal:
		return "✅"
	case RiskElevated:
		return "⚠️"
	case RiskHigh:
		return "🔴"
	}
	return "❓"
}

// ParseRiskLevel разбирает имя уровня
func ParseRiskLevel(s string) (RiskLevel, error) {
	for level, name := range riskNames {
		if name == s {
			return level, nil
		}
	}
	return RiskNormal, fmt.Errorf("unknown risk level %q", s)
}

func (l RiskLevel) MarshalText() ([]byte, error) {
	if _, ok := riskNames[l]; !ok {
		return nil, fmt.Errorf("unknown risk level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *RiskLevel) UnmarshalText(text []byte) error {
	level, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}
