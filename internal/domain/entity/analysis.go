package entity

import "fmt"

// Metrics сводные показатели одного измерения
type Metrics struct {
	AvgLeft   float64 `json:"avg_left"`
	AvgRight  float64 `json:"avg_right"`
	AvgTotal  float64 `json:"avg_total"`
	Asymmetry float64 `json:"asymmetry"`
	MaxTemp   float64 `json:"max_temp"`
	MinTemp   float64 `json:"min_temp"`
}

// AnomalyZone зона, заметно теплее среднего по измерению
type AnomalyZone struct {
	Zone      string  `json:"zone"`
	Title     string  `json:"title"`
	Deviation float64 `json:"deviation"`
}

// String форматирует зону для вывода пользователю
func (a AnomalyZone) String() string {
	return fmt.Sprintf("%s: +%.1f°C", a.Title, a.Deviation)
}

// Analysis итог работы движка анализа для одного набора показаний.
// Имена полей JSON используются историей и статистикой, менять их нельзя.
type Analysis struct {
	Metrics             Metrics       `json:"metrics"`
	RiskLevel           RiskLevel     `json:"risk_level"`
	AnomalyZones        []AnomalyZone `json:"anomaly_zones"`
	AnomalyDescriptions []string      `json:"anomaly_descriptions"`
	Conclusion          string        `json:"conclusion"`
}

// Способы получения температур из изображения
const (
	ExtractionColorMapping = "color-mapping"
	ExtractionSimulated    = "simulated"
)

// ExtractionMeta описывает, как были получены температуры из изображения
type ExtractionMeta struct {
	ZonesAnalyzed int    `json:"zones_analyzed"`
	Method        string `json:"method"`
	Error         string `json:"error,omitempty"`
}
