package papers

const (
	// DefaultOpenness applies to absent or unknown open/* labels.
	DefaultOpenness = 0.0
	// DefaultReproPenalty applies to absent or unknown repro/* labels.
	DefaultReproPenalty = 0.7
	// DefaultHeat applies to absent or unknown heat/* labels.
	DefaultHeat = 1
)

// LabelScore is one row of a score table.
type LabelScore struct {
	Label string
	Value float64
}

// Tables are kept in display order.
var opennessScores = []LabelScore{
	{Label: "open/full", Value: 1.0},
	{Label: "open/partial", Value: 0.4},
	{Label: "open/broken", Value: 0.2},
	{Label: "open/empty", Value: 0.1},
	{Label: "open/none", Value: 0.0},
}

var reproPenalties = []LabelScore{
	{Label: "repro/match", Value: 0.0},
	{Label: "repro/partial", Value: 0.4},
	{Label: "repro/mismatch", Value: 1.0},
	{Label: "repro/none", Value: 1.0},
	{Label: "repro/unknown", Value: 0.7},
}

var heatValues = map[string]int{
	"heat/1": 1,
	"heat/2": 2,
	"heat/3": 3,
}

// OpennessTable returns the openness score of every known open/* label.
func OpennessTable() []LabelScore {
	return append([]LabelScore(nil), opennessScores...)
}

// ReproPenaltyTable returns the penalty of every known repro/* label.
func ReproPenaltyTable() []LabelScore {
	return append([]LabelScore(nil), reproPenalties...)
}

// Scores is the derived score tuple of one entry.
type Scores struct {
	Openness     float64
	ReproPenalty float64
	Heat         int
	NonRepro     float64
	HeatWeighted float64
}

// Score maps the three status labels to numeric scores.
// Empty or unrecognized labels resolve to the package defaults.
func Score(openLabel, reproLabel, heatLabel string) Scores {
	openness := lookupScore(opennessScores, openLabel, DefaultOpenness)
	penalty := lookupScore(reproPenalties, reproLabel, DefaultReproPenalty)
	heat, ok := heatValues[heatLabel]
	if !ok {
		heat = DefaultHeat
	}

	nonRepro := (1 - openness) * penalty
	return Scores{
		Openness:     openness,
		ReproPenalty: penalty,
		Heat:         heat,
		NonRepro:     nonRepro,
		HeatWeighted: float64(heat) * nonRepro,
	}
}

func lookupScore(table []LabelScore, label string, fallback float64) float64 {
	for _, row := range table {
		if row.Label == label {
			return row.Value
		}
	}
	return fallback
}
