package leaderboard

import "github.com/openlah/leaderboard/internal/papers"

// Board describes one leaderboard variant.
type Board struct {
	Name        string
	Filename    string
	Title       string
	Description string
	// Less reports whether a ranks below b.
	Less func(a, b papers.Entry) bool
}

// Boards returns the published leaderboard variants in generation order.
func Boards() []Board {
	return []Board{
		{
			Name:        "nonrepro",
			Filename:    "leaderboard_nonrepro.md",
			Title:       "📈 NonRepro Leaderboard / 不可复现排行榜",
			Description: "按不可复现分数 (NonReproScore) 排序，分数越高表示开源/复现状况越差",
			Less:        byNonRepro,
		},
		{
			Name:        "heatweighted",
			Filename:    "leaderboard_heatweighted.md",
			Title:       "🔥 HeatWeighted Leaderboard / 热度加权排行榜",
			Description: "按热度加权分数 (HeatWeightedScore) 排序，高热度但难复现的论文排名更高",
			Less:        byHeatWeighted,
		},
		{
			Name:        "recent",
			Filename:    "leaderboard_recent.md",
			Title:       "🕐 Recent Leaderboard / 最近更新排行榜",
			Description: "按最近更新时间排序，展示最新的跟踪记录",
			Less:        byUpdated,
		},
	}
}

func byNonRepro(a, b papers.Entry) bool {
	if a.NonRepro != b.NonRepro {
		return a.NonRepro < b.NonRepro
	}
	return a.Heat < b.Heat
}

func byHeatWeighted(a, b papers.Entry) bool {
	if a.HeatWeighted != b.HeatWeighted {
		return a.HeatWeighted < b.HeatWeighted
	}
	return a.Heat < b.Heat
}

// byUpdated compares the raw ISO 8601 strings, which order chronologically for a single API.
func byUpdated(a, b papers.Entry) bool {
	return a.UpdatedAt < b.UpdatedAt
}
