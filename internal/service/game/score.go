package game

import "sort"

type Standing struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Standings 是终局排名。Winners 是所有并列最高分的玩家，
// 长度大于 1 即为平局。
type Standings struct {
	Ranking []Standing `json:"ranking"`
	Winners []Standing `json:"winners"`
}

func (s Standings) IsDraw() bool {
	return len(s.Winners) > 1
}

// ComputeStandings orders players by score, highest first. Players with equal
// scores keep their seat order.
func ComputeStandings(players []*Player) Standings {
	ranking := make([]Standing, 0, len(players))
	for _, p := range players {
		ranking = append(ranking, Standing{ID: p.ID, Name: p.Name, Score: p.Score})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})

	winners := make([]Standing, 0, 1)
	for _, s := range ranking {
		if s.Score != ranking[0].Score {
			break
		}
		winners = append(winners, s)
	}

	return Standings{
		Ranking: ranking,
		Winners: winners,
	}
}
