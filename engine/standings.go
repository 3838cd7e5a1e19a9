package engine

import (
	"sort"

	"github.com/alessisheinman/Disk-Jockey/room"
	"github.com/samber/lo"
)

// finalStandings orders players for the game-over screen: the winner,
// then remaining non-eliminated players, then eliminated players with the
// longest-surviving first. Pace breaks ties throughout. Caller holds the
// room lock.
func finalStandings(r *room.Room, winnerID string) []PlayerStanding {
	players := r.PlayersInOrder()

	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]

		if (a.ID == winnerID) != (b.ID == winnerID) {
			return a.ID == winnerID
		}
		if a.IsEliminated != b.IsEliminated {
			return !a.IsEliminated
		}
		if a.IsEliminated && a.EliminatedRound != b.EliminatedRound {
			return a.EliminatedRound > b.EliminatedRound
		}
		return a.Pace > b.Pace
	})

	return lo.Map(players, func(p *room.Player, _ int) PlayerStanding {
		return PlayerStanding{PlayerID: p.ID, Nickname: p.Nickname, Pace: p.Pace}
	})
}
