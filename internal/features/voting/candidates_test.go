package voting

import (
	"testing"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
)

func TestLeadersKeepsAllTied(t *testing.T) {
	wins := []selection.WinCount{{UserID: 7, Wins: 4}, {UserID: 3, Wins: 4}, {UserID: 5, Wins: 1}}
	assert.Equal(t, []int64{3, 7}, Leaders(wins))
	assert.T(t, Leaders(nil) == nil)
}

func TestPickCandidates(t *testing.T) {
	var roster []*players.Player
	for id := int64(1); id <= 12; id++ {
		roster = append(roster, &players.Player{UserID: id})
	}
	wins := []selection.WinCount{{UserID: 12, Wins: 9}, {UserID: 4, Wins: 2}, {UserID: 8, Wins: 2}}

	got := PickCandidates(roster, wins, []int64{12})
	assert.Equal(t, maxPollOptions, len(got))
	assert.Equal(t, Candidate{Position: 0, UserID: 4, Wins: 2}, got[0])
	assert.Equal(t, Candidate{Position: 1, UserID: 8, Wins: 2}, got[1])
	assert.Equal(t, Candidate{Position: 2, UserID: 1, Wins: 0}, got[2])
	for _, c := range got {
		assert.T(t, c.UserID != 12, "лидер исключён")
	}
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "01.01.2025, 01.02.2025", FormatDays(2025, []int{1, 32}))
}
