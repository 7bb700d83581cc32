package tally

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ballots(indexes ...int) []Ballot {
	out := make([]Ballot, 0, len(indexes))
	for i, idx := range indexes {
		out = append(out, Ballot{UserID: string(rune('a' + i)), OptionIndex: idx})
	}
	return out
}

func TestComputeTieGoesToFirstOption(t *testing.T) {
	res := Compute([]string{"A", "B"}, ballots(0, 1, 0, 1), "")

	require.NotNil(t, res.Winner)
	assert.Equal(t, 0, res.Winner.Index)
	assert.Equal(t, "A", res.Winner.Text)
	assert.Equal(t, []int{2, 2}, res.Counts)
	assert.Equal(t, []int{50, 50}, res.Percentages)
}

func TestComputeWinnerByCount(t *testing.T) {
	idx := make([]int, 0, 13)
	for i := 0; i < 10; i++ {
		idx = append(idx, 0)
	}
	idx = append(idx, 1, 1, 1)

	res := Compute([]string{"A", "B"}, ballots(idx...), "")

	require.NotNil(t, res.Winner)
	assert.Equal(t, 0, res.Winner.Index)
	assert.Equal(t, 10, res.Winner.Count)
	assert.Equal(t, 13, res.Total)
	assert.Equal(t, []int{77, 23}, res.Percentages)
}

func TestComputeLaterOptionCanWin(t *testing.T) {
	res := Compute([]string{"A", "B", "C"}, ballots(2, 1, 2), "")

	require.NotNil(t, res.Winner)
	assert.Equal(t, 2, res.Winner.Index)
	assert.Equal(t, "C", res.Winner.Text)
	assert.Equal(t, 67, res.Winner.Percentage)
}

func TestComputeNoBallots(t *testing.T) {
	res := Compute([]string{"Yes", "No"}, nil, "u1")

	assert.Nil(t, res.Winner)
	assert.Nil(t, res.UserVote)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, []int{0, 0}, res.Counts)
	assert.Equal(t, []int{0, 0}, res.Percentages)
}

func TestComputeCountsSumToTotal(t *testing.T) {
	sets := [][]int{
		{0},
		{0, 1, 2},
		{0, 0, 1, 2, 2, 2, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 0},
	}
	for _, set := range sets {
		res := Compute([]string{"A", "B", "C"}, ballots(set...), "")

		sumCounts, sumPct := 0, 0
		for i := range res.Counts {
			sumCounts += res.Counts[i]
			sumPct += res.Percentages[i]
		}
		assert.Equal(t, res.Total, sumCounts)
		assert.InDelta(t, 100, sumPct, 2)
	}
}

func TestComputeIgnoresOutOfRangeBallots(t *testing.T) {
	res := Compute([]string{"A", "B"}, ballots(0, 5, -1, 1, 1), "")

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []int{1, 2}, res.Counts)
	assert.Equal(t, 1, res.Winner.Index)
}

func TestComputeUserVoteCountedOnce(t *testing.T) {
	in := []Ballot{
		{UserID: "viewer", OptionIndex: 1},
		{UserID: "other", OptionIndex: 0},
		{UserID: "third", OptionIndex: 1},
	}

	res := Compute([]string{"A", "B"}, in, "viewer")

	require.NotNil(t, res.UserVote)
	assert.Equal(t, 1, *res.UserVote)
	assert.Equal(t, []int{1, 2}, res.Counts)
	assert.Equal(t, 3, res.Total)
}

func TestComputeAnonymousViewerHasNoUserVote(t *testing.T) {
	in := []Ballot{{UserID: "", OptionIndex: 0}}

	res := Compute([]string{"A"}, in, "")

	assert.Nil(t, res.UserVote)
	assert.Equal(t, 1, res.Total)
}
