package tally

import "math"

// Ballot is one voter's choice in a content vote.
type Ballot struct {
	UserID      string
	OptionIndex int
}

type Winner struct {
	Index      int    `json:"index"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
	Text       string `json:"text"`
}

type Result struct {
	Counts      []int   `json:"counts"`
	Percentages []int   `json:"percentages"`
	Total       int     `json:"total"`
	Winner      *Winner `json:"winner,omitempty"`
	UserVote    *int    `json:"user_vote,omitempty"`
}

// Compute reduces ballots to per-option counts and percentages.
//
// Ballots pointing outside the option list are ignored. The winner is the
// option with the highest raw count, ties going to the lowest index; there is
// no winner while no ballots have been cast. When viewerID is set, the
// viewer's own choice is reported in UserVote.
func Compute(options []string, ballots []Ballot, viewerID string) Result {
	res := Result{
		Counts:      make([]int, len(options)),
		Percentages: make([]int, len(options)),
	}

	for _, b := range ballots {
		if b.OptionIndex < 0 || b.OptionIndex >= len(options) {
			continue
		}
		res.Counts[b.OptionIndex]++
		res.Total++
		if viewerID != "" && b.UserID == viewerID && res.UserVote == nil {
			idx := b.OptionIndex
			res.UserVote = &idx
		}
	}

	if res.Total == 0 {
		return res
	}

	best := 0
	for i, count := range res.Counts {
		res.Percentages[i] = int(math.Round(float64(count) / float64(res.Total) * 100))
		if count > res.Counts[best] {
			best = i
		}
	}
	res.Winner = &Winner{
		Index:      best,
		Count:      res.Counts[best],
		Percentage: res.Percentages[best],
		Text:       options[best],
	}
	return res
}
