package store

import (
	"cmp"
	"slices"
	"strings"

	"github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/MHC32/momentum/internal/models"
)

// DefaultSearchThreshold is the minimum fuzzy score for a title to match.
const DefaultSearchThreshold = 60

type scoredTask struct {
	task  models.Task
	score int
}

// Search returns the tasks whose title or code resembles query, best match
// first. Titles containing the query verbatim always match.
func (s *TaskStore) Search(query string, threshold int) []models.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultSearchThreshold
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []scoredTask
	for _, task := range s.tasks {
		title := strings.ToLower(task.Title)
		score := fuzzy.Ratio(query, title)
		if strings.Contains(title, query) || strings.EqualFold(task.Code, query) {
			score = 100
		}
		if score >= threshold {
			matches = append(matches, scoredTask{task: task.Clone(), score: score})
		}
	}

	slices.SortStableFunc(matches, func(a, b scoredTask) int {
		return cmp.Compare(b.score, a.score)
	})

	out := make([]models.Task, len(matches))
	for i, m := range matches {
		out[i] = m.task
	}
	return out
}
