package quiz

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymap/internal/models"
)

func bank(n int) *Bank {
	qs := make([]models.QuizQuestion, n)
	for i := range qs {
		qs[i] = models.QuizQuestion{
			ID:       fmt.Sprintf("q%d", i),
			Question: fmt.Sprintf("Question %d?", i),
			Options:  []string{"yes", "no"},
			Answer:   "yes",
		}
	}
	return NewBank(qs)
}

func TestDrawDistinctWithoutAnswers(t *testing.T) {
	b := bank(10)

	set := b.Draw(4)
	require.Len(t, set.Questions, 4)
	assert.NotEmpty(t, set.ID)

	seen := map[string]bool{}
	for _, q := range set.Questions {
		assert.False(t, seen[q.ID], "duplicate %s", q.ID)
		seen[q.ID] = true
		assert.Empty(t, q.Answer)
	}
}

func TestDrawSizeBounds(t *testing.T) {
	b := bank(3)
	assert.Len(t, b.Draw(0).Questions, 3)
	assert.Len(t, b.Draw(50).Questions, 3)
	assert.Empty(t, NewBank(nil).Draw(5).Questions)
}

func TestScore(t *testing.T) {
	b := bank(3)

	res := b.Score("set-1", []models.QuizAnswer{
		{QuestionID: "q0", Answer: " YES "},
		{QuestionID: "q1", Answer: "no"},
		{QuestionID: "missing", Answer: "yes"},
	})
	assert.Equal(t, "set-1", res.SetID)
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 3, res.Total)
	assert.InDelta(t, 1.0/3, res.Score, 1e-9)
	assert.Equal(t, map[string]bool{"q0": true, "q1": false, "missing": false}, res.Details)
}

func TestNewBankSkipsDuplicates(t *testing.T) {
	b := NewBank([]models.QuizQuestion{{ID: "a"}, {ID: "a"}, {ID: ""}, {ID: "b"}})
	assert.Equal(t, 2, b.Len())
}
