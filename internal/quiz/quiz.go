// Package quiz draws random question sets from the static bank and
// scores submitted answers.
package quiz

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"storymap/internal/models"
)

const DefaultSetSize = 5

type Bank struct {
	questions []models.QuizQuestion
	byID      map[string]models.QuizQuestion
}

func NewBank(questions []models.QuizQuestion) *Bank {
	b := &Bank{byID: make(map[string]models.QuizQuestion, len(questions))}
	for _, q := range questions {
		if q.ID == "" {
			continue
		}
		if _, dup := b.byID[q.ID]; dup {
			continue
		}
		b.byID[q.ID] = q
		b.questions = append(b.questions, q)
	}
	return b
}

func (b *Bank) Len() int { return len(b.questions) }

// Draw returns n distinct questions in random order with answers removed.
// n <= 0 means DefaultSetSize; n is capped at the bank size.
func (b *Bank) Draw(n int) models.QuizSet {
	if n <= 0 {
		n = DefaultSetSize
	}
	n = min(n, len(b.questions))
	set := models.QuizSet{ID: uuid.NewString(), Questions: make([]models.QuizQuestion, 0, n)}
	for _, i := range rand.Perm(len(b.questions))[:n] {
		q := b.questions[i]
		q.Answer = ""
		set.Questions = append(set.Questions, q)
	}
	return set
}

// Score checks answers against the bank. Answers are compared ignoring
// case and surrounding space; unknown question IDs count as wrong.
func (b *Bank) Score(setID string, answers []models.QuizAnswer) models.QuizResult {
	res := models.QuizResult{SetID: setID, Total: len(answers), Details: make(map[string]bool, len(answers))}
	for _, a := range answers {
		q, ok := b.byID[a.QuestionID]
		correct := ok && strings.EqualFold(strings.TrimSpace(a.Answer), strings.TrimSpace(q.Answer))
		res.Details[a.QuestionID] = correct
		if correct {
			res.Correct++
		}
	}
	if res.Total > 0 {
		res.Score = float64(res.Correct) / float64(res.Total)
	}
	return res
}
