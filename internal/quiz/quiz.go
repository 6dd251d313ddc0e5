// Package quiz grades day quizzes and records their results.
package quiz

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultPassingScore is used when a quiz does not carry its own.
const DefaultPassingScore = 70

// Quiz is a multiple-choice quiz attached to a study day.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Questions    []Question `json:"questions"`
	PassingScore int        `json:"passingScore"`
}

// Question is a single multiple-choice question. CorrectAnswer indexes
// into Options.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Result is the recorded outcome of one quiz attempt.
type Result struct {
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	Answers     []int     `json:"answers"`
	CompletedAt time.Time `json:"completedAt"`
	Passed      bool      `json:"passed"`
}

// Unanswered marks a question the learner skipped.
const Unanswered = -1

var (
	ErrNoQuestions    = errors.New("quiz has no questions")
	ErrAnswerMismatch = errors.New("answer count does not match question count")
)

// Validate checks the quiz is gradable.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return ErrNoQuestions
	}
	for i, qq := range q.Questions {
		if len(qq.Options) < 2 {
			return fmt.Errorf("question %d: need at least 2 options", i+1)
		}
		if qq.CorrectAnswer < 0 || qq.CorrectAnswer >= len(qq.Options) {
			return fmt.Errorf("question %d: correct answer %d out of range", i+1, qq.CorrectAnswer)
		}
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return fmt.Errorf("passing score %d out of range", q.PassingScore)
	}
	return nil
}

// EffectivePassingScore returns the quiz's passing score, or the default
// when unset.
func (q Quiz) EffectivePassingScore() int {
	if q.PassingScore == 0 {
		return DefaultPassingScore
	}
	return q.PassingScore
}

// Grade scores answers against the quiz. Score is the rounded percentage of
// correct answers; the attempt passes when score >= the passing score.
func Grade(q Quiz, answers []int, now time.Time) (Result, error) {
	if len(q.Questions) == 0 {
		return Result{}, ErrNoQuestions
	}
	if len(answers) != len(q.Questions) {
		return Result{}, fmt.Errorf("%w: %d answers for %d questions",
			ErrAnswerMismatch, len(answers), len(q.Questions))
	}

	correct := 0
	for i, qq := range q.Questions {
		if answers[i] == qq.CorrectAnswer {
			correct++
		}
	}

	score := int(math.Round(float64(correct) / float64(len(q.Questions)) * 100))
	recorded := make([]int, len(answers))
	copy(recorded, answers)

	return Result{
		QuizID:      q.ID,
		Score:       score,
		Answers:     recorded,
		CompletedAt: now,
		Passed:      score >= q.EffectivePassingScore(),
	}, nil
}

// Review pairs each question with the learner's answer for display after
// grading.
type Review struct {
	Question Question
	Answer   int
	Correct  bool
}

// ReviewAnswers builds the per-question review for a graded attempt.
func ReviewAnswers(q Quiz, r Result) []Review {
	out := make([]Review, 0, len(q.Questions))
	for i, qq := range q.Questions {
		ans := Unanswered
		if i < len(r.Answers) {
			ans = r.Answers[i]
		}
		out = append(out, Review{Question: qq, Answer: ans, Correct: ans == qq.CorrectAnswer})
	}
	return out
}
