// Package plangen drafts study plans with a language model.
package plangen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/prepbuddy/internal/llm"
	"github.com/abhisek/prepbuddy/internal/progress"
	"github.com/abhisek/prepbuddy/internal/quiz"
)

// Material is a document to base the plan on.
type Material struct {
	Name    string
	Content string
}

// Request describes the plan to draft.
type Request struct {
	Topic       string
	Difficulty  string
	Days        int
	HoursPerDay float64
	Goals       []string
	Material    []Material
}

// Config tunes generation.
type Config struct {
	MaxTokens        int
	Temperature      float64
	MaxMaterialChars int
	MaxDays          int
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:        8192,
		Temperature:      0.4,
		MaxMaterialChars: 24_000,
		MaxDays:          60,
	}
}

var ErrBadRequest = errors.New("invalid plan request")

// Generator drafts plans through an llm.Provider.
type Generator struct {
	provider llm.Provider
	cfg      Config
}

// New creates a Generator.
func New(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, cfg: cfg}
}

type planOutput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Topics      []string    `json:"topics"`
	Schedule    []dayOutput `json:"schedule"`
}

type dayOutput struct {
	Title         string           `json:"title"`
	Tasks         []string         `json:"tasks"`
	EstimatedTime string           `json:"estimated_time"`
	Quiz          []questionOutput `json:"quiz"`
}

type questionOutput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Generate drafts a plan for req. The draft carries req.Material as plan
// files so the learner keeps the source next to the schedule.
func (g *Generator) Generate(ctx context.Context, req Request) (progress.Draft, error) {
	if err := g.check(&req); err != nil {
		return progress.Draft{}, err
	}
	ctx = llm.WithOperation(ctx, "plan-generate")

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(req, g.cfg)}},
		Schema:      StudyPlanSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return progress.Draft{}, fmt.Errorf("generate plan: %w", err)
	}

	var out planOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return progress.Draft{}, fmt.Errorf("decode plan: %w", err)
	}
	if len(out.Schedule) == 0 {
		return progress.Draft{}, &llm.InvalidResponseError{Content: resp.Content, Err: errors.New("plan has no days")}
	}
	return toDraft(req, out), nil
}

func (g *Generator) check(req *Request) error {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrBadRequest)
	}
	if req.Days < 1 || (g.cfg.MaxDays > 0 && req.Days > g.cfg.MaxDays) {
		return fmt.Errorf("%w: days must be between 1 and %d", ErrBadRequest, g.cfg.MaxDays)
	}
	if req.Difficulty == "" {
		req.Difficulty = "intermediate"
	}
	return nil
}

func toDraft(req Request, out planOutput) progress.Draft {
	title := out.Title
	if title == "" {
		title = req.Topic
	}
	d := progress.Draft{
		Title:       title,
		Description: out.Description,
		Duration:    duration(len(out.Schedule)),
		Difficulty:  req.Difficulty,
		Topics:      out.Topics,
	}
	for i, day := range out.Schedule {
		pd := progress.Day{
			Day:           i + 1,
			Title:         day.Title,
			Tasks:         cleanTasks(day.Tasks),
			EstimatedTime: day.EstimatedTime,
		}
		pd.Quiz = toQuiz(i+1, day)
		d.Schedule = append(d.Schedule, pd)
	}
	for _, m := range req.Material {
		d.Files = append(d.Files, progress.File{Name: m.Name, Content: m.Content})
	}
	return d
}

// toQuiz keeps only gradable questions; a day without any gets no quiz.
func toQuiz(dayNum int, day dayOutput) *quiz.Quiz {
	q := quiz.Quiz{
		ID:           "day-" + strconv.Itoa(dayNum) + "-quiz",
		Title:        "Day " + strconv.Itoa(dayNum) + " review",
		PassingScore: quiz.DefaultPassingScore,
	}
	for _, qo := range day.Quiz {
		if len(qo.Options) < 2 || qo.CorrectAnswer < 0 || qo.CorrectAnswer >= len(qo.Options) {
			continue
		}
		q.Questions = append(q.Questions, quiz.Question{
			ID:            q.ID + "-q" + strconv.Itoa(len(q.Questions)+1),
			Question:      qo.Question,
			Options:       qo.Options,
			CorrectAnswer: qo.CorrectAnswer,
			Explanation:   qo.Explanation,
		})
	}
	if len(q.Questions) == 0 {
		return nil
	}
	return &q
}

func cleanTasks(tasks []string) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func duration(days int) string {
	if days == 1 {
		return "1 day"
	}
	return strconv.Itoa(days) + " days"
}
