// Package app owns prepbuddy's state and runs every progress mutation
// through the reward and incentive pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/groups"
	"github.com/abhisek/prepbuddy/internal/incentives"
	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/plangen"
	"github.com/abhisek/prepbuddy/internal/progress"
	"github.com/abhisek/prepbuddy/internal/quiz"
	"github.com/abhisek/prepbuddy/internal/reminder"
	"github.com/abhisek/prepbuddy/internal/rewards"
	"github.com/abhisek/prepbuddy/internal/store"
	"github.com/abhisek/prepbuddy/internal/user"
)

var (
	// ErrNoGenerator is returned by GeneratePlan when no LLM is configured.
	ErrNoGenerator = errors.New("plan generation is not configured")
	ErrInvalidPlan = errors.New("plan title is required")
)

// Drafter produces plan drafts; *plangen.Generator satisfies it.
type Drafter interface {
	Generate(ctx context.Context, req plangen.Request) (progress.Draft, error)
}

// Options configures a Controller.
type Options struct {
	KV      store.KV
	Logger  *zap.Logger
	Clock   func() time.Time
	Drafter Drafter

	DateMode incentives.DateMode
	Epoch    time.Time
	Location *time.Location
}

// Controller is the single owner of plans, progress and incentives.
// Mutations are serialized.
type Controller struct {
	logger *zap.Logger
	now    func() time.Time

	plans        *progress.Repo
	quizzes      *quiz.Repo
	streaks      *incentives.Repo
	achievements *incentives.Engine
	calc         incentives.Calculator
	rewards      *rewards.Dispatcher
	users        *user.Service
	reminder     *reminder.Gate
	groups       *groups.Service
	drafter      Drafter

	mu sync.Mutex
}

// New wires a Controller over opts.KV and loads the persisted reward
// state.
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.KV == nil {
		return nil, errors.New("app: store is required")
	}
	logger := logging.OrNop(opts.Logger)
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	calc := incentives.NewCalculator(opts.DateMode)
	if !opts.Epoch.IsZero() {
		calc.Epoch = opts.Epoch
	}
	if opts.Location != nil {
		calc.Location = opts.Location
	}

	users := user.NewService(opts.KV, logger).WithClock(now)
	streaks := incentives.NewRepo(opts.KV, logger)
	c := &Controller{
		logger:       logger,
		now:          now,
		plans:        progress.NewRepo(opts.KV, logger),
		quizzes:      quiz.NewRepo(opts.KV, logger),
		streaks:      streaks,
		achievements: incentives.NewEngine(streaks),
		calc:         calc,
		rewards:      rewards.NewDispatcher(opts.KV, users, logger).WithClock(now),
		users:        users,
		reminder:     reminder.NewGate(opts.KV, logger).WithClock(now),
		groups:       groups.NewService(opts.KV, logger).WithClock(now),
		drafter:      opts.Drafter,
	}
	if err := c.rewards.Load(ctx); err != nil {
		return nil, fmt.Errorf("load rewards: %w", err)
	}
	return c, nil
}

// Users returns the session service.
func (c *Controller) Users() *user.Service { return c.users }

// Groups returns the study group service.
func (c *Controller) Groups() *groups.Service { return c.groups }

// Outcome reports what a mutation changed and what it earned.
type Outcome struct {
	Changed      bool                  `json:"changed"`
	Events       []rewards.Event       `json:"events,omitempty"`
	Awards       []rewards.Award       `json:"awards,omitempty"`
	Achievements []string              `json:"achievements,omitempty"`
	Celebrations []rewards.Celebration `json:"celebrations,omitempty"`
	Incentives   incentives.Data       `json:"incentives"`
}

func (o *Outcome) add(ev rewards.Event, a rewards.Award) {
	o.Events = append(o.Events, ev)
	o.Awards = append(o.Awards, a)
	o.Celebrations = append(o.Celebrations, a.Celebrations...)
}

// Plans returns every plan, newest first, with derived progress.
func (c *Controller) Plans(ctx context.Context) ([]progress.StudyPlan, error) {
	return c.loadPlans(ctx)
}

// Plan returns one plan.
func (c *Controller) Plan(ctx context.Context, id string) (progress.StudyPlan, error) {
	plans, err := c.loadPlans(ctx)
	if err != nil {
		return progress.StudyPlan{}, err
	}
	p, i := progress.Find(plans, id)
	if i < 0 {
		return progress.StudyPlan{}, &progress.NotFoundError{Kind: "plan", ID: id}
	}
	return p, nil
}

// CreatePlan stores a new plan from d and awards the creation bonus.
func (c *Controller) CreatePlan(ctx context.Context, d progress.Draft) (progress.StudyPlan, Outcome, error) {
	if strings.TrimSpace(d.Title) == "" {
		return progress.StudyPlan{}, Outcome{}, ErrInvalidPlan
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for i := range d.Files {
		if d.Files[i].ID == "" {
			d.Files[i].ID = uuid.NewString()
		}
		if d.Files[i].AddedAt.IsZero() {
			d.Files[i].AddedAt = now
		}
	}
	plan := progress.NewPlan(uuid.NewString(), d, now)

	plans, err := c.loadPlans(ctx)
	if err != nil {
		return progress.StudyPlan{}, Outcome{}, err
	}
	plans = append([]progress.StudyPlan{plan}, plans...)
	if err := c.plans.SavePlans(ctx, plans); err != nil {
		return progress.StudyPlan{}, Outcome{}, err
	}
	c.logger.Info("plan created", zap.String("plan_id", plan.ID), zap.Int("days", len(plan.Schedule)))

	out := Outcome{Changed: true}
	award, err := c.rewards.Dispatch(ctx, rewards.EventPlanCreated, 0)
	if err != nil {
		return plan, out, err
	}
	out.add(rewards.EventPlanCreated, award)
	if err := c.settle(ctx, plans, &out); err != nil {
		return plan, out, err
	}
	return plan, out, nil
}

// GeneratePlan drafts a plan with the configured generator and creates it.
func (c *Controller) GeneratePlan(ctx context.Context, req plangen.Request) (progress.StudyPlan, Outcome, error) {
	if c.drafter == nil {
		return progress.StudyPlan{}, Outcome{}, ErrNoGenerator
	}
	d, err := c.drafter.Generate(ctx, req)
	if err != nil {
		return progress.StudyPlan{}, Outcome{}, err
	}
	return c.CreatePlan(ctx, d)
}

// DeletePlan removes a plan and its per-plan progress data.
func (c *Controller) DeletePlan(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	plans, err := c.loadPlans(ctx)
	if err != nil {
		return err
	}
	if _, i := progress.Find(plans, id); i < 0 {
		return &progress.NotFoundError{Kind: "plan", ID: id}
	}
	plans = progress.Remove(plans, id)
	if err := c.plans.SavePlans(ctx, plans); err != nil {
		return err
	}
	if err := c.plans.DeletePlanData(ctx, id); err != nil {
		return err
	}
	c.logger.Info("plan deleted", zap.String("plan_id", id))

	var out Outcome
	return c.settle(ctx, plans, &out)
}

// AttachFile appends a file to a plan.
func (c *Controller) AttachFile(ctx context.Context, planID, name, content string) (progress.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	plans, err := c.loadPlans(ctx)
	if err != nil {
		return progress.File{}, err
	}
	plan, i := progress.Find(plans, planID)
	if i < 0 {
		return progress.File{}, &progress.NotFoundError{Kind: "plan", ID: planID}
	}
	f := progress.File{ID: uuid.NewString(), Name: name, Content: content, AddedAt: c.now()}
	plan.Files = append(append([]progress.File(nil), plan.Files...), f)
	if err := c.plans.SavePlans(ctx, progress.Replace(plans, plan)); err != nil {
		return progress.File{}, err
	}
	return f, nil
}

// SetTaskCompletion marks one task and fires the task, day and plan
// rewards the transition earned, then refreshes incentives.
func (c *Controller) SetTaskCompletion(ctx context.Context, planID string, dayIndex, taskIndex int, completed bool) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	plans, err := c.loadPlans(ctx)
	if err != nil {
		return Outcome{}, err
	}
	plan, i := progress.Find(plans, planID)
	if i < 0 {
		return Outcome{}, &progress.NotFoundError{Kind: "plan", ID: planID}
	}
	set, err := c.plans.CompletedSet(ctx, planID)
	if err != nil {
		return Outcome{}, err
	}

	tr, err := progress.SetTaskCompletion(plan, set, dayIndex, taskIndex, completed)
	if err != nil {
		return Outcome{}, err
	}
	var out Outcome
	if !tr.Changed {
		out.Incentives, err = c.snapshot(ctx, plans)
		return out, err
	}
	out.Changed = true

	key := progress.TaskKey(dayIndex, taskIndex)
	if err := c.plans.SaveCompletedSet(ctx, planID, tr.Set); err != nil {
		return out, err
	}
	if err := c.plans.RecordCompletion(ctx, planID, key, c.now(), completed); err != nil {
		return out, err
	}
	plans = progress.Replace(plans, tr.Plan)
	if err := c.plans.SavePlans(ctx, plans); err != nil {
		return out, err
	}

	events := make([]rewards.Event, 0, 3)
	if tr.TaskCompleted {
		events = append(events, rewards.EventTaskCompleted)
	}
	if tr.DayCompleted {
		events = append(events, rewards.EventDayCompleted)
	}
	if tr.PlanCompleted {
		events = append(events, rewards.EventPlanCompleted)
	}
	for _, ev := range events {
		award, err := c.rewards.Dispatch(ctx, ev, 0)
		if err != nil {
			return out, err
		}
		out.add(ev, award)
	}
	c.logger.Debug("task toggled",
		zap.String("plan_id", planID),
		zap.String("task", key),
		zap.Bool("completed", completed),
		zap.Int("events", len(events)))

	if err := c.settle(ctx, plans, &out); err != nil {
		return out, err
	}
	return out, nil
}

// SubmitQuiz grades a quiz of a plan, stores the result and awards quiz
// experience.
func (c *Controller) SubmitQuiz(ctx context.Context, planID, quizID string, answers []int) (quiz.Result, Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	plans, err := c.loadPlans(ctx)
	if err != nil {
		return quiz.Result{}, Outcome{}, err
	}
	plan, i := progress.Find(plans, planID)
	if i < 0 {
		return quiz.Result{}, Outcome{}, &progress.NotFoundError{Kind: "plan", ID: planID}
	}
	q, ok := findQuiz(plan, quizID)
	if !ok {
		return quiz.Result{}, Outcome{}, &progress.NotFoundError{Kind: "quiz", ID: quizID}
	}

	result, err := quiz.Grade(q, answers, c.now())
	if err != nil {
		return quiz.Result{}, Outcome{}, err
	}
	if err := c.quizzes.Save(ctx, planID, result); err != nil {
		return result, Outcome{}, err
	}

	ev := rewards.EventQuizFailed
	if result.Passed {
		ev = rewards.EventQuizPassed
	}
	out := Outcome{Changed: true}
	award, err := c.rewards.Dispatch(ctx, ev, result.Score)
	if err != nil {
		return result, out, err
	}
	out.add(ev, award)
	out.Incentives, err = c.snapshot(ctx, plans)
	return result, out, err
}

// Quiz returns a quiz of a plan by id.
func (c *Controller) Quiz(ctx context.Context, planID, quizID string) (quiz.Quiz, error) {
	plan, err := c.Plan(ctx, planID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	q, ok := findQuiz(plan, quizID)
	if !ok {
		return quiz.Quiz{}, &progress.NotFoundError{Kind: "quiz", ID: quizID}
	}
	return q, nil
}

func findQuiz(plan progress.StudyPlan, id string) (quiz.Quiz, bool) {
	for _, d := range plan.Schedule {
		if d.Quiz != nil && d.Quiz.ID == id {
			return *d.Quiz, true
		}
	}
	return quiz.Quiz{}, false
}

// CompletedSet returns the completed task keys of a plan.
func (c *Controller) CompletedSet(ctx context.Context, planID string) (progress.CompletedSet, error) {
	if _, err := c.Plan(ctx, planID); err != nil {
		return progress.CompletedSet{}, err
	}
	return c.plans.CompletedSet(ctx, planID)
}

// QuizResults returns the latest result per quiz id for a plan.
func (c *Controller) QuizResults(ctx context.Context, planID string) (map[string]quiz.Result, error) {
	return c.quizzes.Results(ctx, planID)
}

// Incentives recomputes the incentive snapshot.
func (c *Controller) Incentives(ctx context.Context) (incentives.Data, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	plans, err := c.loadPlans(ctx)
	if err != nil {
		return incentives.Data{}, err
	}
	return c.snapshot(ctx, plans)
}

// Celebration returns the pending celebration.
func (c *Controller) Celebration() (rewards.Celebration, bool) {
	return c.rewards.Pending()
}

// AcknowledgeCelebration clears the pending celebration.
func (c *Controller) AcknowledgeCelebration(ctx context.Context) error {
	return c.rewards.Clear(ctx)
}

// ReminderDue reports whether the evening study reminder should show.
func (c *Controller) ReminderDue(ctx context.Context) (bool, error) {
	data, err := c.Incentives(ctx)
	if err != nil {
		return false, err
	}
	return c.reminder.ShouldShow(ctx, data.HasStudiedToday)
}

// DismissReminder hides the reminder until tomorrow.
func (c *Controller) DismissReminder(ctx context.Context) error {
	return c.reminder.Dismiss(ctx)
}

// loadPlans reads plans and rederives their progress from the stored
// completed sets.
func (c *Controller) loadPlans(ctx context.Context) ([]progress.StudyPlan, error) {
	plans, err := c.plans.Plans(ctx)
	if err != nil {
		return nil, err
	}
	for i, p := range plans {
		set, err := c.plans.CompletedSet(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		plans[i] = progress.Recompute(p, set)
	}
	return plans, nil
}
