package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/progress"
	"github.com/abhisek/prepbuddy/internal/store"
	"github.com/abhisek/prepbuddy/internal/user"
)

var (
	ErrNoPlan          = errors.New("group has no study plan")
	ErrDuplicateMember = errors.New("member already in group")
)

// NewGroup is the input for Create.
type NewGroup struct {
	Name        string
	Description string
	Topic       string
	Difficulty  string
	IsPublic    bool
}

// Upload is a file to share with a group.
type Upload struct {
	Name    string
	Type    string
	Size    int64
	Content string
}

// Service stores groups under study-groups.
type Service struct {
	kv     store.KV
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewService creates a Service over kv.
func NewService(kv store.KV, logger *zap.Logger) *Service {
	return &Service{kv: kv, logger: logging.OrNop(logger), now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns all groups.
func (s *Service) List(ctx context.Context) ([]Group, error) {
	return s.load(ctx)
}

// Get returns the group with id.
func (s *Service) Get(ctx context.Context, id string) (Group, error) {
	groups, err := s.load(ctx)
	if err != nil {
		return Group{}, err
	}
	i := indexOf(groups, id)
	if i < 0 {
		return Group{}, &progress.NotFoundError{Kind: "group", ID: id}
	}
	return groups[i], nil
}

// Create makes a group with creator as its admin and only member.
func (s *Service) Create(ctx context.Context, creator user.User, in NewGroup) (Group, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Group{}, errors.New("group name is required")
	}
	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = "intermediate"
	}
	now := s.now()
	name := displayName(creator)

	g := Group{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Description:  in.Description,
		Topic:        in.Topic,
		Difficulty:   difficulty,
		AdminID:      creator.ID,
		AdminName:    name,
		IsPublic:     in.IsPublic,
		CreatedAt:    now,
		LastActivity: now,
		Members: []Member{{
			ID:       creator.ID,
			Name:     name,
			Email:    creator.Email,
			Role:     RoleAdmin,
			Avatar:   creator.Avatar,
			JoinedAt: now,
			IsActive: true,
		}},
		Files:          []File{},
		MemberProgress: map[string]MemberProgress{},
	}

	err := s.update(ctx, func(groups []Group) ([]Group, error) {
		return append(groups, g), nil
	})
	if err != nil {
		return Group{}, err
	}
	s.logger.Info("group created", zap.String("group_id", g.ID), zap.String("admin_id", creator.ID))
	return g, nil
}

// AddMember invites email into the group. When the group already has a
// plan the member's progress starts at zero.
func (s *Service) AddMember(ctx context.Context, groupID, email string) (Member, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return Member{}, fmt.Errorf("%w: %q", user.ErrInvalidEmail, email)
	}

	now := s.now()
	m := Member{
		ID:       uuid.NewString(),
		Name:     user.NameFromEmail(email),
		Email:    email,
		Role:     RoleMember,
		JoinedAt: now,
		IsActive: true,
	}
	err := s.modify(ctx, groupID, func(g *Group) error {
		for _, existing := range g.Members {
			if strings.EqualFold(existing.Email, email) {
				return fmt.Errorf("%w: %s", ErrDuplicateMember, email)
			}
		}
		g.Members = append(g.Members, m)
		if g.StudyPlan != nil {
			g.MemberProgress[m.ID] = freshProgress(progress.TotalTasks(g.StudyPlan.Schedule), now)
		}
		g.LastActivity = now
		return nil
	})
	if err != nil {
		return Member{}, err
	}
	return m, nil
}

// AssignPlan sets the group's plan and restarts every member's progress.
func (s *Service) AssignPlan(ctx context.Context, groupID string, plan progress.StudyPlan) (Group, error) {
	now := s.now()
	var out Group
	err := s.modify(ctx, groupID, func(g *Group) error {
		p := plan
		g.StudyPlan = &p
		total := progress.TotalTasks(p.Schedule)
		g.MemberProgress = make(map[string]MemberProgress, len(g.Members))
		for _, m := range g.Members {
			g.MemberProgress[m.ID] = freshProgress(total, now)
		}
		syncFiles(g)
		g.LastActivity = now
		out = *g
		return nil
	})
	return out, err
}

// SetMemberTaskCompletion marks a plan task for one member. taskID uses the
// "<dayIndex>-<taskIndex>" form.
func (s *Service) SetMemberTaskCompletion(ctx context.Context, groupID, memberID, taskID string, completed bool) (MemberProgress, error) {
	now := s.now()
	var out MemberProgress
	err := s.modify(ctx, groupID, func(g *Group) error {
		if g.StudyPlan == nil {
			return ErrNoPlan
		}
		if err := checkTask(*g.StudyPlan, taskID); err != nil {
			return err
		}
		mp, ok := g.MemberProgress[memberID]
		if !ok {
			return &progress.NotFoundError{Kind: "member", ID: memberID}
		}
		out = setTask(mp, taskID, completed, now)
		g.MemberProgress[memberID] = out
		g.LastActivity = now
		return nil
	})
	return out, err
}

// IsTaskCompleted reports whether memberID completed taskID.
func (s *Service) IsTaskCompleted(ctx context.Context, groupID, memberID, taskID string) (bool, error) {
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return false, err
	}
	mp, ok := g.MemberProgress[memberID]
	if !ok {
		return false, nil
	}
	for _, id := range mp.CompletedTaskIDs {
		if id == taskID {
			return true, nil
		}
	}
	return false, nil
}

// UploadFile validates and shares a file, mirroring it into the plan.
func (s *Service) UploadFile(ctx context.Context, groupID string, uploader user.User, up Upload) (File, error) {
	if err := ValidateFile(up.Name, up.Type, up.Size); err != nil {
		return File{}, err
	}
	now := s.now()
	f := File{
		ID:         uuid.NewString(),
		Name:       up.Name,
		Size:       up.Size,
		Type:       up.Type,
		UploadedAt: now,
		UploadedBy: displayName(uploader),
		Content:    up.Content,
	}
	err := s.modify(ctx, groupID, func(g *Group) error {
		g.Files = append(g.Files, f)
		syncFiles(g)
		g.LastActivity = now
		return nil
	})
	if err != nil {
		return File{}, err
	}
	return f, nil
}

func (s *Service) modify(ctx context.Context, groupID string, fn func(*Group) error) error {
	return s.update(ctx, func(groups []Group) ([]Group, error) {
		i := indexOf(groups, groupID)
		if i < 0 {
			return nil, &progress.NotFoundError{Kind: "group", ID: groupID}
		}
		g := groups[i]
		if g.MemberProgress == nil {
			g.MemberProgress = map[string]MemberProgress{}
		} else {
			mp := make(map[string]MemberProgress, len(g.MemberProgress))
			for k, v := range g.MemberProgress {
				mp[k] = v
			}
			g.MemberProgress = mp
		}
		if err := fn(&g); err != nil {
			return nil, err
		}
		out := append([]Group(nil), groups...)
		out[i] = g
		return out, nil
	})
}

func (s *Service) update(ctx context.Context, fn func([]Group) ([]Group, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.load(ctx)
	if err != nil {
		return err
	}
	groups, err = fn(groups)
	if err != nil {
		return err
	}
	if err := store.WriteJSON(ctx, s.kv, store.KeyStudyGroups, groups); err != nil {
		return fmt.Errorf("save groups: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context) ([]Group, error) {
	groups := []Group{}
	_, err := store.ReadJSON(ctx, s.kv, store.KeyStudyGroups, &groups)
	if errors.Is(err, store.ErrMalformed) {
		s.logger.Warn("discarding malformed study groups", zap.Error(err))
		return []Group{}, nil
	}
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func checkTask(plan progress.StudyPlan, taskID string) error {
	d, t, err := progress.ParseTaskKey(taskID)
	if err != nil || d >= len(plan.Schedule) || t >= len(plan.Schedule[d].Tasks) {
		return &progress.NotFoundError{Kind: "task", ID: taskID}
	}
	return nil
}

func indexOf(groups []Group, id string) int {
	for i, g := range groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func displayName(u user.User) string {
	if u.Name != "" {
		return u.Name
	}
	return user.NameFromEmail(u.Email)
}
