// Package groups manages local study groups and mirrors each member's
// progress through the group's shared plan.
package groups

import (
	"slices"
	"sort"
	"time"

	"github.com/abhisek/prepbuddy/internal/progress"
)

// Role is a member's role in a group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Group is a study group with an optional shared plan.
type Group struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Description    string                    `json:"description"`
	Topic          string                    `json:"topic"`
	Difficulty     string                    `json:"difficulty"`
	AdminID        string                    `json:"adminId"`
	AdminName      string                    `json:"adminName"`
	IsPublic       bool                      `json:"isPublic"`
	CreatedAt      time.Time                 `json:"createdAt"`
	LastActivity   time.Time                 `json:"lastActivity"`
	Members        []Member                  `json:"members"`
	Files          []File                    `json:"files"`
	StudyPlan      *progress.StudyPlan       `json:"studyPlan,omitempty"`
	MemberProgress map[string]MemberProgress `json:"memberProgress"`
}

// Member belongs to a group.
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	Avatar   string    `json:"avatar"`
	JoinedAt time.Time `json:"joinedAt"`
	IsActive bool      `json:"isActive"`
}

// File is a document shared with the group.
type File struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy"`
	Content    string    `json:"content"`
}

// MemberProgress tracks one member through the shared plan. CompletedTasks
// is derived from CompletedTaskIDs.
type MemberProgress struct {
	CompletedTasks   int       `json:"completedTasks"`
	TotalTasks       int       `json:"totalTasks"`
	LastActive       time.Time `json:"lastActive"`
	CompletedTaskIDs []string  `json:"completedTaskIds"`
}

// Ratio returns completed over total tasks in [0, 1].
func (p MemberProgress) Ratio() float64 {
	if p.TotalTasks == 0 {
		return 0
	}
	return float64(p.CompletedTasks) / float64(p.TotalTasks)
}

// IsAdmin reports whether userID administers g.
func (g Group) IsAdmin(userID string) bool {
	if g.AdminID == userID {
		return true
	}
	for _, m := range g.Members {
		if m.ID == userID && m.Role == RoleAdmin {
			return true
		}
	}
	return false
}

// Member returns the member with id.
func (g Group) Member(id string) (Member, bool) {
	for _, m := range g.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

func freshProgress(totalTasks int, now time.Time) MemberProgress {
	return MemberProgress{TotalTasks: totalTasks, LastActive: now, CompletedTaskIDs: []string{}}
}

// setTask returns p with taskID marked completed or not. Re-marking is a
// no-op apart from refreshing LastActive.
func setTask(p MemberProgress, taskID string, completed bool, now time.Time) MemberProgress {
	ids := slices.Clone(p.CompletedTaskIDs)
	has := slices.Contains(ids, taskID)
	switch {
	case completed && !has:
		ids = append(ids, taskID)
	case !completed && has:
		ids = slices.DeleteFunc(ids, func(id string) bool { return id == taskID })
	}
	if ids == nil {
		ids = []string{}
	}
	p.CompletedTaskIDs = ids
	p.CompletedTasks = len(ids)
	p.LastActive = now
	return p
}

// syncFiles copies group files missing from the plan into plan.Files.
func syncFiles(g *Group) {
	if g.StudyPlan == nil {
		return
	}
	plan := *g.StudyPlan
	files := slices.Clone(plan.Files)
	for _, f := range g.Files {
		exists := slices.ContainsFunc(files, func(pf progress.File) bool { return pf.ID == f.ID })
		if !exists {
			files = append(files, progress.File{ID: f.ID, Name: f.Name, Content: f.Content, AddedAt: f.UploadedAt})
		}
	}
	plan.Files = files
	g.StudyPlan = &plan
}

// Standing is one row of a group leaderboard.
type Standing struct {
	Member   Member
	Progress MemberProgress
}

// Leaderboard orders members by completed tasks, then most recent
// activity, then name.
func Leaderboard(g Group) []Standing {
	out := make([]Standing, 0, len(g.Members))
	for _, m := range g.Members {
		out = append(out, Standing{Member: m, Progress: g.MemberProgress[m.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Progress, out[j].Progress
		if a.CompletedTasks != b.CompletedTasks {
			return a.CompletedTasks > b.CompletedTasks
		}
		if !a.LastActive.Equal(b.LastActive) {
			return a.LastActive.After(b.LastActive)
		}
		return out[i].Member.Name < out[j].Member.Name
	})
	return out
}
