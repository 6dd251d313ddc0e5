package progress

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TaskKey is the composite key "<dayIndex>-<taskIndex>" identifying a task
// within a plan. Both indexes are zero-based.
func TaskKey(dayIndex, taskIndex int) string {
	return strconv.Itoa(dayIndex) + "-" + strconv.Itoa(taskIndex)
}

// ParseTaskKey splits a composite key into its indexes.
func ParseTaskKey(key string) (dayIndex, taskIndex int, err error) {
	d, t, ok := strings.Cut(key, "-")
	if !ok {
		return 0, 0, fmt.Errorf("task key %q: missing separator", key)
	}
	dayIndex, err = strconv.Atoi(d)
	if err != nil || dayIndex < 0 {
		return 0, 0, fmt.Errorf("task key %q: bad day index", key)
	}
	taskIndex, err = strconv.Atoi(t)
	if err != nil || taskIndex < 0 {
		return 0, 0, fmt.Errorf("task key %q: bad task index", key)
	}
	return dayIndex, taskIndex, nil
}

// CompletedSet is the per-plan set of completed task keys. It keeps
// insertion order, which the streak calculator uses as the ordinal
// position of each completion. Serialized as a JSON array.
type CompletedSet struct {
	keys  []string
	index map[string]int
}

// NewCompletedSet returns a set holding keys, in order, without duplicates.
func NewCompletedSet(keys ...string) CompletedSet {
	s := CompletedSet{index: make(map[string]int, len(keys))}
	for _, k := range keys {
		s = s.with(k)
	}
	return s
}

// Has reports whether key is in the set.
func (s CompletedSet) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Len returns the number of keys.
func (s CompletedSet) Len() int { return len(s.keys) }

// Keys returns the keys in insertion order.
func (s CompletedSet) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Add returns a set that includes key. ok is false when key was already
// present, in which case s is returned unchanged.
func (s CompletedSet) Add(key string) (CompletedSet, bool) {
	if s.Has(key) {
		return s, false
	}
	return s.clone().with(key), true
}

// Remove returns a set without key. ok is false when key was absent.
func (s CompletedSet) Remove(key string) (CompletedSet, bool) {
	if !s.Has(key) {
		return s, false
	}
	out := CompletedSet{index: make(map[string]int, len(s.keys))}
	for _, k := range s.keys {
		if k != key {
			out = out.with(k)
		}
	}
	return out, true
}

// CountDay returns how many keys belong to dayIndex.
func (s CompletedSet) CountDay(dayIndex int) int {
	n := 0
	for _, k := range s.keys {
		if d, _, err := ParseTaskKey(k); err == nil && d == dayIndex {
			n++
		}
	}
	return n
}

// Prune returns a set holding only keys that address a task in schedule.
// Unparseable keys are dropped too.
func (s CompletedSet) Prune(schedule []Day) CompletedSet {
	out := CompletedSet{index: make(map[string]int, len(s.keys))}
	for _, k := range s.keys {
		d, t, err := ParseTaskKey(k)
		if err != nil || d >= len(schedule) || t >= len(schedule[d].Tasks) {
			continue
		}
		out = out.with(k)
	}
	return out
}

func (s CompletedSet) MarshalJSON() ([]byte, error) {
	if s.keys == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.keys)
}

func (s *CompletedSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewCompletedSet(keys...)
	return nil
}

func (s CompletedSet) clone() CompletedSet {
	out := CompletedSet{
		keys:  append([]string(nil), s.keys...),
		index: make(map[string]int, len(s.keys)+1),
	}
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}

// with appends key in place. Callers own s.
func (s CompletedSet) with(key string) CompletedSet {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[key]; ok {
		return s
	}
	s.index[key] = len(s.keys)
	s.keys = append(s.keys, key)
	return s
}
