package dedup

import (
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/cowpool/samepaged/internal/errors"
)

// Registry tracks which processes and ranges are monitored. It is pure
// bookkeeping: liveness checks and region discovery belong to the backend.
type Registry struct {
	mu       sync.Mutex
	pageSize uint64
	tasks    map[uint64]*Task
}

// NewRegistry creates an empty registry validating against pageSize.
func NewRegistry(pageSize uint64) *Registry {
	return &Registry{
		pageSize: pageSize,
		tasks:    make(map[uint64]*Task),
	}
}

// AddRegion registers an explicit range for a pid. The range must be
// page-aligned and non-empty, and may not overlap any range already held by
// the pid. A pid monitored whole-process rejects explicit ranges.
func (r *Registry) AddRegion(pid, start, end uint64) error {
	if end <= start || start%r.pageSize != 0 || end%r.pageSize != 0 {
		return apperrors.WithMetadata(apperrors.CodeInvalidRange,
			"range must be page-aligned and non-empty",
			rangeMetadata(pid, start, end))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	region := Region{Start: start, End: end}
	task := r.tasks[pid]
	if task != nil {
		if task.All {
			return apperrors.WithMetadata(apperrors.CodeAlreadyMonitored,
				"process is already monitored whole",
				rangeMetadata(pid, start, end))
		}
		for _, existing := range task.Regions {
			if existing.Overlaps(region) {
				return apperrors.WithMetadata(apperrors.CodeAlreadyMonitored,
					"range overlaps a monitored range",
					rangeMetadata(pid, start, end))
			}
		}
	} else {
		task = &Task{PID: pid}
		r.tasks[pid] = task
	}

	task.Regions = append(task.Regions, region)
	sort.Slice(task.Regions, func(i, j int) bool {
		return task.Regions[i].Start < task.Regions[j].Start
	})
	return nil
}

// AddAll registers a pid for whole-process monitoring. Any existing
// registration for the pid rejects the add.
func (r *Registry) AddAll(pid uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[pid]; ok {
		return apperrors.WithMetadata(apperrors.CodeAlreadyMonitored,
			"process is already monitored",
			map[string]string{"pid": fmt.Sprintf("%d", pid)})
	}
	r.tasks[pid] = &Task{PID: pid, All: true}
	return nil
}

// Remove drops a pid from the registry. Removing an unknown pid is a no-op;
// the return value reports whether anything was removed.
func (r *Registry) Remove(pid uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.tasks[pid]
	delete(r.tasks, pid)
	return ok
}

// MarkRemoved tombstones a task whose process vanished mid-pass. The task
// stops appearing in snapshots; the caller finalizes and deletes it before
// the pass completes.
func (r *Registry) MarkRemoved(pid uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task, ok := r.tasks[pid]; ok {
		task.State = TaskRemoved
	}
}

// Snapshot returns a deep copy of the active tasks, ordered by pid.
func (r *Registry) Snapshot() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if task.State != TaskActive {
			continue
		}
		copied := Task{PID: task.PID, All: task.All, State: task.State}
		copied.Regions = append([]Region(nil), task.Regions...)
		tasks = append(tasks, copied)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].PID < tasks[j].PID })
	return tasks
}

// Len reports the number of registered tasks, including tombstoned ones.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

func rangeMetadata(pid, start, end uint64) map[string]string {
	return map[string]string{
		"pid":   fmt.Sprintf("%d", pid),
		"start": fmt.Sprintf("0x%x", start),
		"end":   fmt.Sprintf("0x%x", end),
	}
}
