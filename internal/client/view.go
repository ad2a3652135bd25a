package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/minsu-kang/taskhub-api/internal/model"
)

// DefaultDebounce is how long filter changes are coalesced before a list
// request goes out. Typing in a search box produces one request per pause,
// not one per keystroke.
const DefaultDebounce = 500 * time.Millisecond

const defaultViewPageSize = 10

// ViewState describes what a renderer should show.
type ViewState string

const (
	// StateIdle: no load has been started yet.
	StateIdle ViewState = "idle"
	// StateLoading: a list request is in flight.
	StateLoading ViewState = "loading"
	// StateLoaded: the snapshot reflects the latest server response.
	StateLoaded ViewState = "loaded"
	// StateErrored: the last request failed; the previous page is retained.
	StateErrored ViewState = "errored"
	// StateLoggedOut: the server rejected the credential; terminal.
	StateLoggedOut ViewState = "logged-out"
)

// Filters are the user-facing list constraints. Empty or "all" values mean
// unfiltered.
type Filters struct {
	Search   string
	Priority string
	Status   string
}

// Snapshot is a consistent copy of the view for rendering.
type Snapshot struct {
	State       ViewState
	Error       string
	Tasks       []model.Task
	CurrentPage int
	TotalPages  int
	TotalTasks  int
	Filters     Filters
}

// TaskView keeps one page of tasks in sync with the server. Filter changes
// are debounced and reset to page 1; page changes and refreshes fetch
// immediately. Every mutation goes to the server first and is then folded
// into the local page, so totals stay correct without a refetch. Responses
// carry a sequence number and only the newest request may publish, which
// keeps a slow early response from overwriting a fast later one.
type TaskView struct {
	api      TaskAPI
	pageSize int

	mu       sync.Mutex
	debounce time.Duration
	timer    *time.Timer
	seq      uint64
	closed   bool

	state   ViewState
	lastErr string
	filters Filters
	page    int

	tasks       []model.Task
	currentPage int
	totalPages  int
	totalTasks  int
}

// NewTaskView creates an idle view over the given API. Nothing is fetched
// until Refresh, SetPage, or SetFilters is called.
func NewTaskView(api TaskAPI) *TaskView {
	return &TaskView{
		api:        api,
		pageSize:   defaultViewPageSize,
		debounce:   DefaultDebounce,
		state:      StateIdle,
		page:       1,
		totalPages: 1,
	}
}

// SetDebounceInterval overrides the filter debounce window. Mainly useful
// in tests; d must be positive.
func (v *TaskView) SetDebounceInterval(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d > 0 {
		v.debounce = d
	}
}

// Snapshot returns a copy of the current view state. The task slice is
// cloned so renderers can hold it across later mutations.
func (v *TaskView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	tasks := make([]model.Task, len(v.tasks))
	copy(tasks, v.tasks)

	return Snapshot{
		State:       v.state,
		Error:       v.lastErr,
		Tasks:       tasks,
		CurrentPage: v.currentPage,
		TotalPages:  v.totalPages,
		TotalTasks:  v.totalTasks,
		Filters:     v.filters,
	}
}

// Refresh fetches the current page immediately, bypassing the debounce.
func (v *TaskView) Refresh(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.stopTimerLocked()
	v.mu.Unlock()

	v.fetch(ctx)
}

// SetFilters replaces the filter set and schedules a fetch of page 1 after
// the debounce window. A second call within the window replaces the pending
// fetch, so only the final filter state hits the server.
func (v *TaskView) SetFilters(ctx context.Context, f Filters) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}

	v.filters = f
	v.page = 1
	v.stopTimerLocked()
	v.timer = time.AfterFunc(v.debounce, func() {
		v.fetch(ctx)
	})
}

// SetPage jumps to the given page under the current filters and fetches
// immediately. Pages below 1 are clamped to 1; a page past the end comes
// back empty from the server rather than failing.
func (v *TaskView) SetPage(ctx context.Context, page int) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	if page < 1 {
		page = 1
	}
	v.page = page
	v.stopTimerLocked()
	v.mu.Unlock()

	v.fetch(ctx)
}

// Close cancels any pending debounced fetch and makes the view inert.
// In-flight responses are dropped.
func (v *TaskView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.stopTimerLocked()
}

func (v *TaskView) stopTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

// fetch issues a list request tagged with the next sequence number. Only
// the response matching the latest sequence is published; anything older
// lost the race to a newer request and is discarded.
func (v *TaskView) fetch(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.seq++
	seq := v.seq
	v.state = StateLoading
	opts := ListOptions{
		Page:     v.page,
		Limit:    v.pageSize,
		Search:   v.filters.Search,
		Priority: v.filters.Priority,
		Status:   v.filters.Status,
	}
	v.mu.Unlock()

	result, err := v.api.ListTasks(ctx, opts)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || seq != v.seq {
		return
	}

	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			v.becomeLoggedOutLocked()
			return
		}
		// Keep the last good page visible alongside the error.
		v.state = StateErrored
		v.lastErr = err.Error()
		return
	}

	v.state = StateLoaded
	v.lastErr = ""
	v.tasks = result.Tasks
	v.currentPage = result.CurrentPage
	v.totalPages = result.TotalPages
	v.totalTasks = result.TotalTasks
}

func (v *TaskView) becomeLoggedOutLocked() {
	v.state = StateLoggedOut
	v.lastErr = ""
	v.tasks = nil
	v.stopTimerLocked()
}

// CreateTask creates a task and folds it into the current page: it appears
// at the top (matching the newest-first ordering) and the totals are bumped
// without a refetch.
func (v *TaskView) CreateTask(ctx context.Context, input CreateTaskInput) (model.Task, error) {
	task, err := v.api.CreateTask(ctx, input)
	if err != nil {
		v.noteMutationError(err)
		return model.Task{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return task, nil
	}

	v.tasks = append([]model.Task{task}, v.tasks...)
	if len(v.tasks) > v.pageSize {
		v.tasks = v.tasks[:v.pageSize]
	}
	v.totalTasks++
	v.totalPages = model.TotalPages(v.totalTasks, v.pageSize)
	return task, nil
}

// UpdateTask applies a partial update and replaces the task in place if it
// is on the current page.
func (v *TaskView) UpdateTask(ctx context.Context, taskID string, input UpdateTaskInput) (model.Task, error) {
	task, err := v.api.UpdateTask(ctx, taskID, input)
	if err != nil {
		v.noteMutationError(err)
		return model.Task{}, err
	}

	v.replaceTask(task)
	return task, nil
}

// SetTaskStatus changes only the status, replacing the task in place.
func (v *TaskView) SetTaskStatus(ctx context.Context, taskID, status string) (model.Task, error) {
	task, err := v.api.UpdateTaskStatus(ctx, taskID, status)
	if err != nil {
		v.noteMutationError(err)
		return model.Task{}, err
	}

	v.replaceTask(task)
	return task, nil
}

// DeleteTask removes the task server-side, then drops it from the page and
// decrements the totals.
func (v *TaskView) DeleteTask(ctx context.Context, taskID string) error {
	if err := v.api.DeleteTask(ctx, taskID); err != nil {
		v.noteMutationError(err)
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}

	for i, t := range v.tasks {
		if t.ID == taskID {
			v.tasks = append(v.tasks[:i], v.tasks[i+1:]...)
			break
		}
	}
	if v.totalTasks > 0 {
		v.totalTasks--
	}
	v.totalPages = model.TotalPages(v.totalTasks, v.pageSize)
	return nil
}

func (v *TaskView) replaceTask(task model.Task) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, t := range v.tasks {
		if t.ID == task.ID {
			v.tasks[i] = task
			return
		}
	}
}

// noteMutationError flips the view to logged-out on auth failures. Other
// mutation errors are reported to the caller but leave the list state
// alone: the page is still valid.
func (v *TaskView) noteMutationError(err error) {
	if !errors.Is(err, ErrUnauthorized) {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.becomeLoggedOutLocked()
}
