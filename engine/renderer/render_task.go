package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
)

// RenderTask is work that needs the render goroutine, such as baking an environment map for an
// asset loaded elsewhere.
type RenderTask struct {
	// Name identifies the task in logs.
	Name string
	// Run does the work.
	Run func(r Renderer) error
	// Done, when set, receives Run's result.
	Done func(err error)
}

func (r *renderer) AddRenderTask(task RenderTask) {
	if task.Run == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
}

func (r *renderer) FlushRenderTasks() int {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()

	for _, t := range tasks {
		err := t.Run(r)
		if err != nil {
			logger.Logger().Error("render task failed", "task", t.Name, "error", err)
		}
		if t.Done != nil {
			t.Done(err)
		}
	}
	return len(tasks)
}

func (r *renderer) PendingRenderTasks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
