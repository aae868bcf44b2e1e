package renderjob

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
)

// ParallelChunkSize is the number of jobs classified by one pool task.
const ParallelChunkSize = 256

// CullRenderJobsParallel is CullRenderJobs with the frustum tests split into chunks run on pool.
// Each task writes its verdicts by index and the compaction runs afterwards on the caller, so the
// result is identical to the serial version. A nil pool or a list that fits in one chunk runs
// serially.
//
// Parameters:
//   - pool: the worker pool running the chunks
//   - jobs: the jobs to cull
//   - cam: the viewing camera
//
// Returns:
//   - []RenderJob: the surviving jobs, sharing jobs' backing array
func CullRenderJobsParallel(pool worker.DynamicWorkerPool, jobs []RenderJob, cam camera.Camera) []RenderJob {
	if pool == nil || len(jobs) <= ParallelChunkSize {
		return CullRenderJobs(jobs, cam)
	}

	f := cam.Frustum()
	keep := make([]bool, len(jobs))

	// pool.Wait blocks until workers idle out, so each frame syncs on its own WaitGroup.
	var wg sync.WaitGroup
	for id, start := 0, 0; start < len(jobs); id, start = id+1, start+ParallelChunkSize {
		end := min(start+ParallelChunkSize, len(jobs))
		lo, hi := start, end
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					keep[i] = f.ClassifyAABB(jobs[i].BoundingBox) != common.Outside
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	n := 0
	for i := range jobs {
		if keep[i] {
			jobs[n] = jobs[i]
			n++
		}
	}
	clear(jobs[n:])
	return jobs[:n]
}
