package jobs

// Job is a background worker with a recurring schedule.
type Job interface {
	Start() error
	Stop()
}

// JobManager starts and stops the application's background jobs as a group.
type JobManager struct {
	jobs []Job
}

// NewJobManager creates a manager for the given jobs.
func NewJobManager(jobs ...Job) *JobManager {
	return &JobManager{jobs: jobs}
}

// StartAll starts every registered job. If one fails to start, the jobs
// started so far are stopped again and the error is returned.
func (m *JobManager) StartAll() error {
	var started []Job

	for _, job := range m.jobs {
		if err := job.Start(); err != nil {
			for _, s := range started {
				s.Stop()
			}
			return err
		}
		started = append(started, job)
	}

	return nil
}

// StopAll stops every registered job.
func (m *JobManager) StopAll() {
	for _, job := range m.jobs {
		job.Stop()
	}
}
