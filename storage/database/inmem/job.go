package inmemdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/bulletin"
)

type jobTable struct {
	table map[string]*bulletin.Job
	mutex sync.RWMutex
}

type jobRepository struct {
	db *jobTable
}

var _ bulletin.Repository = (*jobRepository)(nil)

func NewJobRepository() *jobRepository {
	return &jobRepository{db: &jobTable{table: make(map[string]*bulletin.Job)}}
}

func (repo *jobRepository) query() []bulletin.Job {
	jobs := make([]bulletin.Job, 0, len(repo.db.table))
	for _, j := range repo.db.table {
		jobs = append(jobs, *j)
	}
	return jobs
}

func (repo *jobRepository) CreateJob(_ context.Context, job bulletin.Job) (bulletin.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	repo.db.table[job.ID] = &job
	return job, nil
}

func (repo *jobRepository) UpdateJob(_ context.Context, job bulletin.Job) (bulletin.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save mutable fields
	orig, ok := repo.db.table[job.ID]
	if !ok {
		return bulletin.Job{}, core.ErrNotFound
	}
	orig.Status = job.Status
	orig.StudentCount = job.StudentCount
	orig.ArchiveName = job.ArchiveName
	orig.Error = job.Error
	orig.FinishedAt = job.FinishedAt
	return *orig, nil
}

func (repo *jobRepository) GetJob(_ context.Context, id string) (bulletin.Job, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if job, ok := repo.db.table[id]; ok {
		return *job, nil
	}
	return bulletin.Job{}, core.ErrNotFound
}

func (repo *jobRepository) QueryJobs(_ context.Context, filter *bulletin.QueryFilter, ordering []core.DBOrdering) ([]bulletin.Job, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	jobs := make([]bulletin.Job, 0, len(repo.db.table))
	for _, job := range repo.query() {
		if filter != nil && !filter.IsEmpty() {
			if filter.Period != "" && job.Period != filter.Period {
				continue
			}
			if filter.Status != "" && job.Status != filter.Status {
				continue
			}
		}
		jobs = append(jobs, job)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		for _, ord := range ordering {
			if c := compareJobs(jobs[i], jobs[j], ord.Field); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		// newest first, then by id for a stable output
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
	return jobs, nil
}

// compareJobs returns -1, 0 or 1; unknown fields compare equal.
func compareJobs(a, b bulletin.Job, field string) int {
	switch field {
	case "created_at":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case "finished_at":
		return compareTimes(a.FinishedAt, b.FinishedAt)
	case "student_count":
		return compareInts(int64(a.StudentCount), int64(b.StudentCount))
	case "period":
		return compareStrings(a.Period, b.Period)
	case "status":
		return compareStrings(a.Status, b.Status)
	}
	return 0
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
