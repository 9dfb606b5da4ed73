package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/bulletin"
)

const jobColumns = "id, period, status, student_count, archive_name, error, created_at, finished_at"

// orderable columns of the job table
var jobOrderings = map[string]string{
	"created_at":    "created_at",
	"finished_at":   "finished_at",
	"period":        "period",
	"status":        "status",
	"student_count": "student_count",
}

type jobRow struct {
	ID           string      `db:"id"`
	Period       string      `db:"period"`
	Status       string      `db:"status"`
	StudentCount int         `db:"student_count"`
	ArchiveName  null.String `db:"archive_name"`
	Error        null.String `db:"error"`
	CreatedAt    time.Time   `db:"created_at"`
	FinishedAt   null.Time   `db:"finished_at"`
}

type jobRepository struct {
	db *sqlx.DB
}

var _ bulletin.Repository = (*jobRepository)(nil) // interface compliance check

func NewJobRepository(db *sqlx.DB) *jobRepository {
	return &jobRepository{db: db}
}

func (repo jobRepository) toRow(job bulletin.Job) jobRow {
	return jobRow{
		ID:           job.ID,
		Period:       job.Period,
		Status:       job.Status,
		StudentCount: job.StudentCount,
		ArchiveName:  null.NewString(job.ArchiveName, job.ArchiveName != ""),
		Error:        null.NewString(job.Error, job.Error != ""),
		CreatedAt:    job.CreatedAt.UTC(),
		FinishedAt:   null.NewTime(job.FinishedAt.UTC(), !job.FinishedAt.IsZero()),
	}
}

func (repo jobRepository) fromRow(row jobRow) bulletin.Job {
	job := bulletin.Job{
		ID:           row.ID,
		Period:       row.Period,
		Status:       row.Status,
		StudentCount: row.StudentCount,
		ArchiveName:  row.ArchiveName.String,
		Error:        row.Error.String,
		CreatedAt:    row.CreatedAt.UTC(),
	}
	if row.FinishedAt.Valid {
		job.FinishedAt = row.FinishedAt.Time.UTC()
	}
	return job
}

// trapNoRowsErr maps psql "no rows" err to core.ErrNotFound
func (repo jobRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return core.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo jobRepository) CreateJob(ctx context.Context, job bulletin.Job) (bulletin.Job, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	q := `INSERT INTO job (` + jobColumns + `)
		VALUES (:id, :period, :status, :student_count, :archive_name, :error, :created_at, :finished_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.toRow(job)); err != nil {
		return bulletin.Job{}, errors.Wrap(err, "inserting job")
	}
	return repo.GetJob(ctx, job.ID)
}

func (repo jobRepository) UpdateJob(ctx context.Context, job bulletin.Job) (bulletin.Job, error) {
	q := `UPDATE job SET
		status = :status, student_count = :student_count, archive_name = :archive_name,
		error = :error, finished_at = :finished_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, repo.toRow(job))
	if err != nil {
		return bulletin.Job{}, errors.Wrap(err, "updating job")
	}
	if n, err := res.RowsAffected(); err != nil {
		return bulletin.Job{}, errors.Wrap(err, "updating job")
	} else if n == 0 {
		return bulletin.Job{}, core.ErrNotFound
	}
	return repo.GetJob(ctx, job.ID)
}

func (repo jobRepository) GetJob(ctx context.Context, id string) (bulletin.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return bulletin.Job{}, core.ErrNotFound
	}
	var row jobRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+jobColumns+` FROM job WHERE id = $1`, id); err != nil {
		return bulletin.Job{}, repo.trapNoRowsErr(err, "finding job by ID")
	}
	return repo.fromRow(row), nil
}

func (repo jobRepository) QueryJobs(ctx context.Context, filter *bulletin.QueryFilter, ordering []core.DBOrdering) ([]bulletin.Job, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil && !filter.IsEmpty() {
		if filter.Period != "" {
			where = append(where, "period = ?")
			args = append(args, filter.Period)
		}
		if filter.Status != "" {
			where = append(where, "status = ?")
			args = append(args, filter.Status)
		}
	}

	q := `SELECT ` + jobColumns + ` FROM job`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering)

	var rows []jobRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying jobs")
	}
	jobs := make([]bulletin.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, repo.fromRow(row))
	}
	return jobs, nil
}

// orderBy builds the ORDER BY clause, skipping unknown fields. Newest first by default.
func orderBy(ordering []core.DBOrdering) string {
	terms := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := jobOrderings[ord.Field]; ok {
			terms = append(terms, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	terms = append(terms, "created_at DESC")
	return strings.Join(terms, ", ")
}
