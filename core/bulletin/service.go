package bulletin

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/grading"
)

var (
	// errors
	ErrNoStudents = errors.New("no student found for this period")
)

type (
	// Source provides the raw report rows of a period.
	Source interface {
		Students(ctx context.Context, period string) ([]Student, error)
		SubjectStates(ctx context.Context, period string) ([]SubjectStateRow, error)
		UnitAverages(ctx context.Context, period string) ([]grading.UeAverageRow, error)
	}

	Repository interface {
		CreateJob(ctx context.Context, job Job) (Job, error)
		UpdateJob(ctx context.Context, job Job) (Job, error)
		// GetJob returns core.ErrNotFound when no job has this id.
		GetJob(ctx context.Context, id string) (Job, error)
		QueryJobs(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Job, error)
	}

	Service struct {
		source       Source
		repo         Repository
		mailSvc      core.EmailService
		logger       core.Logger
		school       string
		workers      int
		notifyEmails []string
	}
)

func NewService(conf *core.Config, logger core.Logger, source Source, repo Repository, mailSvc core.EmailService) *Service {
	workers := conf.Bulletin.Workers
	if workers < 1 {
		workers = 1
	}
	return &Service{
		source:       source,
		repo:         repo,
		mailSvc:      mailSvc,
		logger:       logger,
		school:       conf.Bulletin.School,
		workers:      workers,
		notifyEmails: conf.NotifyEmails,
	}
}

// Evaluate normalizes the raw subject states of req and returns the verdict of the unit.
func (svc *Service) Evaluate(req EvaluateRequest) grading.Etat {
	states := make([]grading.Etat, 0, len(req.States))
	for _, s := range req.States {
		states = append(states, grading.NormalizeEtat(s))
	}
	return grading.GetEtatUE(states, req.Average)
}

// Preview builds the bulletin of a single student without recording a job.
func (svc *Service) Preview(ctx context.Context, period Period, studentID string) (Bulletin, error) {
	students, err := svc.source.Students(ctx, period.Code)
	if err != nil {
		return Bulletin{}, errors.Wrap(err, "fetching students")
	}
	students = filterStudents(students, []string{core.CleanString(studentID)})
	if len(students) == 0 {
		return Bulletin{}, core.ErrNotFound
	}

	states, err := svc.source.SubjectStates(ctx, period.Code)
	if err != nil {
		return Bulletin{}, errors.Wrap(err, "fetching subject states")
	}
	averages, err := svc.source.UnitAverages(ctx, period.Code)
	if err != nil {
		return Bulletin{}, errors.Wrap(err, "fetching unit averages")
	}

	b := Build(students[0], period, states, averages)
	b.School = svc.school
	return b, nil
}

// Generate builds, renders and zips the bulletins of a period, recording the run as a Job.
// The returned Job reflects the final status even when an error is returned.
func (svc *Service) Generate(ctx context.Context, ng NewGeneration) (Job, Archive, error) {
	job, err := svc.repo.CreateJob(ctx, Job{
		ID:        uuid.New().String(),
		Period:    ng.Period,
		Status:    StatusRunning,
		CreatedAt: nowFunc().UTC(),
	})
	if err != nil {
		return Job{}, Archive{}, errors.Wrap(err, "creating job")
	}
	svc.logger.Info(fmt.Sprintf("generating bulletins for period %q", ng.Period), job)

	archive, count, genErr := svc.generate(ctx, ng)
	job.StudentCount = count
	job.FinishedAt = nowFunc().UTC()

	if genErr != nil {
		job.Status = StatusFailed
		job.Error = genErr.Error()
		// the request context may be done already
		if updated, err := svc.repo.UpdateJob(context.Background(), job); err != nil {
			svc.logger.Error("recording failed job", errors.Wrap(err, "updating job"), job)
		} else {
			job = updated
		}
		return job, Archive{}, genErr
	}

	job.Status = StatusDone
	job.ArchiveName = archive.Name
	updated, err := svc.repo.UpdateJob(ctx, job)
	if err != nil {
		return job, Archive{}, errors.Wrap(err, "updating job")
	}
	job = updated
	svc.logger.Info(fmt.Sprintf("%d bulletins generated for period %q", count, ng.Period), job)

	if ng.Notify {
		svc.notify(job, archive)
	}
	return job, archive, nil
}

func (svc *Service) generate(ctx context.Context, ng NewGeneration) (Archive, int, error) {
	students, err := svc.source.Students(ctx, ng.Period)
	if err != nil {
		return Archive{}, 0, errors.Wrap(err, "fetching students")
	}
	students = filterStudents(students, ng.StudentIDs)
	if len(students) == 0 {
		return Archive{}, 0, core.NewValidationError(
			ErrNoStudents,
			core.FieldError{Field: "period", Error: ErrNoStudents.Error()},
		)
	}

	states, err := svc.source.SubjectStates(ctx, ng.Period)
	if err != nil {
		return Archive{}, len(students), errors.Wrap(err, "fetching subject states")
	}
	averages, err := svc.source.UnitAverages(ctx, ng.Period)
	if err != nil {
		return Archive{}, len(students), errors.Wrap(err, "fetching unit averages")
	}

	statesByStudent := groupStates(states)
	averagesByStudent := groupAverages(averages)
	period := Period{Code: ng.Period, Label: ng.Label}

	files := make([]archiveFile, len(students))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.workers)
	for i, st := range students {
		i, st := i, st
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := Build(st, period, statesByStudent[st.ID], averagesByStudent[st.ID])
			b.School = svc.school

			buf := new(bytes.Buffer)
			if err := Render(buf, b); err != nil {
				return errors.Wrapf(err, "rendering bulletin of student %s", st.ID)
			}
			files[i] = archiveFile{name: FileName(b), content: buf.Bytes()}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return Archive{}, len(students), err
	}

	content, err := bundle(files, nowFunc())
	if err != nil {
		return Archive{}, len(students), err
	}
	return Archive{Name: ArchiveName(ng.Period), Content: content}, len(students), nil
}

func (svc *Service) notify(job Job, archive Archive) {
	to := core.ParseAddresses(svc.notifyEmails)
	if len(to) == 0 {
		svc.logger.Warn("no recipient to notify", job)
		return
	}

	msg := &core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Bulletins %s", job.Period),
		TextContent: fmt.Sprintf(
			"%d bulletins were generated for period %s.\nThe archive %s is attached.",
			job.StudentCount, job.Period, archive.Name,
		),
	}
	if err := msg.Attach(bytes.NewReader(archive.Content), archive.Name, "application/zip"); err != nil {
		svc.logger.Error("attaching archive", errors.Wrap(err, "attaching archive"), job)
		return
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *Service) GetJob(ctx context.Context, id string) (Job, error) {
	return svc.repo.GetJob(ctx, core.CleanString(id))
}

func (svc *Service) QueryJobs(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Job, error) {
	return svc.repo.QueryJobs(ctx, filter, ordering)
}
