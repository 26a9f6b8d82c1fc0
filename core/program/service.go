package program

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core"
)

var (
	// errors
	ErrBlockNotFound         = errors.New("schedule block not found")
	ErrPresentationNotFound  = errors.New("presentation not found")
	ErrGradeNotFound         = errors.New("grade not found")
	ErrAbstractGradeNotFound = errors.New("abstract grade not found")
	ErrGradeExists           = errors.New("a grade by this user for this presentation already exists")
)

type (
	Repository interface {
		// time blocks
		CreateBlock(ctx context.Context, block TimeBlock) (TimeBlock, error)
		QueryAllBlocks(ctx context.Context) ([]TimeBlock, error)
		GetBlockByID(ctx context.Context, id string) (TimeBlock, error)
		// QueryBlocksByDay returns the day's blocks ordered by start time.
		QueryBlocksByDay(ctx context.Context, day string) ([]TimeBlock, error)
		// QueryBlocksByDayAndType matches both exactly, in creation order.
		QueryBlocksByDayAndType(ctx context.Context, day, blockType string) ([]TimeBlock, error)
		QueryDays(ctx context.Context) ([]string, error)
		UpdateBlock(ctx context.Context, block TimeBlock) (TimeBlock, error)
		// DeleteBlockByID detaches the block's presentations; they are kept.
		DeleteBlockByID(ctx context.Context, id string) error

		// presentations; Schedule and Presenters come preloaded
		CreatePresentation(ctx context.Context, pres Presentation) (Presentation, error)
		// QueryAllPresentations returns presentations in creation order.
		QueryAllPresentations(ctx context.Context) ([]Presentation, error)
		GetPresentationByID(ctx context.Context, id string) (Presentation, error)
		// QueryPresentationsBySchedule orders by NumInBlock ascending with
		// nulls first, then creation order.
		QueryPresentationsBySchedule(ctx context.Context, scheduleID string) ([]Presentation, error)
		UpdatePresentation(ctx context.Context, pres Presentation) (Presentation, error)
		// UpdatePresentationPositions applies the whole batch in one
		// transaction; a failure leaves every position untouched.
		UpdatePresentationPositions(ctx context.Context, updates []PositionUpdate) error
		// DeletePresentationByID cascades to the presentation's grades.
		DeletePresentationByID(ctx context.Context, id string) error

		// grades
		CreateGrade(ctx context.Context, grade Grade) (Grade, error)
		QueryAllGrades(ctx context.Context) ([]Grade, error)
		GetGradeByID(ctx context.Context, id string) (Grade, error)
		UpdateGrade(ctx context.Context, grade Grade) (Grade, error)
		DeleteGradeByID(ctx context.Context, id string) error
		// QueryGradeAverages returns per-presentation averages of
		// criteria_1+criteria_2+criteria_3, highest first, unrounded.
		QueryGradeAverages(ctx context.Context) ([]GradeAverage, error)

		// abstract grades
		CreateAbstractGrade(ctx context.Context, grade AbstractGrade) (AbstractGrade, error)
		QueryAllAbstractGrades(ctx context.Context) ([]AbstractGrade, error)
		GetAbstractGradeByID(ctx context.Context, id string) (AbstractGrade, error)
		UpdateAbstractGrade(ctx context.Context, grade AbstractGrade) (AbstractGrade, error)
		DeleteAbstractGradeByID(ctx context.Context, id string) error
		QueryAbstractGradeAverages(ctx context.Context) ([]GradeAverage, error)
		// QueryCompletedPresentationIDs lists the distinct presentations a
		// grader has abstract-graded, first-graded first.
		QueryCompletedPresentationIDs(ctx context.Context, accountID string) ([]string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Time blocks

func (svc *Service) CreateBlock(ctx context.Context, nb NewTimeBlock) (TimeBlock, error) {
	now := time.Now().UTC()
	block := TimeBlock{
		Day:         nb.Day,
		StartTime:   nb.StartTime,
		EndTime:     nb.EndTime,
		Title:       nb.Title,
		Description: nb.Description,
		Location:    nb.Location,
		BlockType:   nb.BlockType,
		SubLength:   nb.SubLength,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateBlock(ctx, block)
}

func (svc *Service) QueryAllBlocks(ctx context.Context) ([]TimeBlock, error) {
	return svc.repo.QueryAllBlocks(ctx)
}

func (svc *Service) GetBlock(ctx context.Context, id string) (TimeBlock, error) {
	return svc.repo.GetBlockByID(ctx, id)
}

func (svc *Service) BlocksByDay(ctx context.Context, day string) ([]TimeBlock, error) {
	return svc.repo.QueryBlocksByDay(ctx, day)
}

func (svc *Service) Days(ctx context.Context) ([]string, error) {
	return svc.repo.QueryDays(ctx)
}

func (svc *Service) UpdateBlock(ctx context.Context, id string, ub UpdateTimeBlock) (TimeBlock, error) {
	block, err := svc.repo.GetBlockByID(ctx, id)
	if err != nil {
		return TimeBlock{}, err
	}

	if ub.Day != nil {
		block.Day = *ub.Day
	}
	if ub.Title != nil {
		block.Title = *ub.Title
	}
	if ub.StartTime != nil {
		block.StartTime = *ub.StartTime
	}
	if ub.EndTime != nil {
		block.EndTime = *ub.EndTime
	}
	if ub.Description != nil {
		block.Description = *ub.Description
	}
	if ub.Location != nil {
		block.Location = *ub.Location
	}
	if ub.BlockType != nil {
		block.BlockType = *ub.BlockType
	}
	if ub.SubLength != nil {
		block.SubLength = ub.SubLength
	}
	block.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateBlock(ctx, block)
}

func (svc *Service) DeleteBlock(ctx context.Context, id string) error {
	return svc.repo.DeleteBlockByID(ctx, id)
}

// Presentations

func (svc *Service) CreatePresentation(ctx context.Context, np NewPresentation) (Presentation, error) {
	now := time.Now().UTC()
	t := np.Time
	pres := Presentation{
		Title:     np.Title,
		Abstract:  np.Abstract,
		Subject:   np.Subject,
		Time:      &t,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreatePresentation(ctx, pres)
}

func (svc *Service) QueryAllPresentations(ctx context.Context) ([]Presentation, error) {
	return svc.repo.QueryAllPresentations(ctx)
}

func (svc *Service) GetPresentation(ctx context.Context, id string) (Presentation, error) {
	return svc.repo.GetPresentationByID(ctx, id)
}

func (svc *Service) UpdatePresentation(ctx context.Context, id string, up UpdatePresentation) (Presentation, error) {
	pres, err := svc.repo.GetPresentationByID(ctx, id)
	if err != nil {
		return Presentation{}, err
	}

	if up.ScheduleIDSet {
		if up.ScheduleID != nil {
			if _, err = svc.repo.GetBlockByID(ctx, *up.ScheduleID); err != nil {
				return Presentation{}, err
			}
		}
		pres.ScheduleID = up.ScheduleID
	}
	if up.TimeSet {
		pres.Time = up.Time
	}
	if up.Title != nil {
		pres.Title = *up.Title
	}
	if up.Abstract != nil {
		pres.Abstract = *up.Abstract
	}
	if up.Subject != nil {
		pres.Subject = *up.Subject
	}
	pres.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdatePresentation(ctx, pres)
}

func (svc *Service) DeletePresentation(ctx context.Context, id string) error {
	return svc.repo.DeletePresentationByID(ctx, id)
}

// Upcoming lists presentations whose coalesced time (explicit time, else
// block start) is at or after `now`, sorted by effective time. The two keys
// can disagree when block sub-slots apply — filtering sticks to the coalesced
// time on purpose. Presentations that tie, and ones with no resolvable
// effective time (sorted last), keep their creation order.
func (svc *Service) Upcoming(ctx context.Context, now time.Time) ([]Presentation, error) {
	all, err := svc.repo.QueryAllPresentations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying presentations")
	}

	upcoming := make([]Presentation, 0, len(all))
	for _, p := range all {
		if t := p.CoalescedTime(); t != nil && !t.Before(now) {
			upcoming = append(upcoming, p)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		ti, tj := upcoming[i].EffectiveTime(), upcoming[j].EffectiveTime()
		if ti == nil {
			return false // unresolved sorts last
		}
		if tj == nil {
			return true
		}
		return ti.Before(*tj)
	})
	return upcoming, nil
}

// ByCategory lists presentations hosted by blocks of the given category.
// The category token is restricted to the closed set; anything else is a
// validation error, not an empty result.
func (svc *Service) ByCategory(ctx context.Context, category string) ([]Presentation, error) {
	token := core.CleanString(category, true /* lower */)
	var valid bool
	for _, c := range Categories {
		if token == c {
			valid = true
			break
		}
	}
	if !valid {
		return nil, core.NewValidationError(
			fmt.Errorf("invalid type %q, must be one of %v", category, Categories))
	}

	all, err := svc.repo.QueryAllPresentations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying presentations")
	}

	matched := make([]Presentation, 0, len(all))
	for _, p := range all {
		if p.Schedule != nil && core.CleanString(p.Schedule.BlockType, true) == token {
			matched = append(matched, p)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		ti, tj := matched[i].CoalescedTime(), matched[j].CoalescedTime()
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.Before(*tj)
	})
	return matched, nil
}

// GroupByDay returns the day's poster blocks, each with its presentations
// ordered by position (nulls first) then creation order. Only poster blocks
// are grouped this way; other categories have no day view.
func (svc *Service) GroupByDay(ctx context.Context, day string) ([]DayGroup, error) {
	blocks, err := svc.repo.QueryBlocksByDayAndType(ctx, day, PosterBlockType)
	if err != nil {
		return nil, errors.Wrap(err, "querying poster blocks")
	}

	groups := make([]DayGroup, 0, len(blocks))
	for _, block := range blocks {
		presentations, err := svc.repo.QueryPresentationsBySchedule(ctx, block.ID)
		if err != nil {
			return nil, errors.Wrap(err, "querying block presentations")
		}
		groups = append(groups, DayGroup{Block: block, Presentations: presentations})
	}
	return groups, nil
}

// ApplyOrder stages the valid entries of a reorder batch and commits them as
// one transaction. Entries missing a field or naming an unknown presentation
// are skipped silently; that is the documented permissive contract, not a
// validation gap. Returns the ids actually updated.
func (svc *Service) ApplyOrder(ctx context.Context, entries []OrderEntry) ([]string, error) {
	staged := make([]PositionUpdate, 0, len(entries))
	updated := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.PresentationID == nil || e.NumInBlock == nil {
			continue
		}
		if _, err := svc.repo.GetPresentationByID(ctx, *e.PresentationID); err != nil {
			if errors.Cause(err) == ErrPresentationNotFound {
				continue
			}
			return nil, errors.Wrap(err, "resolving presentation")
		}
		staged = append(staged, PositionUpdate{PresentationID: *e.PresentationID, NumInBlock: *e.NumInBlock})
		updated = append(updated, *e.PresentationID)
	}

	if len(staged) > 0 {
		if err := svc.repo.UpdatePresentationPositions(ctx, staged); err != nil {
			return nil, errors.Wrap(err, "committing presentation order")
		}
	}
	return updated, nil
}

// Grades

func trapGradeExists(err error, msg string) error {
	if errors.Cause(err) == ErrGradeExists {
		return core.NewValidationError(ErrGradeExists)
	}
	return errors.Wrap(err, msg)
}

func (svc *Service) CreateGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	now := time.Now().UTC()
	grade := Grade{
		AccountID:      ng.AccountID,
		PresentationID: ng.PresentationID,
		Criteria1:      *ng.Criteria1,
		Criteria2:      *ng.Criteria2,
		Criteria3:      *ng.Criteria3,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	grade, err := svc.repo.CreateGrade(ctx, grade)
	if err != nil {
		return Grade{}, trapGradeExists(err, "creating grade")
	}
	return grade, nil
}

func (svc *Service) QueryAllGrades(ctx context.Context) ([]Grade, error) {
	return svc.repo.QueryAllGrades(ctx)
}

func (svc *Service) GetGrade(ctx context.Context, id string) (Grade, error) {
	return svc.repo.GetGradeByID(ctx, id)
}

func (svc *Service) UpdateGrade(ctx context.Context, id string, ug UpdateGrade) (Grade, error) {
	grade, err := svc.repo.GetGradeByID(ctx, id)
	if err != nil {
		return Grade{}, err
	}

	if ug.AccountID != nil {
		grade.AccountID = *ug.AccountID
	}
	if ug.PresentationID != nil {
		grade.PresentationID = *ug.PresentationID
	}
	if ug.Criteria1 != nil {
		grade.Criteria1 = *ug.Criteria1
	}
	if ug.Criteria2 != nil {
		grade.Criteria2 = *ug.Criteria2
	}
	if ug.Criteria3 != nil {
		grade.Criteria3 = *ug.Criteria3
	}
	grade.UpdatedAt = time.Now().UTC()

	grade, err = svc.repo.UpdateGrade(ctx, grade)
	if err != nil {
		return Grade{}, trapGradeExists(err, "updating grade")
	}
	return grade, nil
}

func (svc *Service) DeleteGrade(ctx context.Context, id string) error {
	return svc.repo.DeleteGradeByID(ctx, id)
}

func (svc *Service) GradeAverages(ctx context.Context) ([]GradeAverage, error) {
	averages, err := svc.repo.QueryGradeAverages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying grade averages")
	}
	return roundAverages(averages), nil
}

// Abstract grades

func (svc *Service) CreateAbstractGrade(ctx context.Context, ng NewAbstractGrade) (AbstractGrade, error) {
	now := time.Now().UTC()
	grade := AbstractGrade{
		AccountID:      ng.AccountID,
		PresentationID: ng.PresentationID,
		Criteria1:      *ng.Criteria1,
		Criteria2:      *ng.Criteria2,
		Criteria3:      *ng.Criteria3,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateAbstractGrade(ctx, grade)
}

func (svc *Service) QueryAllAbstractGrades(ctx context.Context) ([]AbstractGrade, error) {
	return svc.repo.QueryAllAbstractGrades(ctx)
}

func (svc *Service) GetAbstractGrade(ctx context.Context, id string) (AbstractGrade, error) {
	return svc.repo.GetAbstractGradeByID(ctx, id)
}

func (svc *Service) UpdateAbstractGrade(ctx context.Context, id string, ug UpdateAbstractGrade) (AbstractGrade, error) {
	grade, err := svc.repo.GetAbstractGradeByID(ctx, id)
	if err != nil {
		return AbstractGrade{}, err
	}

	if ug.AccountID != nil {
		grade.AccountID = *ug.AccountID
	}
	if ug.PresentationID != nil {
		grade.PresentationID = *ug.PresentationID
	}
	if ug.Criteria1 != nil {
		grade.Criteria1 = *ug.Criteria1
	}
	if ug.Criteria2 != nil {
		grade.Criteria2 = *ug.Criteria2
	}
	if ug.Criteria3 != nil {
		grade.Criteria3 = *ug.Criteria3
	}
	grade.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateAbstractGrade(ctx, grade)
}

func (svc *Service) DeleteAbstractGrade(ctx context.Context, id string) error {
	return svc.repo.DeleteAbstractGradeByID(ctx, id)
}

func (svc *Service) AbstractGradeAverages(ctx context.Context) ([]GradeAverage, error) {
	averages, err := svc.repo.QueryAbstractGradeAverages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying abstract grade averages")
	}
	return roundAverages(averages), nil
}

// CompletedPresentations lists the presentations a grader has abstract-graded
// at least once. Duplicate grades collapse here, at read time.
func (svc *Service) CompletedPresentations(ctx context.Context, accountID string) ([]string, error) {
	return svc.repo.QueryCompletedPresentationIDs(ctx, accountID)
}

func roundAverages(averages []GradeAverage) []GradeAverage {
	for i := range averages {
		averages[i].AverageScore = math.Round(averages[i].AverageScore*100) / 100
	}
	return averages
}
