package program_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core"
	"github.com/bmukendi/kongamano/core/program"
	inmemdb "github.com/bmukendi/kongamano/storage/database/inmem"
)

func strPtr(s string) *string { return &s }

func newTestProgramService(t *testing.T) (*program.Service, program.Repository) {
	t.Helper()
	repo := inmemdb.NewProgramRepository(inmemdb.NewDB())
	return program.NewService(repo), repo
}

func createBlock(t *testing.T, repo program.Repository, block program.TimeBlock) program.TimeBlock {
	t.Helper()
	block, err := repo.CreateBlock(context.Background(), block)
	if err != nil {
		t.Fatalf("CreateBlock(): %v", err)
	}
	return block
}

func createPresentation(t *testing.T, repo program.Repository, pres program.Presentation) program.Presentation {
	t.Helper()
	pres, err := repo.CreatePresentation(context.Background(), pres)
	if err != nil {
		t.Fatalf("CreatePresentation(): %v", err)
	}
	return pres
}

func presentationTitles(pres []program.Presentation) []string {
	titles := make([]string, 0, len(pres))
	for _, p := range pres {
		titles = append(titles, p.Title)
	}
	return titles
}

func TestServiceUpcoming(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestProgramService(t)

	blockStart := time.Date(2026, 6, 1, 10, 0, 0, 0, time.Local)
	block := createBlock(t, repo, program.TimeBlock{
		Day: "Monday", Title: "Posters", BlockType: "poster",
		StartTime: blockStart,
		EndTime:   blockStart.Add(2 * time.Hour),
		SubLength: intPtr(30),
	})

	// filtered on the block start, yet sorted at 11:00 (slot 2)
	createPresentation(t, repo, program.Presentation{
		Title: "slotted", ScheduleID: &block.ID, NumInBlock: intPtr(2),
	})
	createPresentation(t, repo, program.Presentation{
		Title: "explicit", Time: timePtr(blockStart.Add(15 * time.Minute)),
	})
	createPresentation(t, repo, program.Presentation{
		Title: "past", Time: timePtr(blockStart.Add(-time.Hour)),
	})
	createPresentation(t, repo, program.Presentation{Title: "untimed"})
	// ties keep creation order
	createPresentation(t, repo, program.Presentation{
		Title: "explicit twin", Time: timePtr(blockStart.Add(15 * time.Minute)),
	})

	got, err := svc.Upcoming(ctx, blockStart)
	if err != nil {
		t.Fatalf("Upcoming(): %v", err)
	}
	want := []string{"explicit", "explicit twin", "slotted"}
	if titles := presentationTitles(got); !reflect.DeepEqual(titles, want) {
		t.Errorf("Upcoming() = %v; want %v", titles, want)
	}
}

func TestServiceUpcomingExcludesSlotsOfStartedBlocks(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestProgramService(t)

	blockStart := time.Date(2026, 6, 1, 10, 0, 0, 0, time.Local)
	block := createBlock(t, repo, program.TimeBlock{
		Day: "Monday", Title: "Posters", BlockType: "poster",
		StartTime: blockStart, SubLength: intPtr(30),
	})
	createPresentation(t, repo, program.Presentation{
		Title: "late slot", ScheduleID: &block.ID, NumInBlock: intPtr(2),
	})

	// the slot itself is still an hour away, but the hosting block has
	// started, so the presentation no longer counts as upcoming
	got, err := svc.Upcoming(ctx, blockStart.Add(time.Minute))
	if err != nil {
		t.Fatalf("Upcoming(): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Upcoming() = %v; want none", presentationTitles(got))
	}
}

func TestServiceByCategory(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestProgramService(t)

	early := time.Date(2026, 6, 1, 9, 0, 0, 0, time.Local)
	poster := createBlock(t, repo, program.TimeBlock{
		Day: "Monday", Title: "Posters", BlockType: "Poster", StartTime: early.Add(time.Hour),
	})
	talks := createBlock(t, repo, program.TimeBlock{
		Day: "Monday", Title: "Talks", BlockType: "presentation", StartTime: early,
	})

	createPresentation(t, repo, program.Presentation{Title: "second poster", ScheduleID: &poster.ID})
	createPresentation(t, repo, program.Presentation{Title: "talk", ScheduleID: &talks.ID})
	createPresentation(t, repo, program.Presentation{
		Title: "first poster", ScheduleID: &poster.ID, Time: timePtr(early.Add(30 * time.Minute)),
	})
	createPresentation(t, repo, program.Presentation{Title: "unscheduled"})

	t.Run("invalid category", func(t *testing.T) {
		_, err := svc.ByCategory(ctx, "workshop")
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
			t.Errorf("ByCategory() err = %v; want *core.ValidationError", err)
		}
	})
	t.Run("matches case-insensitively, ordered by time", func(t *testing.T) {
		got, err := svc.ByCategory(ctx, " POSTER ")
		if err != nil {
			t.Fatalf("ByCategory(): %v", err)
		}
		want := []string{"first poster", "second poster"}
		if titles := presentationTitles(got); !reflect.DeepEqual(titles, want) {
			t.Errorf("ByCategory() = %v; want %v", titles, want)
		}
	})
}

func TestServiceGroupByDay(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestProgramService(t)

	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.Local)
	posters := createBlock(t, repo, program.TimeBlock{
		Day: "Monday", Title: "Posters", BlockType: "poster", StartTime: start,
	})
	// not grouped: wrong type, wrong day, type case mismatch
	talks := createBlock(t, repo, program.TimeBlock{
		Day: "Monday", Title: "Talks", BlockType: "presentation", StartTime: start,
	})
	createBlock(t, repo, program.TimeBlock{Day: "Tuesday", Title: "More posters", BlockType: "poster"})
	createBlock(t, repo, program.TimeBlock{Day: "Monday", Title: "Loud posters", BlockType: "Poster"})

	createPresentation(t, repo, program.Presentation{
		Title: "third", ScheduleID: &posters.ID, NumInBlock: intPtr(1),
	})
	createPresentation(t, repo, program.Presentation{Title: "first", ScheduleID: &posters.ID})
	createPresentation(t, repo, program.Presentation{Title: "second", ScheduleID: &posters.ID})
	createPresentation(t, repo, program.Presentation{Title: "talk", ScheduleID: &talks.ID})

	groups, err := svc.GroupByDay(ctx, "Monday")
	if err != nil {
		t.Fatalf("GroupByDay(): %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("GroupByDay() groups = %d; want 1", len(groups))
	}
	if groups[0].Block.ID != posters.ID {
		t.Errorf("Block.ID = %v; want %v", groups[0].Block.ID, posters.ID)
	}
	// unpositioned first in creation order, then by position
	want := []string{"first", "second", "third"}
	if titles := presentationTitles(groups[0].Presentations); !reflect.DeepEqual(titles, want) {
		t.Errorf("Presentations = %v; want %v", titles, want)
	}
}

func TestServiceApplyOrder(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestProgramService(t)

	p1 := createPresentation(t, repo, program.Presentation{Title: "one"})
	p2 := createPresentation(t, repo, program.Presentation{Title: "two"})

	updated, err := svc.ApplyOrder(ctx, []program.OrderEntry{
		{PresentationID: &p1.ID, NumInBlock: intPtr(3)},
		{PresentationID: &p2.ID}, // missing position: skipped
		{NumInBlock: intPtr(1)},  // missing id: skipped
		{PresentationID: strPtr("4a1f0f38-0000-0000-0000-000000000000"), NumInBlock: intPtr(2)},
	})
	if err != nil {
		t.Fatalf("ApplyOrder(): %v", err)
	}
	if want := []string{p1.ID}; !reflect.DeepEqual(updated, want) {
		t.Errorf("updated = %v; want %v", updated, want)
	}

	got, err := repo.GetPresentationByID(ctx, p1.ID)
	if err != nil {
		t.Fatalf("GetPresentationByID(): %v", err)
	}
	if got.NumInBlock == nil || *got.NumInBlock != 3 {
		t.Errorf("NumInBlock = %v; want 3", got.NumInBlock)
	}
	if got, _ := repo.GetPresentationByID(ctx, p2.ID); got.NumInBlock != nil {
		t.Errorf("skipped presentation NumInBlock = %v; want nil", *got.NumInBlock)
	}
}

func TestRepositoryPositionBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestProgramService(t)

	pres := createPresentation(t, repo, program.Presentation{Title: "one"})

	err := repo.UpdatePresentationPositions(ctx, []program.PositionUpdate{
		{PresentationID: pres.ID, NumInBlock: 1},
		{PresentationID: "4a1f0f38-0000-0000-0000-000000000000", NumInBlock: 2},
	})
	if errors.Cause(err) != program.ErrPresentationNotFound {
		t.Fatalf("UpdatePresentationPositions() err = %v; want ErrPresentationNotFound", err)
	}

	got, _ := repo.GetPresentationByID(ctx, pres.ID)
	if got.NumInBlock != nil {
		t.Errorf("NumInBlock = %v; want untouched nil after failed batch", *got.NumInBlock)
	}
}

func TestServiceCreateGradeDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestProgramService(t)
	pres := createPresentation(t, repo, program.Presentation{Title: "one"})

	ng := program.NewGrade{
		AccountID:      "4a1f0f38-0000-0000-0000-000000000001",
		PresentationID: pres.ID,
		Criteria1:      intPtr(3), Criteria2: intPtr(4), Criteria3: intPtr(5),
	}
	if _, err := svc.CreateGrade(ctx, ng); err != nil {
		t.Fatalf("CreateGrade(): %v", err)
	}
	_, err := svc.CreateGrade(ctx, ng)
	if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
		t.Errorf("CreateGrade() err = %v; want *core.ValidationError", err)
	}
}

func TestServiceGradeAverages(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestProgramService(t)

	top := createPresentation(t, repo, program.Presentation{Title: "top"})
	runnerUp := createPresentation(t, repo, program.Presentation{Title: "runner-up"})

	grades := []struct {
		accountID      string
		presentationID string
		c1, c2, c3     int
	}{
		{"4a1f0f38-0000-0000-0000-000000000001", runnerUp.ID, 2, 2, 1}, // 5
		{"4a1f0f38-0000-0000-0000-000000000002", runnerUp.ID, 2, 2, 2}, // 6
		{"4a1f0f38-0000-0000-0000-000000000003", runnerUp.ID, 2, 2, 2}, // 6
		{"4a1f0f38-0000-0000-0000-000000000001", top.ID, 5, 5, 5},
	}
	for _, g := range grades {
		_, err := svc.CreateGrade(ctx, program.NewGrade{
			AccountID: g.accountID, PresentationID: g.presentationID,
			Criteria1: &g.c1, Criteria2: &g.c2, Criteria3: &g.c3,
		})
		if err != nil {
			t.Fatalf("CreateGrade(): %v", err)
		}
	}

	averages, err := svc.GradeAverages(ctx)
	if err != nil {
		t.Fatalf("GradeAverages(): %v", err)
	}
	if len(averages) != 2 {
		t.Fatalf("averages = %d rows; want 2", len(averages))
	}
	if averages[0].PresentationID != top.ID || averages[0].AverageScore != 15 {
		t.Errorf("averages[0] = %+v; want %s at 15", averages[0], top.ID)
	}
	// 17/3, rounded to two decimals
	if averages[1].PresentationID != runnerUp.ID || averages[1].AverageScore != 5.67 {
		t.Errorf("averages[1] = %+v; want %s at 5.67", averages[1], runnerUp.ID)
	}
	if averages[1].NumGrades != 3 {
		t.Errorf("NumGrades = %d; want 3", averages[1].NumGrades)
	}
}

func TestServiceCompletedPresentations(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestProgramService(t)

	grader := "4a1f0f38-0000-0000-0000-000000000001"
	other := "4a1f0f38-0000-0000-0000-000000000002"
	p1 := createPresentation(t, repo, program.Presentation{Title: "one"})
	p2 := createPresentation(t, repo, program.Presentation{Title: "two"})
	p3 := createPresentation(t, repo, program.Presentation{Title: "three"})

	score := 2.5
	for _, g := range []struct{ accountID, presentationID string }{
		{grader, p2.ID},
		{grader, p1.ID},
		{grader, p2.ID}, // duplicate collapses
		{other, p3.ID},
	} {
		_, err := svc.CreateAbstractGrade(ctx, program.NewAbstractGrade{
			AccountID: g.accountID, PresentationID: g.presentationID,
			Criteria1: &score, Criteria2: &score, Criteria3: &score,
		})
		if err != nil {
			t.Fatalf("CreateAbstractGrade(): %v", err)
		}
	}

	got, err := svc.CompletedPresentations(ctx, grader)
	if err != nil {
		t.Fatalf("CompletedPresentations(): %v", err)
	}
	if want := []string{p2.ID, p1.ID}; !reflect.DeepEqual(got, want) {
		t.Errorf("CompletedPresentations() = %v; want %v", got, want)
	}
}

func TestServiceUpdatePresentationSchedule(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestProgramService(t)

	block := createBlock(t, repo, program.TimeBlock{Day: "Monday", Title: "Posters", BlockType: "poster"})
	pres := createPresentation(t, repo, program.Presentation{Title: "one", ScheduleID: &block.ID})

	t.Run("unknown block rejected", func(t *testing.T) {
		unknown := "4a1f0f38-0000-0000-0000-000000000000"
		_, err := svc.UpdatePresentation(ctx, pres.ID, program.UpdatePresentation{
			ScheduleID: &unknown, ScheduleIDSet: true,
		})
		if errors.Cause(err) != program.ErrBlockNotFound {
			t.Errorf("UpdatePresentation() err = %v; want ErrBlockNotFound", err)
		}
	})
	t.Run("explicit detach", func(t *testing.T) {
		got, err := svc.UpdatePresentation(ctx, pres.ID, program.UpdatePresentation{ScheduleIDSet: true})
		if err != nil {
			t.Fatalf("UpdatePresentation(): %v", err)
		}
		if got.ScheduleID != nil {
			t.Errorf("ScheduleID = %v; want nil", *got.ScheduleID)
		}
	})
}
