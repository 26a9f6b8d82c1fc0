package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/bmukendi/kongamano/core/program"
)

type programRepository struct {
	db *DB
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *DB) *programRepository {
	return &programRepository{db: db}
}

// Time blocks

func (repo *programRepository) CreateBlock(_ context.Context, block program.TimeBlock) (program.TimeBlock, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	block.ID = uuid.New().String()
	cp := block
	repo.db.blocks[block.ID] = &cp
	repo.db.blockOrder = append(repo.db.blockOrder, block.ID)
	return block, nil
}

func (repo *programRepository) QueryAllBlocks(_ context.Context) ([]program.TimeBlock, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	blocks := make([]program.TimeBlock, 0, len(repo.db.blockOrder))
	for _, id := range repo.db.blockOrder {
		blocks = append(blocks, *repo.db.blocks[id])
	}
	return blocks, nil
}

func (repo *programRepository) GetBlockByID(_ context.Context, id string) (program.TimeBlock, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if block, ok := repo.db.blocks[id]; ok {
		return *block, nil
	}
	return program.TimeBlock{}, program.ErrBlockNotFound
}

func (repo *programRepository) QueryBlocksByDay(_ context.Context, day string) ([]program.TimeBlock, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var blocks []program.TimeBlock
	for _, id := range repo.db.blockOrder {
		if block := repo.db.blocks[id]; block.Day == day {
			blocks = append(blocks, *block)
		}
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].StartTime.Before(blocks[j].StartTime)
	})
	return blocks, nil
}

func (repo *programRepository) QueryBlocksByDayAndType(_ context.Context, day, blockType string) ([]program.TimeBlock, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var blocks []program.TimeBlock
	for _, id := range repo.db.blockOrder {
		if block := repo.db.blocks[id]; block.Day == day && block.BlockType == blockType {
			blocks = append(blocks, *block)
		}
	}
	return blocks, nil
}

func (repo *programRepository) QueryDays(_ context.Context) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]*program.TimeBlock)
	var days []string
	for _, id := range repo.db.blockOrder {
		block := repo.db.blocks[id]
		first, ok := seen[block.Day]
		if !ok {
			seen[block.Day] = block
			days = append(days, block.Day)
			continue
		}
		if !block.StartTime.IsZero() && (first.StartTime.IsZero() || block.StartTime.Before(first.StartTime)) {
			seen[block.Day] = block
		}
	}

	// earliest start first, days without one last
	sort.SliceStable(days, func(i, j int) bool {
		si, sj := seen[days[i]].StartTime, seen[days[j]].StartTime
		if si.IsZero() {
			return false
		}
		if sj.IsZero() {
			return true
		}
		if si.Equal(sj) {
			return days[i] < days[j]
		}
		return si.Before(sj)
	})
	return days, nil
}

func (repo *programRepository) UpdateBlock(_ context.Context, block program.TimeBlock) (program.TimeBlock, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.blocks[block.ID]
	if !ok {
		return program.TimeBlock{}, program.ErrBlockNotFound
	}
	block.CreatedAt = orig.CreatedAt
	cp := block
	repo.db.blocks[block.ID] = &cp
	return block, nil
}

func (repo *programRepository) DeleteBlockByID(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.blocks[id]; !ok {
		return nil
	}
	delete(repo.db.blocks, id)
	repo.db.blockOrder = removeID(repo.db.blockOrder, id)

	// hosted presentations are detached, not deleted
	for _, pres := range repo.db.presentations {
		if pres.ScheduleID != nil && *pres.ScheduleID == id {
			pres.ScheduleID = nil
		}
	}
	return nil
}

// Presentations

// getPresentation returns a copy with the hosting block and presenters
// preloaded. The caller must hold the lock.
func (repo *programRepository) getPresentation(id string) (program.Presentation, bool) {
	pres, ok := repo.db.presentations[id]
	if !ok {
		return program.Presentation{}, false
	}

	cp := *pres
	cp.Schedule = nil
	if cp.ScheduleID != nil {
		if block, ok := repo.db.blocks[*cp.ScheduleID]; ok {
			blockCp := *block
			cp.Schedule = &blockCp
		}
	}

	cp.Presenters = nil
	for _, accountID := range repo.db.accountOrder {
		acct := repo.db.accounts[accountID]
		if acct.PresentationID != nil && *acct.PresentationID == id {
			cp.Presenters = append(cp.Presenters, program.Presenter{
				ID:        acct.ID,
				FirstName: acct.FirstName,
				LastName:  acct.LastName,
				Email:     acct.Email,
			})
		}
	}
	return cp, true
}

func (repo *programRepository) CreatePresentation(_ context.Context, pres program.Presentation) (program.Presentation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pres.ID = uuid.New().String()
	cp := pres
	cp.Schedule = nil
	cp.Presenters = nil
	repo.db.presentations[pres.ID] = &cp
	repo.db.presentationOrder = append(repo.db.presentationOrder, pres.ID)

	out, _ := repo.getPresentation(pres.ID)
	return out, nil
}

func (repo *programRepository) QueryAllPresentations(_ context.Context) ([]program.Presentation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pres := make([]program.Presentation, 0, len(repo.db.presentationOrder))
	for _, id := range repo.db.presentationOrder {
		if p, ok := repo.getPresentation(id); ok {
			pres = append(pres, p)
		}
	}
	return pres, nil
}

func (repo *programRepository) GetPresentationByID(_ context.Context, id string) (program.Presentation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if pres, ok := repo.getPresentation(id); ok {
		return pres, nil
	}
	return program.Presentation{}, program.ErrPresentationNotFound
}

func (repo *programRepository) QueryPresentationsBySchedule(_ context.Context, scheduleID string) ([]program.Presentation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var pres []program.Presentation
	for _, id := range repo.db.presentationOrder {
		if p, ok := repo.getPresentation(id); ok && p.ScheduleID != nil && *p.ScheduleID == scheduleID {
			pres = append(pres, p)
		}
	}

	// position ascending with unpositioned first, then creation order
	sort.SliceStable(pres, func(i, j int) bool {
		ni, nj := pres[i].NumInBlock, pres[j].NumInBlock
		if ni == nil {
			return nj != nil
		}
		if nj == nil {
			return false
		}
		return *ni < *nj
	})
	return pres, nil
}

func (repo *programRepository) UpdatePresentation(_ context.Context, pres program.Presentation) (program.Presentation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.presentations[pres.ID]
	if !ok {
		return program.Presentation{}, program.ErrPresentationNotFound
	}
	pres.CreatedAt = orig.CreatedAt
	cp := pres
	cp.Schedule = nil
	cp.Presenters = nil
	repo.db.presentations[pres.ID] = &cp

	out, _ := repo.getPresentation(pres.ID)
	return out, nil
}

// UpdatePresentationPositions mimics the SQL store's single transaction: ids
// are verified up front so a miss applies nothing.
func (repo *programRepository) UpdatePresentationPositions(_ context.Context, updates []program.PositionUpdate) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, upd := range updates {
		if _, ok := repo.db.presentations[upd.PresentationID]; !ok {
			return program.ErrPresentationNotFound
		}
	}
	for _, upd := range updates {
		num := upd.NumInBlock
		repo.db.presentations[upd.PresentationID].NumInBlock = &num
	}
	return nil
}

func (repo *programRepository) DeletePresentationByID(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.presentations[id]; !ok {
		return nil
	}
	delete(repo.db.presentations, id)
	repo.db.presentationOrder = removeID(repo.db.presentationOrder, id)

	// grades cascade; presenter accounts are detached
	for gid, g := range repo.db.grades {
		if g.PresentationID == id {
			delete(repo.db.grades, gid)
			repo.db.gradeOrder = removeID(repo.db.gradeOrder, gid)
		}
	}
	for gid, g := range repo.db.abstractGrades {
		if g.PresentationID == id {
			delete(repo.db.abstractGrades, gid)
			repo.db.abstractGradeOrder = removeID(repo.db.abstractGradeOrder, gid)
		}
	}
	for _, acct := range repo.db.accounts {
		if acct.PresentationID != nil && *acct.PresentationID == id {
			acct.PresentationID = nil
		}
	}
	return nil
}

// Grades

// preloadGrade fills the grader name and presentation title.
// The caller must hold the lock.
func (repo *programRepository) preloadGrade(accountID, presentationID string, graderName, presentationTitle **string) {
	if acct, ok := repo.db.accounts[accountID]; ok {
		name := acct.FullName()
		*graderName = &name
	}
	if pres, ok := repo.db.presentations[presentationID]; ok {
		title := pres.Title
		*presentationTitle = &title
	}
}

func (repo *programRepository) getGrade(id string) (program.Grade, bool) {
	grade, ok := repo.db.grades[id]
	if !ok {
		return program.Grade{}, false
	}
	cp := *grade
	cp.GraderName, cp.PresentationTitle = nil, nil
	repo.preloadGrade(cp.AccountID, cp.PresentationID, &cp.GraderName, &cp.PresentationTitle)
	return cp, true
}

func (repo *programRepository) CreateGrade(_ context.Context, grade program.Grade) (program.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.grades {
		if other.AccountID == grade.AccountID && other.PresentationID == grade.PresentationID {
			return program.Grade{}, program.ErrGradeExists
		}
	}

	grade.ID = uuid.New().String()
	cp := grade
	repo.db.grades[grade.ID] = &cp
	repo.db.gradeOrder = append(repo.db.gradeOrder, grade.ID)

	out, _ := repo.getGrade(grade.ID)
	return out, nil
}

func (repo *programRepository) QueryAllGrades(_ context.Context) ([]program.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]program.Grade, 0, len(repo.db.gradeOrder))
	for _, id := range repo.db.gradeOrder {
		if grade, ok := repo.getGrade(id); ok {
			grades = append(grades, grade)
		}
	}
	return grades, nil
}

func (repo *programRepository) GetGradeByID(_ context.Context, id string) (program.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if grade, ok := repo.getGrade(id); ok {
		return grade, nil
	}
	return program.Grade{}, program.ErrGradeNotFound
}

func (repo *programRepository) UpdateGrade(_ context.Context, grade program.Grade) (program.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.grades[grade.ID]
	if !ok {
		return program.Grade{}, program.ErrGradeNotFound
	}
	for _, other := range repo.db.grades {
		if other.ID != grade.ID && other.AccountID == grade.AccountID && other.PresentationID == grade.PresentationID {
			return program.Grade{}, program.ErrGradeExists
		}
	}

	grade.CreatedAt = orig.CreatedAt
	cp := grade
	cp.GraderName, cp.PresentationTitle = nil, nil
	repo.db.grades[grade.ID] = &cp

	out, _ := repo.getGrade(grade.ID)
	return out, nil
}

func (repo *programRepository) DeleteGradeByID(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.grades, id)
	repo.db.gradeOrder = removeID(repo.db.gradeOrder, id)
	return nil
}

func (repo *programRepository) QueryGradeAverages(_ context.Context) ([]program.GradeAverage, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, id := range repo.db.gradeOrder {
		g := repo.db.grades[id]
		sums[g.PresentationID] += float64(g.Criteria1 + g.Criteria2 + g.Criteria3)
		counts[g.PresentationID]++
	}
	return repo.buildAverages(sums, counts), nil
}

func (repo *programRepository) QueryAbstractGradeAverages(_ context.Context) ([]program.GradeAverage, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, id := range repo.db.abstractGradeOrder {
		g := repo.db.abstractGrades[id]
		sums[g.PresentationID] += g.Criteria1 + g.Criteria2 + g.Criteria3
		counts[g.PresentationID]++
	}
	return repo.buildAverages(sums, counts), nil
}

// buildAverages ranks presentations by average score, highest first.
// The caller must hold the lock.
func (repo *programRepository) buildAverages(sums map[string]float64, counts map[string]int) []program.GradeAverage {
	averages := make([]program.GradeAverage, 0, len(sums))
	for presentationID, sum := range sums {
		avg := program.GradeAverage{
			PresentationID: presentationID,
			AverageScore:   sum / float64(counts[presentationID]),
			NumGrades:      counts[presentationID],
		}
		if pres, ok := repo.db.presentations[presentationID]; ok {
			title := pres.Title
			avg.PresentationTitle = &title
		}
		averages = append(averages, avg)
	}

	sort.SliceStable(averages, func(i, j int) bool {
		if averages[i].AverageScore == averages[j].AverageScore {
			return averages[i].PresentationID < averages[j].PresentationID
		}
		return averages[i].AverageScore > averages[j].AverageScore
	})
	return averages
}

// Abstract grades

func (repo *programRepository) getAbstractGrade(id string) (program.AbstractGrade, bool) {
	grade, ok := repo.db.abstractGrades[id]
	if !ok {
		return program.AbstractGrade{}, false
	}
	cp := *grade
	cp.GraderName, cp.PresentationTitle = nil, nil
	repo.preloadGrade(cp.AccountID, cp.PresentationID, &cp.GraderName, &cp.PresentationTitle)
	return cp, true
}

func (repo *programRepository) CreateAbstractGrade(_ context.Context, grade program.AbstractGrade) (program.AbstractGrade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// duplicates allowed; dedup happens in the completed-presentations read
	grade.ID = uuid.New().String()
	cp := grade
	repo.db.abstractGrades[grade.ID] = &cp
	repo.db.abstractGradeOrder = append(repo.db.abstractGradeOrder, grade.ID)

	out, _ := repo.getAbstractGrade(grade.ID)
	return out, nil
}

func (repo *programRepository) QueryAllAbstractGrades(_ context.Context) ([]program.AbstractGrade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]program.AbstractGrade, 0, len(repo.db.abstractGradeOrder))
	for _, id := range repo.db.abstractGradeOrder {
		if grade, ok := repo.getAbstractGrade(id); ok {
			grades = append(grades, grade)
		}
	}
	return grades, nil
}

func (repo *programRepository) GetAbstractGradeByID(_ context.Context, id string) (program.AbstractGrade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if grade, ok := repo.getAbstractGrade(id); ok {
		return grade, nil
	}
	return program.AbstractGrade{}, program.ErrAbstractGradeNotFound
}

func (repo *programRepository) UpdateAbstractGrade(_ context.Context, grade program.AbstractGrade) (program.AbstractGrade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.abstractGrades[grade.ID]
	if !ok {
		return program.AbstractGrade{}, program.ErrAbstractGradeNotFound
	}
	grade.CreatedAt = orig.CreatedAt
	cp := grade
	cp.GraderName, cp.PresentationTitle = nil, nil
	repo.db.abstractGrades[grade.ID] = &cp

	out, _ := repo.getAbstractGrade(grade.ID)
	return out, nil
}

func (repo *programRepository) DeleteAbstractGradeByID(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.abstractGrades, id)
	repo.db.abstractGradeOrder = removeID(repo.db.abstractGradeOrder, id)
	return nil
}

func (repo *programRepository) QueryCompletedPresentationIDs(_ context.Context, accountID string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, id := range repo.db.abstractGradeOrder {
		g := repo.db.abstractGrades[id]
		if g.AccountID == accountID && !seen[g.PresentationID] {
			seen[g.PresentationID] = true
			ids = append(ids, g.PresentationID)
		}
	}
	return ids, nil
}
