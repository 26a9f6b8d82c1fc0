package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core/program"
)

type blockRow struct {
	ID          string       `db:"id"`
	Day         string       `db:"day"`
	StartTime   sql.NullTime `db:"start_time"`
	EndTime     sql.NullTime `db:"end_time"`
	Title       string       `db:"title"`
	Description string       `db:"description"`
	Location    string       `db:"location"`
	BlockType   string       `db:"block_type"`
	SubLength   *int         `db:"sub_length"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (row blockRow) toDomain() program.TimeBlock {
	return program.TimeBlock{
		ID:          row.ID,
		Day:         row.Day,
		StartTime:   row.StartTime.Time,
		EndTime:     row.EndTime.Time,
		Title:       row.Title,
		Description: row.Description,
		Location:    row.Location,
		BlockType:   row.BlockType,
		SubLength:   row.SubLength,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func fromBlock(block program.TimeBlock) blockRow {
	return blockRow{
		ID:          block.ID,
		Day:         block.Day,
		StartTime:   sql.NullTime{Time: block.StartTime, Valid: !block.StartTime.IsZero()},
		EndTime:     sql.NullTime{Time: block.EndTime, Valid: !block.EndTime.IsZero()},
		Title:       block.Title,
		Description: block.Description,
		Location:    block.Location,
		BlockType:   block.BlockType,
		SubLength:   block.SubLength,
		CreatedAt:   block.CreatedAt,
		UpdatedAt:   block.UpdatedAt,
	}
}

type presentationRow struct {
	ID         string     `db:"id"`
	Title      string     `db:"title"`
	Abstract   string     `db:"abstract"`
	Subject    string     `db:"subject"`
	Time       *time.Time `db:"time"`
	NumInBlock *int       `db:"num_in_block"`
	ScheduleID *string    `db:"schedule_id"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`

	// hosting block, when any
	BlockDay         *string      `db:"block_day"`
	BlockStartTime   sql.NullTime `db:"block_start_time"`
	BlockEndTime     sql.NullTime `db:"block_end_time"`
	BlockTitle       *string      `db:"block_title"`
	BlockDescription *string      `db:"block_description"`
	BlockLocation    *string      `db:"block_location"`
	BlockType        *string      `db:"block_block_type"`
	BlockSubLength   *int         `db:"block_sub_length"`
}

func (row presentationRow) toDomain() program.Presentation {
	pres := program.Presentation{
		ID:         row.ID,
		Title:      row.Title,
		Abstract:   row.Abstract,
		Subject:    row.Subject,
		Time:       row.Time,
		NumInBlock: row.NumInBlock,
		ScheduleID: row.ScheduleID,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.ScheduleID != nil && row.BlockDay != nil {
		pres.Schedule = &program.TimeBlock{
			ID:          *row.ScheduleID,
			Day:         *row.BlockDay,
			StartTime:   row.BlockStartTime.Time,
			EndTime:     row.BlockEndTime.Time,
			Title:       *row.BlockTitle,
			Description: *row.BlockDescription,
			Location:    *row.BlockLocation,
			BlockType:   *row.BlockType,
			SubLength:   row.BlockSubLength,
		}
	}
	return pres
}

type gradeRow struct {
	ID                string    `db:"id"`
	AccountID         string    `db:"account_id"`
	PresentationID    string    `db:"presentation_id"`
	Criteria1         int       `db:"criteria_1"`
	Criteria2         int       `db:"criteria_2"`
	Criteria3         int       `db:"criteria_3"`
	GraderName        *string   `db:"grader_name"`
	PresentationTitle *string   `db:"presentation_title"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (row gradeRow) toDomain() program.Grade {
	return program.Grade{
		ID:                row.ID,
		AccountID:         row.AccountID,
		PresentationID:    row.PresentationID,
		Criteria1:         row.Criteria1,
		Criteria2:         row.Criteria2,
		Criteria3:         row.Criteria3,
		GraderName:        row.GraderName,
		PresentationTitle: row.PresentationTitle,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

type abstractGradeRow struct {
	ID                string    `db:"id"`
	AccountID         string    `db:"account_id"`
	PresentationID    string    `db:"presentation_id"`
	Criteria1         float64   `db:"criteria_1"`
	Criteria2         float64   `db:"criteria_2"`
	Criteria3         float64   `db:"criteria_3"`
	GraderName        *string   `db:"grader_name"`
	PresentationTitle *string   `db:"presentation_title"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (row abstractGradeRow) toDomain() program.AbstractGrade {
	return program.AbstractGrade{
		ID:                row.ID,
		AccountID:         row.AccountID,
		PresentationID:    row.PresentationID,
		Criteria1:         row.Criteria1,
		Criteria2:         row.Criteria2,
		Criteria3:         row.Criteria3,
		GraderName:        row.GraderName,
		PresentationTitle: row.PresentationTitle,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

type programRepository struct {
	db *sqlx.DB
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *sqlx.DB) *programRepository {
	return &programRepository{db: db}
}

func trapNoRows(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// Time blocks

const selectBlock = `
SELECT id, day, start_time, end_time, title, description, location, block_type,
       sub_length, created_at, updated_at
FROM time_block`

func (repo programRepository) CreateBlock(ctx context.Context, block program.TimeBlock) (program.TimeBlock, error) {
	block.ID = uuid.New().String()
	_, err := sqlx.NamedExecContext(ctx, repo.db, `
INSERT INTO time_block (id, day, start_time, end_time, title, description, location, block_type, sub_length, created_at, updated_at)
VALUES (:id, :day, :start_time, :end_time, :title, :description, :location, :block_type, :sub_length, :created_at, :updated_at)`,
		fromBlock(block))
	if err != nil {
		return program.TimeBlock{}, errors.Wrap(err, "inserting block")
	}
	return block, nil
}

func (repo programRepository) QueryAllBlocks(ctx context.Context) ([]program.TimeBlock, error) {
	return repo.queryBlocks(ctx, selectBlock+" ORDER BY created_at, id")
}

func (repo programRepository) GetBlockByID(ctx context.Context, id string) (program.TimeBlock, error) {
	if _, err := uuid.Parse(id); err != nil {
		return program.TimeBlock{}, program.ErrBlockNotFound
	}

	var row blockRow
	if err := sqlx.GetContext(ctx, repo.db, &row, selectBlock+" WHERE id = $1", id); err != nil {
		return program.TimeBlock{}, trapNoRows(err, program.ErrBlockNotFound, "finding block by ID")
	}
	return row.toDomain(), nil
}

func (repo programRepository) QueryBlocksByDay(ctx context.Context, day string) ([]program.TimeBlock, error) {
	return repo.queryBlocks(ctx, selectBlock+" WHERE day = $1 ORDER BY start_time, created_at, id", day)
}

func (repo programRepository) QueryBlocksByDayAndType(ctx context.Context, day, blockType string) ([]program.TimeBlock, error) {
	return repo.queryBlocks(ctx, selectBlock+" WHERE day = $1 AND block_type = $2 ORDER BY created_at, id", day, blockType)
}

func (repo programRepository) queryBlocks(ctx context.Context, query string, args ...interface{}) ([]program.TimeBlock, error) {
	var rows []blockRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying blocks")
	}

	blocks := make([]program.TimeBlock, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, row.toDomain())
	}
	return blocks, nil
}

func (repo programRepository) QueryDays(ctx context.Context) ([]string, error) {
	var days []string
	err := sqlx.SelectContext(ctx, repo.db, &days,
		"SELECT day FROM time_block GROUP BY day ORDER BY MIN(start_time), day")
	if err != nil {
		return nil, errors.Wrap(err, "querying days")
	}
	return days, nil
}

func (repo programRepository) UpdateBlock(ctx context.Context, block program.TimeBlock) (program.TimeBlock, error) {
	res, err := sqlx.NamedExecContext(ctx, repo.db, `
UPDATE time_block
SET day = :day, start_time = :start_time, end_time = :end_time, title = :title,
    description = :description, location = :location, block_type = :block_type,
    sub_length = :sub_length, updated_at = :updated_at
WHERE id = :id`,
		fromBlock(block))
	if err != nil {
		return program.TimeBlock{}, errors.Wrap(err, "updating block")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return program.TimeBlock{}, program.ErrBlockNotFound
	}
	return block, nil
}

func (repo programRepository) DeleteBlockByID(ctx context.Context, id string) error {
	// hosted presentations are detached by the FK's ON DELETE SET NULL
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM time_block WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting block")
	}
	return nil
}

// Presentations

const selectPresentation = `
SELECT pr.id, pr.title, pr.abstract, pr.subject, pr."time", pr.num_in_block,
       pr.schedule_id, pr.created_at, pr.updated_at,
       b.day AS block_day, b.start_time AS block_start_time, b.end_time AS block_end_time,
       b.title AS block_title, b.description AS block_description,
       b.location AS block_location, b.block_type AS block_block_type,
       b.sub_length AS block_sub_length
FROM presentation pr
LEFT JOIN time_block b ON b.id = pr.schedule_id`

func (repo programRepository) CreatePresentation(ctx context.Context, pres program.Presentation) (program.Presentation, error) {
	pres.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
INSERT INTO presentation (id, title, abstract, subject, "time", num_in_block, schedule_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pres.ID, pres.Title, pres.Abstract, pres.Subject, pres.Time, pres.NumInBlock, pres.ScheduleID, pres.CreatedAt, pres.UpdatedAt)
	if err != nil {
		return program.Presentation{}, errors.Wrap(err, "inserting presentation")
	}
	return repo.GetPresentationByID(ctx, pres.ID)
}

func (repo programRepository) QueryAllPresentations(ctx context.Context) ([]program.Presentation, error) {
	return repo.queryPresentations(ctx, selectPresentation+" ORDER BY pr.created_at, pr.id")
}

func (repo programRepository) GetPresentationByID(ctx context.Context, id string) (program.Presentation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return program.Presentation{}, program.ErrPresentationNotFound
	}

	var row presentationRow
	if err := sqlx.GetContext(ctx, repo.db, &row, selectPresentation+" WHERE pr.id = $1", id); err != nil {
		return program.Presentation{}, trapNoRows(err, program.ErrPresentationNotFound, "finding presentation by ID")
	}

	pres := row.toDomain()
	presenters, err := repo.queryPresenters(ctx, pres.ID)
	if err != nil {
		return program.Presentation{}, err
	}
	pres.Presenters = presenters[pres.ID]
	return pres, nil
}

func (repo programRepository) QueryPresentationsBySchedule(ctx context.Context, scheduleID string) ([]program.Presentation, error) {
	return repo.queryPresentations(ctx,
		selectPresentation+" WHERE pr.schedule_id = $1 ORDER BY pr.num_in_block ASC NULLS FIRST, pr.created_at, pr.id",
		scheduleID)
}

func (repo programRepository) queryPresentations(ctx context.Context, query string, args ...interface{}) ([]program.Presentation, error) {
	var rows []presentationRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying presentations")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	presenters, err := repo.queryPresenters(ctx, ids...)
	if err != nil {
		return nil, err
	}

	pres := make([]program.Presentation, 0, len(rows))
	for _, row := range rows {
		p := row.toDomain()
		p.Presenters = presenters[p.ID]
		pres = append(pres, p)
	}
	return pres, nil
}

// queryPresenters loads the presenters of the given presentations in one go,
// keyed by presentation ID.
func (repo programRepository) queryPresenters(ctx context.Context, presentationIDs ...string) (map[string][]program.Presenter, error) {
	byPresentation := make(map[string][]program.Presenter, len(presentationIDs))
	if len(presentationIDs) == 0 {
		return byPresentation, nil
	}

	var rows []struct {
		ID             string `db:"id"`
		FirstName      string `db:"first_name"`
		LastName       string `db:"last_name"`
		Email          string `db:"email"`
		PresentationID string `db:"presentation_id"`
	}
	err := sqlx.SelectContext(ctx, repo.db, &rows, `
SELECT id, first_name, last_name, email, presentation_id
FROM account
WHERE presentation_id = ANY($1)
ORDER BY created_at, id`,
		pq.Array(presentationIDs))
	if err != nil {
		return nil, errors.Wrap(err, "querying presenters")
	}

	for _, row := range rows {
		byPresentation[row.PresentationID] = append(byPresentation[row.PresentationID], program.Presenter{
			ID:        row.ID,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Email:     row.Email,
		})
	}
	return byPresentation, nil
}

func (repo programRepository) UpdatePresentation(ctx context.Context, pres program.Presentation) (program.Presentation, error) {
	res, err := repo.db.ExecContext(ctx, `
UPDATE presentation
SET title = $2, abstract = $3, subject = $4, "time" = $5, num_in_block = $6,
    schedule_id = $7, updated_at = $8
WHERE id = $1`,
		pres.ID, pres.Title, pres.Abstract, pres.Subject, pres.Time, pres.NumInBlock, pres.ScheduleID, pres.UpdatedAt)
	if err != nil {
		return program.Presentation{}, errors.Wrap(err, "updating presentation")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return program.Presentation{}, program.ErrPresentationNotFound
	}
	return repo.GetPresentationByID(ctx, pres.ID)
}

// UpdatePresentationPositions applies the whole batch in one transaction.
func (repo programRepository) UpdatePresentationPositions(ctx context.Context, updates []program.PositionUpdate) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}

	now := time.Now().UTC()
	for _, upd := range updates {
		_, err = tx.ExecContext(ctx,
			"UPDATE presentation SET num_in_block = $2, updated_at = $3 WHERE id = $1",
			upd.PresentationID, upd.NumInBlock, now)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "updating presentation position")
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing presentation positions")
	}
	return nil
}

func (repo programRepository) DeletePresentationByID(ctx context.Context, id string) error {
	// grades cascade; presenter accounts are detached by ON DELETE SET NULL
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM presentation WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting presentation")
	}
	return nil
}

// Grades

const selectGrade = `
SELECT g.id, g.account_id, g.presentation_id, g.criteria_1, g.criteria_2, g.criteria_3,
       a.first_name || ' ' || a.last_name AS grader_name, p.title AS presentation_title,
       g.created_at, g.updated_at`

const gradeJoins = `
LEFT JOIN account a ON a.id = g.account_id
LEFT JOIN presentation p ON p.id = g.presentation_id`

// trapGradeExists maps a unique violation on (account_id, presentation_id) to
// program.ErrGradeExists
func trapGradeExists(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return program.ErrGradeExists
	}
	return errors.Wrap(err, msg)
}

func (repo programRepository) CreateGrade(ctx context.Context, grade program.Grade) (program.Grade, error) {
	grade.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
INSERT INTO grade (id, account_id, presentation_id, criteria_1, criteria_2, criteria_3, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		grade.ID, grade.AccountID, grade.PresentationID, grade.Criteria1, grade.Criteria2, grade.Criteria3, grade.CreatedAt, grade.UpdatedAt)
	if err != nil {
		return program.Grade{}, trapGradeExists(err, "inserting grade")
	}
	return repo.GetGradeByID(ctx, grade.ID)
}

func (repo programRepository) QueryAllGrades(ctx context.Context) ([]program.Grade, error) {
	var rows []gradeRow
	err := sqlx.SelectContext(ctx, repo.db, &rows,
		selectGrade+" FROM grade g"+gradeJoins+" ORDER BY g.created_at, g.id")
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}

	grades := make([]program.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.toDomain())
	}
	return grades, nil
}

func (repo programRepository) GetGradeByID(ctx context.Context, id string) (program.Grade, error) {
	if _, err := uuid.Parse(id); err != nil {
		return program.Grade{}, program.ErrGradeNotFound
	}

	var row gradeRow
	err := sqlx.GetContext(ctx, repo.db, &row, selectGrade+" FROM grade g"+gradeJoins+" WHERE g.id = $1", id)
	if err != nil {
		return program.Grade{}, trapNoRows(err, program.ErrGradeNotFound, "finding grade by ID")
	}
	return row.toDomain(), nil
}

func (repo programRepository) UpdateGrade(ctx context.Context, grade program.Grade) (program.Grade, error) {
	res, err := repo.db.ExecContext(ctx, `
UPDATE grade
SET account_id = $2, presentation_id = $3, criteria_1 = $4, criteria_2 = $5,
    criteria_3 = $6, updated_at = $7
WHERE id = $1`,
		grade.ID, grade.AccountID, grade.PresentationID, grade.Criteria1, grade.Criteria2, grade.Criteria3, grade.UpdatedAt)
	if err != nil {
		return program.Grade{}, trapGradeExists(err, "updating grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return program.Grade{}, program.ErrGradeNotFound
	}
	return repo.GetGradeByID(ctx, grade.ID)
}

func (repo programRepository) DeleteGradeByID(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM grade WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return nil
}

func (repo programRepository) QueryGradeAverages(ctx context.Context) ([]program.GradeAverage, error) {
	return repo.queryAverages(ctx, "grade")
}

func (repo programRepository) QueryAbstractGradeAverages(ctx context.Context) ([]program.GradeAverage, error) {
	return repo.queryAverages(ctx, "abstract_grade")
}

func (repo programRepository) queryAverages(ctx context.Context, table string) ([]program.GradeAverage, error) {
	var rows []struct {
		PresentationID    string  `db:"presentation_id"`
		PresentationTitle *string `db:"presentation_title"`
		AverageScore      float64 `db:"average_score"`
		NumGrades         int     `db:"num_grades"`
	}
	err := sqlx.SelectContext(ctx, repo.db, &rows, `
SELECT g.presentation_id, p.title AS presentation_title,
       AVG(g.criteria_1 + g.criteria_2 + g.criteria_3) AS average_score,
       COUNT(*) AS num_grades
FROM `+table+` g
LEFT JOIN presentation p ON p.id = g.presentation_id
GROUP BY g.presentation_id, p.title
ORDER BY average_score DESC, g.presentation_id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying grade averages")
	}

	averages := make([]program.GradeAverage, 0, len(rows))
	for _, row := range rows {
		averages = append(averages, program.GradeAverage{
			PresentationID:    row.PresentationID,
			PresentationTitle: row.PresentationTitle,
			AverageScore:      row.AverageScore,
			NumGrades:         row.NumGrades,
		})
	}
	return averages, nil
}

// Abstract grades

func (repo programRepository) CreateAbstractGrade(ctx context.Context, grade program.AbstractGrade) (program.AbstractGrade, error) {
	grade.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
INSERT INTO abstract_grade (id, account_id, presentation_id, criteria_1, criteria_2, criteria_3, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		grade.ID, grade.AccountID, grade.PresentationID, grade.Criteria1, grade.Criteria2, grade.Criteria3, grade.CreatedAt, grade.UpdatedAt)
	if err != nil {
		return program.AbstractGrade{}, errors.Wrap(err, "inserting abstract grade")
	}
	return repo.GetAbstractGradeByID(ctx, grade.ID)
}

func (repo programRepository) QueryAllAbstractGrades(ctx context.Context) ([]program.AbstractGrade, error) {
	var rows []abstractGradeRow
	err := sqlx.SelectContext(ctx, repo.db, &rows,
		selectGrade+" FROM abstract_grade g"+gradeJoins+" ORDER BY g.created_at, g.id")
	if err != nil {
		return nil, errors.Wrap(err, "querying abstract grades")
	}

	grades := make([]program.AbstractGrade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.toDomain())
	}
	return grades, nil
}

func (repo programRepository) GetAbstractGradeByID(ctx context.Context, id string) (program.AbstractGrade, error) {
	if _, err := uuid.Parse(id); err != nil {
		return program.AbstractGrade{}, program.ErrAbstractGradeNotFound
	}

	var row abstractGradeRow
	err := sqlx.GetContext(ctx, repo.db, &row, selectGrade+" FROM abstract_grade g"+gradeJoins+" WHERE g.id = $1", id)
	if err != nil {
		return program.AbstractGrade{}, trapNoRows(err, program.ErrAbstractGradeNotFound, "finding abstract grade by ID")
	}
	return row.toDomain(), nil
}

func (repo programRepository) UpdateAbstractGrade(ctx context.Context, grade program.AbstractGrade) (program.AbstractGrade, error) {
	res, err := repo.db.ExecContext(ctx, `
UPDATE abstract_grade
SET account_id = $2, presentation_id = $3, criteria_1 = $4, criteria_2 = $5,
    criteria_3 = $6, updated_at = $7
WHERE id = $1`,
		grade.ID, grade.AccountID, grade.PresentationID, grade.Criteria1, grade.Criteria2, grade.Criteria3, grade.UpdatedAt)
	if err != nil {
		return program.AbstractGrade{}, errors.Wrap(err, "updating abstract grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return program.AbstractGrade{}, program.ErrAbstractGradeNotFound
	}
	return repo.GetAbstractGradeByID(ctx, grade.ID)
}

func (repo programRepository) DeleteAbstractGradeByID(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM abstract_grade WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting abstract grade")
	}
	return nil
}

func (repo programRepository) QueryCompletedPresentationIDs(ctx context.Context, accountID string) ([]string, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return []string{}, nil
	}

	var ids []string
	err := sqlx.SelectContext(ctx, repo.db, &ids, `
SELECT presentation_id
FROM abstract_grade
WHERE account_id = $1
GROUP BY presentation_id
ORDER BY MIN(created_at), presentation_id`,
		accountID)
	if err != nil {
		return nil, errors.Wrap(err, "querying completed presentations")
	}
	return ids, nil
}
