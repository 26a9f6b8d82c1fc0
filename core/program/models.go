package program

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bmukendi/kongamano/core"
)

// Categories a block may be listed under. BlockType itself is free text;
// only the category listing endpoint restricts to this closed set.
var Categories = []string{"poster", "presentation", "blitz"}

// PosterBlockType is the block type whose day view groups presentations into
// timed sub-slots.
const PosterBlockType = "poster"

// TimeBlock is a scheduled slot that may host one or many Presentations.
// All times are naive local datetimes.
type TimeBlock struct {
	ID          string
	Day         string
	StartTime   time.Time
	EndTime     time.Time // end >= start is expected but not enforced
	Title       string
	Description string
	Location    string
	BlockType   string
	SubLength   *int // minutes per hosted presentation, when hosting many
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Length is the block duration in minutes.
func (b TimeBlock) Length() float64 {
	return b.EndTime.Sub(b.StartTime).Minutes()
}

// Presenter is the subset of an account shown alongside a presentation.
type Presenter struct {
	ID        string `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

type Presentation struct {
	ID         string
	Title      string
	Abstract   string
	Subject    string
	Time       *time.Time // explicit time; overrides anything derived
	NumInBlock *int       // position within the hosting block
	ScheduleID *string
	Schedule   *TimeBlock  // preloaded by the repository
	Presenters []Presenter // preloaded by the repository
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EffectiveTime resolves the presentation's display/sort time:
//
//  1. an explicit time is returned verbatim;
//  2. otherwise, with a hosting block, block start + NumInBlock*SubLength
//     minutes when both are set, else the block start unmodified;
//  3. otherwise nil — the presentation has no resolvable time.
//
// The result is recomputed on every call and never stored.
func (p Presentation) EffectiveTime() *time.Time {
	if p.Time != nil {
		return p.Time
	}
	if p.Schedule != nil {
		if p.NumInBlock != nil && p.Schedule.SubLength != nil {
			t := p.Schedule.StartTime.Add(time.Duration(*p.NumInBlock**p.Schedule.SubLength) * time.Minute)
			return &t
		}
		t := p.Schedule.StartTime
		return &t
	}
	return nil
}

// CoalescedTime is the explicit time if present, else the block start. It is
// the filter key for the upcoming listing; EffectiveTime remains the sort key
// and the two can disagree when NumInBlock/SubLength apply.
func (p Presentation) CoalescedTime() *time.Time {
	if p.Time != nil {
		return p.Time
	}
	if p.Schedule != nil {
		t := p.Schedule.StartTime
		return &t
	}
	return nil
}

// Grade is a peer review of a presentation: at most one per
// (grader, presentation) pair.
type Grade struct {
	ID                string
	AccountID         string
	PresentationID    string
	Criteria1         int
	Criteria2         int
	Criteria3         int
	GraderName        *string // preloaded
	PresentationTitle *string // preloaded
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AbstractGrade is a review of a presentation's abstract. Unlike Grade there
// is no uniqueness on (grader, presentation); duplicates are deduplicated
// only by the completed-presentations read.
type AbstractGrade struct {
	ID                string
	AccountID         string
	PresentationID    string
	Criteria1         float64
	Criteria2         float64
	Criteria3         float64
	GraderName        *string
	PresentationTitle *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// GradeAverage is one row of the per-presentation score ranking.
type GradeAverage struct {
	PresentationID    string  `json:"presentation_id"`
	PresentationTitle *string `json:"presentation_title"`
	AverageScore      float64 `json:"average_score"`
	NumGrades         int     `json:"num_grades"`
}

// DayGroup is one poster block of a day view with its ordered presentations.
type DayGroup struct {
	Block         TimeBlock
	Presentations []Presentation
}

// NewTimeBlock contains information needed to create a new TimeBlock. The
// times arrive pre-parsed; alias handling and datetime parsing are the
// transport's concern.
type NewTimeBlock struct {
	Day         string `json:"day" validate:"required"`
	Title       string `json:"title" validate:"required"`
	StartTime   time.Time
	EndTime     time.Time
	Description string
	Location    string
	BlockType   string
	SubLength   *int
}

func (nb *NewTimeBlock) Validate(validate *validator.Validate) error {
	nb.Day = core.CleanString(nb.Day)
	nb.Title = core.CleanString(nb.Title)
	return validate.Struct(nb)
}

// UpdateTimeBlock defines a partial update: nil fields stay unchanged. The
// times are only set when the caller provided a parseable value — an
// unparseable datetime leaves the stored one alone.
type UpdateTimeBlock struct {
	Day         *string
	Title       *string
	StartTime   *time.Time
	EndTime     *time.Time
	Description *string
	Location    *string
	BlockType   *string
	SubLength   *int
}

// NewPresentation contains information needed to create a new Presentation.
type NewPresentation struct {
	Title    string `json:"title" validate:"required"`
	Abstract string `json:"abstract"`
	Subject  string `json:"subject"`
	Time     time.Time
}

func (np *NewPresentation) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	return validate.Struct(np)
}

// UpdatePresentation defines a partial update. Time and ScheduleID are
// tri-state: absent (Set false), explicit clear (Set true, value nil) or a
// new value.
type UpdatePresentation struct {
	Title         *string
	Abstract      *string
	Subject       *string
	Time          *time.Time
	TimeSet       bool
	ScheduleID    *string
	ScheduleIDSet bool
}

// OrderEntry is one row of a reorder batch. Entries with a missing id or
// position are skipped, not rejected.
type OrderEntry struct {
	PresentationID *string `json:"presentation_id"`
	NumInBlock     *int    `json:"num_in_block"`
}

// PositionUpdate is a staged, validated reorder row.
type PositionUpdate struct {
	PresentationID string
	NumInBlock     int
}

// NewGrade contains information needed to create a Grade.
type NewGrade struct {
	AccountID      string `json:"user_id" validate:"required"`
	PresentationID string `json:"presentation_id" validate:"required"`
	Criteria1      *int   `json:"criteria_1" validate:"required"`
	Criteria2      *int   `json:"criteria_2" validate:"required"`
	Criteria3      *int   `json:"criteria_3" validate:"required"`
}

func (ng NewGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ng)
}

// UpdateGrade defines a partial update of a Grade.
type UpdateGrade struct {
	AccountID      *string `json:"user_id"`
	PresentationID *string `json:"presentation_id"`
	Criteria1      *int    `json:"criteria_1"`
	Criteria2      *int    `json:"criteria_2"`
	Criteria3      *int    `json:"criteria_3"`
}

// NewAbstractGrade contains information needed to create an AbstractGrade.
type NewAbstractGrade struct {
	AccountID      string   `json:"user_id" validate:"required"`
	PresentationID string   `json:"presentation_id" validate:"required"`
	Criteria1      *float64 `json:"criteria_1" validate:"required"`
	Criteria2      *float64 `json:"criteria_2" validate:"required"`
	Criteria3      *float64 `json:"criteria_3" validate:"required"`
}

func (ng NewAbstractGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ng)
}

// UpdateAbstractGrade defines a partial update of an AbstractGrade.
type UpdateAbstractGrade struct {
	AccountID      *string  `json:"user_id"`
	PresentationID *string  `json:"presentation_id"`
	Criteria1      *float64 `json:"criteria_1"`
	Criteria2      *float64 `json:"criteria_2"`
	Criteria3      *float64 `json:"criteria_3"`
}
