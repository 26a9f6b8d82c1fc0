package inmemdb

import (
	"sync"

	"github.com/bmukendi/kongamano/core/account"
	"github.com/bmukendi/kongamano/core/program"
)

// DB is an in-memory store, used for tests. Insertion order is kept per table
// so listings match the creation order the SQL store gets from created_at.
type DB struct {
	mutex sync.RWMutex

	accounts     map[string]*account.Account
	accountOrder []string

	blocks     map[string]*program.TimeBlock
	blockOrder []string

	presentations     map[string]*program.Presentation
	presentationOrder []string

	grades     map[string]*program.Grade
	gradeOrder []string

	abstractGrades     map[string]*program.AbstractGrade
	abstractGradeOrder []string
}

func NewDB() *DB {
	return &DB{
		accounts:       make(map[string]*account.Account),
		blocks:         make(map[string]*program.TimeBlock),
		presentations:  make(map[string]*program.Presentation),
		grades:         make(map[string]*program.Grade),
		abstractGrades: make(map[string]*program.AbstractGrade),
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
