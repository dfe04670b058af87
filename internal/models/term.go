package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Semester names a half of a school year.
type Semester string

const (
	SemesterFirst  Semester = "1ST"
	SemesterSecond Semester = "2ND"
)

// TermStatus marks whether a term is the current one.
type TermStatus string

const (
	TermStatusActive   TermStatus = "ACTIVE"
	TermStatusArchived TermStatus = "ARCHIVED"
)

// SchoolTerm is one school-year semester. Exactly one term is active at a
// time; new events attach to whichever term is active when they are created.
type SchoolTerm struct {
	ID         string     `db:"id" json:"id"`
	SchoolYear string     `db:"school_year" json:"school_year"`
	Semester   Semester   `db:"semester" json:"semester"`
	Status     TermStatus `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Next computes the term that follows this one: 1st semester rolls to 2nd
// within the same school year, 2nd semester opens the 1st of the next year.
func (t SchoolTerm) Next() (SchoolTerm, error) {
	next := SchoolTerm{Status: TermStatusActive}
	switch t.Semester {
	case SemesterFirst:
		next.SchoolYear = t.SchoolYear
		next.Semester = SemesterSecond
	case SemesterSecond:
		parts := strings.Split(t.SchoolYear, "-")
		if len(parts) != 2 {
			return SchoolTerm{}, fmt.Errorf("malformed school year %q", t.SchoolYear)
		}
		end, err := strconv.Atoi(parts[1])
		if err != nil {
			return SchoolTerm{}, fmt.Errorf("malformed school year %q", t.SchoolYear)
		}
		next.SchoolYear = fmt.Sprintf("%d-%d", end, end+1)
		next.Semester = SemesterFirst
	default:
		return SchoolTerm{}, fmt.Errorf("unknown semester %q", t.Semester)
	}
	return next, nil
}
