package models

import "time"

// StudentStatus reflects the roster state of a student account.
type StudentStatus string

const (
	StudentStatusActive       StudentStatus = "ACTIVE"
	StudentStatusUnregistered StudentStatus = "UNREGISTERED"
	StudentStatusDisabled     StudentStatus = "DISABLED"
)

// Student is a member of the campus roster, identified on scans by the
// id number printed on their campus card.
type Student struct {
	ID         string        `db:"id" json:"id"`
	IDNumber   string        `db:"id_number" json:"id_number"`
	FirstName  string        `db:"first_name" json:"first_name"`
	MiddleName *string       `db:"middle_name" json:"middle_name,omitempty"`
	LastName   string        `db:"last_name" json:"last_name"`
	Suffix     *string       `db:"suffix" json:"suffix,omitempty"`
	BlockID    string        `db:"block_id" json:"block_id"`
	Status     StudentStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// Block is a class section within a term; events attach to blocks and
// attendance is pre-seeded for every active student of each attached block.
type Block struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	Course     string    `db:"course" json:"course"`
	YearLevel  int       `db:"year_level" json:"year_level"`
	TermID     string    `db:"term_id" json:"term_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
