package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Violation is the constraint class a rejected write tripped.
type Violation int

const (
	NoViolation Violation = iota
	UniqueViolation
	ForeignKeyViolation
	CheckViolation
	NotNullViolation
)

var violationBySQLState = map[string]Violation{
	"23505": UniqueViolation,
	"23503": ForeignKeyViolation,
	"23514": CheckViolation,
	"23502": NotNullViolation,
}

// sqlite only reports constraint failures as text.
var violationBySQLiteText = []struct {
	marker string
	kind   Violation
}{
	{"UNIQUE constraint failed", UniqueViolation},
	{"FOREIGN KEY constraint failed", ForeignKeyViolation},
	{"CHECK constraint failed", CheckViolation},
	{"NOT NULL constraint failed", NotNullViolation},
}

// Classify returns the violation class of err and, for Postgres, the
// constraint name.
func Classify(err error) (Violation, string) {
	if err == nil {
		return NoViolation, ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return violationBySQLState[pgErr.Code], pgErr.ConstraintName
	}
	msg := err.Error()
	for _, m := range violationBySQLiteText {
		if strings.Contains(msg, m.marker) {
			return m.kind, ""
		}
	}
	return NoViolation, ""
}

// IsUniqueViolation reports a duplicate key. A non-empty constraint must
// match the Postgres constraint name, or appear in the message for drivers
// that do not report one.
func IsUniqueViolation(err error, constraint string) bool {
	kind, name := Classify(err)
	if kind != UniqueViolation {
		return false
	}
	if constraint == "" {
		return true
	}
	if name != "" {
		return name == constraint
	}
	return strings.Contains(err.Error(), constraint)
}

// IsIntegrityViolation reports any constraint rejection.
func IsIntegrityViolation(err error) bool {
	kind, _ := Classify(err)
	return kind != NoViolation
}
