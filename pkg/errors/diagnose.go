package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// StorageFault carries the Postgres fields of a failed statement.
type StorageFault struct {
	SQLState   string `json:"sql_state"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Diagnosis is the log-side view of an error: its code, the unwrap chain and,
// when a driver error sits in the chain, the storage fault.
type Diagnosis struct {
	Message string        `json:"message"`
	Code    Code          `json:"code,omitempty"`
	Chain   []string      `json:"chain,omitempty"`
	Storage *StorageFault `json:"storage,omitempty"`
}

func Diagnose(err error) Diagnosis {
	if err == nil {
		return Diagnosis{}
	}
	d := Diagnosis{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.Storage = storageFault(err)
	return d
}

// LogFields flattens the diagnosis for structured logging.
func (d Diagnosis) LogFields() map[string]any {
	fields := map[string]any{
		"error":       d.Message,
		"error_code":  string(d.Code),
		"error_chain": d.Chain,
	}
	if s := d.Storage; s != nil {
		fields["sql_state"] = s.SQLState
		fields["sql_constraint"] = s.Constraint
		fields["sql_table"] = s.Table
		fields["sql_column"] = s.Column
		fields["sql_detail"] = s.Detail
	}
	return fields
}

func storageFault(err error) *StorageFault {
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) {
		return &StorageFault{
			SQLState:   pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return &StorageFault{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
