package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrorDump is the flattened, log-friendly view of an error chain.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	Store        string `json:"store,omitempty"`
	StoreCode    string `json:"store_code,omitempty"`
	StoreDetail  string `json:"store_detail,omitempty"`
	StoreMessage string `json:"store_message,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
}

// Dump walks the error chain and extracts driver-level details from
// Postgres (pgx, lib/pq) and MongoDB errors.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.Store = "postgres"
		d.StoreCode = pgxErr.Code
		d.StoreDetail = pgxErr.Detail
		d.StoreMessage = pgxErr.Message
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.Store = "postgres"
		d.StoreCode = string(pqErr.Code)
		d.StoreDetail = pqErr.Detail
		d.StoreMessage = pqErr.Message
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		return d
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) && len(writeErr.WriteErrors) > 0 {
		first := writeErr.WriteErrors[0]
		d.Store = "mongo"
		d.StoreCode = fmt.Sprintf("%d", first.Code)
		d.StoreMessage = first.Message
		return d
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		d.Store = "mongo"
		d.StoreCode = fmt.Sprintf("%d", cmdErr.Code)
		d.StoreDetail = cmdErr.Name
		d.StoreMessage = cmdErr.Message
		return d
	}

	return d
}

// Fields renders the dump as structured log fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Store != "" {
		fields["store"] = d.Store
		fields["store_code"] = d.StoreCode
		fields["store_detail"] = d.StoreDetail
		fields["store_message"] = d.StoreMessage
	}
	if d.PGConstraint != "" {
		fields["pg_constraint"] = d.PGConstraint
	}
	if d.PGTable != "" {
		fields["pg_table"] = d.PGTable
	}
	if d.PGColumn != "" {
		fields["pg_column"] = d.PGColumn
	}
	return fields
}
