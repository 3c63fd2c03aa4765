package sqlstore

import "errors"

var (
	// ErrUnknownColumn is returned when a query or record refers to a column the table does not declare.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidTable is returned by New for a table without a name or without id and tenant_id columns.
	ErrInvalidTable = errors.New("invalid table definition")
)
