package db

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by every query against a connection that
// was never established.
var ErrNotConnected = errors.New("not connected to database")

// ConnectionError reports that the database could not be reached.
type ConnectionError struct {
	Engine   string
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("unable to connect to %s database %s: %v", e.Engine, e.Database, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryExecutionError wraps a failure of a single query.
type QueryExecutionError struct {
	Stage string
	Err   error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("error %s: %v", e.Stage, e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}
