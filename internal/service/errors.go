package service

import (
	"errors"
	"fmt"
)

// ErrNoFile is returned when a request carries no uploaded file.
var ErrNoFile = errors.New("no file uploaded")

// IngestionError is a fatal ingestion failure: the file could not be placed
// in storage and no record was created.
type IngestionError struct {
	Op  string
	Err error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
