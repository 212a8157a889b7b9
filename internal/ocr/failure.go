package ocr

import (
	"errors"
	"fmt"
)

// ErrEmptyResult marks an engine run that finished without producing text.
var ErrEmptyResult = errors.New("no text recognized")

// Failure is the error every OCR adapter returns. Stage names the step that
// broke ("init", "encode", "request", "decode", ...).
type Failure struct {
	Engine string
	Stage  string
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Engine, f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps err; a nil err becomes ErrEmptyResult.
func NewFailure(engine, stage string, err error) *Failure {
	if err == nil {
		err = ErrEmptyResult
	}
	return &Failure{Engine: engine, Stage: stage, Err: err}
}

// FailureFromPanic converts a recovered panic value into a *Failure.
func FailureFromPanic(engine string, r any) *Failure {
	if err, ok := r.(error); ok {
		return NewFailure(engine, "panic", err)
	}
	return NewFailure(engine, "panic", fmt.Errorf("%v", r))
}
