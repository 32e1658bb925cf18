package xmerge

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalidConfiguration is returned by Merge when an option is unusable.
var ErrInvalidConfiguration = errors.New("xmerge: invalid configuration")

// IOError reports a failed file operation. A run that returns an IOError
// produced no result.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("xmerge: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("xmerge: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// appendErr adds the non-nil errs to err. A single error is returned as is.
func appendErr(err error, errs ...error) error {
	for _, e := range errs {
		if e == nil {
			continue
		}
		if err == nil {
			err = e
			continue
		}
		err = multierror.Append(err, e)
	}
	return err
}
