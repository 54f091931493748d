package scheduler

import (
	"errors"
	"fmt"
)

// TaskMetaError exposes correlation metadata for a boundary-API failure,
// adapted from the teacher's index-tagged task errors to this domain's
// task_id/user_task_id pair.
type TaskMetaError interface {
	error
	Unwrap() error
	TaskID() (uint32, bool)
	UserTaskID() (uint32, bool)
}

type taggedError struct {
	err           error
	taskID        uint32
	hasTaskID     bool
	userTaskID    uint32
	hasUserTaskID bool
}

func newTaggedError(err error) *taggedError {
	return &taggedError{err: err}
}

func (e *taggedError) withTaskID(id uint32) *taggedError {
	e.taskID, e.hasTaskID = id, true
	return e
}

func (e *taggedError) withUserTaskID(id uint32) *taggedError {
	e.userTaskID, e.hasUserTaskID = id, true
	return e
}

func (e *taggedError) Error() string { return e.err.Error() }
func (e *taggedError) Unwrap() error { return e.err }

func (e *taggedError) TaskID() (uint32, bool) { return e.taskID, e.hasTaskID }

func (e *taggedError) UserTaskID() (uint32, bool) { return e.userTaskID, e.hasUserTaskID }

func (e *taggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "task(id=%d,user_task_id=%d): %+v", e.taskID, e.userTaskID, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractTaskID returns the task_id carried by err, if any.
func ExtractTaskID(err error) (uint32, bool) {
	var tme TaskMetaError
	if errors.As(err, &tme) {
		return tme.TaskID()
	}
	return 0, false
}

// ExtractUserTaskID returns the user_task_id carried by err, if any.
func ExtractUserTaskID(err error) (uint32, bool) {
	var tme TaskMetaError
	if errors.As(err, &tme) {
		return tme.UserTaskID()
	}
	return 0, false
}
