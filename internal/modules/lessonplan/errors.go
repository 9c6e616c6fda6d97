package lessonplan

import "errors"

var (
	ErrNoConcepts        = errors.New("lessonplan: no concepts to allocate")
	ErrInvalidDuration   = errors.New("lessonplan: total duration must not be negative")
	ErrEmptyResult       = errors.New("lessonplan: request produced no generation units")
	ErrSessionCountQuery = errors.New("lessonplan: session count query failed")
	ErrSessionCountParse = errors.New("lessonplan: session count reply is not a positive integer")
	ErrTooManySessions   = errors.New("lessonplan: session count exceeds limit")
)
