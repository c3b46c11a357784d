package redo

import "errors"

var (
	ErrUnknownTab       = errors.New("redo.errors.unknown_tab")
	ErrProjectNotFound  = errors.New("redo.errors.project_not_found")
	ErrRedoLimitReached = errors.New("redo.errors.redo_limit_reached")
	ErrNilGenerator     = errors.New("redo.errors.nil_generator")
)
