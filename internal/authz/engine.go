package authz

import (
	"slices"
	"strings"
)

// Engine answers authorization questions against a validated Matrix.
type Engine struct {
	matrix Matrix
}

// NewEngine creates an Engine. The matrix must have passed Validate.
func NewEngine(matrix Matrix) *Engine {
	return &Engine{matrix: matrix}
}

// Authorize grants the action when it is listed verbatim for the role and
// resource, or when its _own form is listed and isOwner holds. Anything
// absent from the matrix is denied. Callers pass the base action; an already
// qualified action is denied.
func (e *Engine) Authorize(role, resource, action string, isOwner bool) bool {
	if strings.HasSuffix(action, OwnSuffix) {
		return false
	}
	actions, ok := e.matrix[role][resource]
	if !ok {
		return false
	}
	if slices.Contains(actions, action) {
		return true
	}
	return isOwner && slices.Contains(actions, action+OwnSuffix)
}

// CanAny reports whether the role holds action in either its plain or _own
// form, regardless of ownership.
func (e *Engine) CanAny(role, resource, action string) bool {
	return e.Authorize(role, resource, action, true)
}
