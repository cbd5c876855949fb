// Package authz implements the role permission matrix.
//
// The matrix maps role to resource to the set of allowed actions. It is total:
// every role of the closed enumeration lists every known resource, and a
// missing entry is a load-time error rather than an implicit grant or deny.
// Actions carrying the "_own" suffix are granted only when the caller owns the
// target resource.
package authz

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/allisson/cedms/internal/errors"
)

// Roles.
const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleAdmin    = "ADMIN"
)

// Resources.
const (
	ResourceDocuments = "documents"
	ResourceAuditLogs = "audit_logs"
)

// Document actions.
const (
	ActionUpload      = "upload"
	ActionList        = "list"
	ActionDownload    = "download"
	ActionApprove     = "approve"
	ActionReject      = "reject"
	ActionDelete      = "delete"
	ActionViewDeleted = "view_deleted"
)

// Audit log actions.
const (
	ActionRead   = "read"
	ActionVerify = "verify"
	ActionClear  = "clear"
)

// OwnSuffix qualifies an action as restricted to owned resources.
const OwnSuffix = "_own"

// Roles lists the closed role enumeration.
var Roles = []string{RoleEmployee, RoleManager, RoleAdmin}

// knownActions is the action vocabulary per resource, _own forms included.
var knownActions = map[string][]string{
	ResourceDocuments: {
		ActionUpload, ActionList, ActionList + OwnSuffix, ActionDownload,
		ActionDownload + OwnSuffix, ActionApprove, ActionReject, ActionDelete, ActionViewDeleted,
	},
	ResourceAuditLogs: {ActionRead, ActionVerify, ActionClear},
}

// ErrInvalidMatrix indicates a matrix that is not total or names unknown entries.
var ErrInvalidMatrix = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid permission matrix")

//go:embed matrix.yaml
var defaultMatrix []byte

// Matrix is role → resource → allowed actions.
type Matrix map[string]map[string][]string

// DefaultMatrix returns the embedded matrix.
func DefaultMatrix() (Matrix, error) {
	return ParseMatrix(defaultMatrix)
}

// LoadMatrix reads the matrix from path, or returns the embedded one when path
// is empty.
func LoadMatrix(path string) (Matrix, error) {
	if path == "" {
		return DefaultMatrix()
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided configuration path
	if err != nil {
		return nil, fmt.Errorf("failed to read permission matrix: %w", err)
	}
	return ParseMatrix(data)
}

// ParseMatrix decodes YAML and validates it.
func ParseMatrix(data []byte) (Matrix, error) {
	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Wrap(ErrInvalidMatrix, err.Error())
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks totality over Roles × known resources and rejects wildcards
// and unknown roles, resources or actions.
func (m Matrix) Validate() error {
	var problems []string

	for role, resources := range m {
		if !slices.Contains(Roles, role) {
			problems = append(problems, fmt.Sprintf("unknown role %q", role))
			continue
		}
		for resource, actions := range resources {
			known, ok := knownActions[resource]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s: unknown resource %q", role, resource))
				continue
			}
			for _, action := range actions {
				switch {
				case strings.Contains(action, "*"):
					problems = append(problems, fmt.Sprintf("%s.%s: wildcard %q not allowed", role, resource, action))
				case !slices.Contains(known, action):
					problems = append(problems, fmt.Sprintf("%s.%s: unknown action %q", role, resource, action))
				}
			}
		}
	}

	for _, role := range Roles {
		resources, ok := m[role]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing role %q", role))
			continue
		}
		for resource := range knownActions {
			if _, ok := resources[resource]; !ok {
				problems = append(problems, fmt.Sprintf("%s: missing resource %q", role, resource))
			}
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return apperrors.Wrap(ErrInvalidMatrix, strings.Join(problems, "; "))
	}
	return nil
}
