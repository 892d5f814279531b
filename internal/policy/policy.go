// AngelaMos | 2026
// policy.go

// Package policy holds the one authorization table every handler and service
// consults. Rules are keyed by action, caller role and whether the caller owns
// the resource.
package policy

import (
	"fmt"

	"github.com/carterperez-dev/blog-api/internal/core"
)

type Action string

const (
	PostCreate Action = "post:create"
	PostRead   Action = "post:read"
	PostUpdate Action = "post:update"
	PostDelete Action = "post:delete"

	UserList      Action = "user:list"
	UserUpdate    Action = "user:update"
	UserDelete    Action = "user:delete"
	UserProvision Action = "user:provision"
	SystemStats   Action = "system:stats"
)

const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleAnonymous = ""
)

// Subject is the caller. The zero value is an anonymous caller.
type Subject struct {
	UserID string
	Role   string
}

func (s Subject) IsAnonymous() bool {
	return s.UserID == ""
}

type rule struct {
	admin     bool
	owner     bool
	nonOwner  bool
	anonymous bool
}

var table = map[Action]rule{
	PostCreate:    {admin: true},
	PostRead:      {admin: true, owner: true, nonOwner: true, anonymous: true},
	PostUpdate:    {admin: true, owner: true},
	PostDelete:    {admin: true, owner: true},
	UserList:      {admin: true, owner: true, nonOwner: true, anonymous: true},
	UserUpdate:    {admin: true},
	UserDelete:    {admin: true},
	UserProvision: {admin: true},
	SystemStats:   {admin: true},
}

// Allowed reports whether subject may perform action on a resource owned by
// ownerID. An empty ownerID means the resource has no owner yet.
func Allowed(subject Subject, action Action, ownerID string) bool {
	r, ok := table[action]
	if !ok {
		return false
	}

	switch {
	case subject.IsAnonymous():
		return r.anonymous
	case subject.Role == RoleAdmin:
		return r.admin
	case subject.Role != RoleUser:
		return false
	case ownerID != "" && ownerID == subject.UserID:
		return r.owner
	default:
		return r.nonOwner
	}
}

// Authorize is Allowed as an error: nil, or core.ErrUnauthorized for
// anonymous callers and core.ErrForbidden otherwise.
func Authorize(subject Subject, action Action, ownerID string) error {
	if Allowed(subject, action, ownerID) {
		return nil
	}

	if subject.IsAnonymous() {
		return fmt.Errorf("%s: %w", action, core.ErrUnauthorized)
	}

	return fmt.Errorf("%s: %w", action, core.ErrForbidden)
}
