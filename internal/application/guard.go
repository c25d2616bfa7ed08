package application

import (
	"expvar"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
)

// decisionCounter is published at /api/debug/vars as rbac_decisions.
var decisionCounter = expvar.NewMap("rbac_decisions")

// Guard is called first in every service operation that needs a permission.
type Guard struct {
	Policy *rbac.Policy
	Logger *logrus.Logger
}

func NewGuard(policy *rbac.Policy, logger *logrus.Logger) *Guard {
	if policy == nil {
		policy = rbac.DefaultPolicy()
	}
	return &Guard{Policy: policy, Logger: logger}
}

// Authenticated fails with ErrUnauthenticated when there is no actor.
func (g *Guard) Authenticated(a *rbac.Actor) error {
	if a == nil || a.UserID == "" {
		return apperror.Unauthenticated()
	}
	return nil
}

// Authorize returns nil when the actor's role may perform act on res.
// A denial is terminal: callers must return the error untouched.
func (g *Guard) Authorize(a *rbac.Actor, act rbac.Action, res rbac.Resource) error {
	if err := g.Authenticated(a); err != nil {
		return err
	}
	d := g.Policy.Check(a.Role, act, res)
	decisionCounter.Add(d.String(), 1)
	if d == rbac.Allow {
		return nil
	}
	if g.Logger != nil {
		g.Logger.WithFields(logrus.Fields{
			"request_id": a.RequestID,
			"user_id":    a.UserID,
			"role":       a.Role,
			"capability": rbac.CapabilityFor(res, act),
		}).Debug("permission denied")
	}
	return apperror.Unauthorized("you do not have permission to " + string(act) + " " + string(res))
}

// Can is Authorize without counting or logging; it drives UI flags.
func (g *Guard) Can(a *rbac.Actor, act rbac.Action, res rbac.Resource) bool {
	if a == nil {
		return false
	}
	return g.Policy.Check(a.Role, act, res) == rbac.Allow
}

func (g *Guard) Capabilities(a *rbac.Actor) []rbac.Capability {
	if a == nil {
		return []rbac.Capability{}
	}
	return g.Policy.Capabilities(a.Role)
}

// Permissions are the can_* flags attached to list and detail responses.
type Permissions struct {
	CanAdd    bool `json:"can_add"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func (g *Guard) Permissions(a *rbac.Actor, res rbac.Resource) Permissions {
	return Permissions{
		CanAdd:    g.Can(a, rbac.ActionCreate, res),
		CanEdit:   g.Can(a, rbac.ActionUpdate, res),
		CanDelete: g.Can(a, rbac.ActionDelete, res),
	}
}
