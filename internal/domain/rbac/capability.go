package rbac

import "strings"

// Action is an operation a handler performs on a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource is the kind of entity an action targets.
type Resource string

const (
	ResourceBook    Resource = "book"
	ResourceLibrary Resource = "library"
	ResourceAuthor  Resource = "author"
	ResourceUser    Resource = "user"
	ResourceReport  Resource = "report"
)

// Actions lists every action in a stable order.
func Actions() []Action {
	return []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete}
}

// Resources lists every resource in a stable order.
func Resources() []Resource {
	return []Resource{ResourceBook, ResourceLibrary, ResourceAuthor, ResourceUser, ResourceReport}
}

// Capability is a named permission of the form "<resource>.<action>".
type Capability string

func CapabilityFor(res Resource, act Action) Capability {
	return Capability(string(res) + "." + string(act))
}

// AllCapabilities is the cross product of Resources and Actions.
func AllCapabilities() []Capability {
	out := make([]Capability, 0, len(Resources())*len(Actions()))
	for _, r := range Resources() {
		for _, a := range Actions() {
			out = append(out, CapabilityFor(r, a))
		}
	}
	return out
}

// matchPattern matches a grant pattern against a capability.
//
//	"*"           matches everything
//	"book.*"      matches every action on book
//	"*.view"      matches view on every resource
//	"book.view"   matches exactly
func matchPattern(pattern string, c Capability) bool {
	perm := string(c)
	if pattern == "*" || pattern == perm {
		return true
	}
	pp := strings.Split(pattern, ".")
	cp := strings.Split(perm, ".")
	if len(pp) != len(cp) {
		return false
	}
	for i := range pp {
		if pp[i] != "*" && pp[i] != cp[i] {
			return false
		}
	}
	return true
}

// validPattern accepts "*" or "<resource|*>.<action|*>" with known names.
func validPattern(p string) bool {
	if p == "*" {
		return true
	}
	parts := strings.Split(p, ".")
	if len(parts) != 2 {
		return false
	}
	okRes := parts[0] == "*"
	for _, r := range Resources() {
		if parts[0] == string(r) {
			okRes = true
		}
	}
	okAct := parts[1] == "*"
	for _, a := range Actions() {
		if parts[1] == string(a) {
			okAct = true
		}
	}
	return okRes && okAct
}
