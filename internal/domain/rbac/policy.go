package rbac

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
)

// Decision is the outcome of a policy check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Policy maps each role to the capability patterns it is granted.
// It is immutable after construction and safe for concurrent use.
type Policy struct {
	grants map[entity.Role][]string
}

// DefaultPolicy is the built-in table used when no policy file is configured.
func DefaultPolicy() *Policy {
	return &Policy{grants: map[entity.Role][]string{
		entity.RoleAdmin: {"*"},
		entity.RoleLibrarian: {
			"book.*",
			"author.view", "author.create", "author.update",
			"library.view",
			"user.view",
		},
		entity.RoleMember: {
			"book.view",
			"author.view",
			"library.view",
			"user.view",
		},
	}}
}

// NewPolicy validates grants and builds a Policy from them.
func NewPolicy(grants map[entity.Role][]string) (*Policy, error) {
	p := &Policy{grants: make(map[entity.Role][]string, len(grants))}
	for role, patterns := range grants {
		if !role.Valid() {
			return nil, fmt.Errorf("rbac: unknown role %q", role)
		}
		for _, pat := range patterns {
			if !validPattern(pat) {
				return nil, fmt.Errorf("rbac: invalid capability pattern %q for role %s", pat, role)
			}
		}
		p.grants[role] = append([]string(nil), patterns...)
	}
	return p, nil
}

type policyFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadPolicy reads a YAML policy:
//
//	roles:
//	  ADMIN: ["*"]
//	  LIBRARIAN: ["book.*", "library.view"]
//	  MEMBER: ["*.view"]
func LoadPolicy(path string) (*Policy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rbac: read policy: %w", err)
	}
	return ParsePolicy(b)
}

func ParsePolicy(b []byte) (*Policy, error) {
	var pf policyFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, fmt.Errorf("rbac: parse policy: %w", err)
	}
	grants := make(map[entity.Role][]string, len(pf.Roles))
	for name, patterns := range pf.Roles {
		role, ok := entity.ParseRole(name)
		if !ok {
			return nil, fmt.Errorf("rbac: unknown role %q", name)
		}
		grants[role] = patterns
	}
	return NewPolicy(grants)
}

// Check decides whether role may perform act on res.
// Unknown roles are always denied.
func (p *Policy) Check(role entity.Role, act Action, res Resource) Decision {
	return p.Has(role, CapabilityFor(res, act))
}

// Has reports whether role holds capability c.
func (p *Policy) Has(role entity.Role, c Capability) Decision {
	if p == nil {
		return Deny
	}
	for _, pat := range p.grants[role] {
		if matchPattern(pat, c) {
			return Allow
		}
	}
	return Deny
}

// Capabilities expands the role's patterns into concrete capabilities, sorted.
func (p *Policy) Capabilities(role entity.Role) []Capability {
	out := []Capability{}
	for _, c := range AllCapabilities() {
		if p.Has(role, c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
