// Package catalog holds the immutable registry of proposal definitions.
//
// A registry is loaded once from YAML (the embedded default or an operator
// file) and every definition's pricing rule and row policy are resolved at
// load time, so lookups never dispatch on free text.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"proposalkit/internal/compose"
	"proposalkit/internal/pricing"
)

//go:embed default.yaml
var defaultCatalog []byte

var (
	ErrUnknownProposal = errors.New("catalog: unknown proposal")
	ErrInvalidCatalog  = errors.New("catalog: invalid catalog")
)

// FieldType controls how a special field's raw input becomes placeholder text.
type FieldType string

const (
	FieldDate   FieldType = "date"
	FieldAmount FieldType = "amount"
	FieldText   FieldType = "text"
)

// WrapperAngle is the only supported special-field wrapper: <<name>>.
const WrapperAngle = "<<"

type PricingField struct {
	Label string `yaml:"label" json:"label"`
	Key   string `yaml:"key" json:"key"`
}

type SpecialField struct {
	Name    string    `yaml:"name" json:"name"`
	Wrapper string    `yaml:"wrapper,omitempty" json:"wrapper"`
	Type    FieldType `yaml:"type" json:"type"`
}

// Placeholder returns the token this field fills.
func (f SpecialField) Placeholder() string {
	return compose.Key(f.Name)
}

// Role is one team-composition line; Key is the placeholder name.
type Role struct {
	Label string `yaml:"label" json:"label"`
	Key   string `yaml:"key" json:"key"`
}

// Definition describes one proposal type.
type Definition struct {
	Kind          string           `yaml:"kind" json:"kind"`
	Name          string           `yaml:"name" json:"name"`
	Template      string           `yaml:"template" json:"template"`
	TeamType      string           `yaml:"team_type" json:"team_type"`
	RowPolicy     string           `yaml:"row_policy,omitempty" json:"row_policy,omitempty"`
	PricingFields []PricingField   `yaml:"pricing_fields" json:"pricing_fields"`
	SpecialFields []SpecialField   `yaml:"special_fields,omitempty" json:"special_fields,omitempty"`
	Pricing       pricing.RuleSpec `yaml:"pricing" json:"pricing"`

	Team []Role `yaml:"-" json:"team"`

	rule   pricing.Rule
	policy compose.RowPolicy
}

// PricingKeys returns the pricing keys in display order.
func (d *Definition) PricingKeys() []string {
	keys := make([]string, 0, len(d.PricingFields))
	for _, f := range d.PricingFields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Quote applies the definition's compiled pricing rule.
func (d *Definition) Quote(amounts map[string]int64, currency pricing.Currency) pricing.Quote {
	return d.rule(amounts, currency)
}

// Policy returns the row pruning policy for the definition's template.
func (d *Definition) Policy() compose.RowPolicy {
	return d.policy
}

type file struct {
	Teams     map[string][]Role `yaml:"teams"`
	Proposals []*Definition     `yaml:"proposals"`
}

// Registry is safe for concurrent readers; it is never mutated after Load.
type Registry struct {
	defs   map[string]*Definition
	order  []*Definition
	teams  map[string][]Role
	byName map[string]*Definition
}

// Default returns the registry built from the embedded catalog.
func Default() (*Registry, error) {
	return Load(defaultCatalog)
}

// LoadFile reads a catalog from path. An empty path selects the default.
func LoadFile(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Load(data)
}

// Load parses and validates a YAML catalog.
func Load(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(f.Proposals) == 0 {
		return nil, fmt.Errorf("%w: no proposals defined", ErrInvalidCatalog)
	}

	r := &Registry{
		defs:   make(map[string]*Definition, len(f.Proposals)),
		order:  make([]*Definition, 0, len(f.Proposals)),
		teams:  f.Teams,
		byName: make(map[string]*Definition, len(f.Proposals)),
	}
	for i, def := range f.Proposals {
		if def == nil {
			return nil, fmt.Errorf("%w: proposal #%d is empty", ErrInvalidCatalog, i+1)
		}
		if err := r.add(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(def *Definition) error {
	def.Kind = strings.TrimSpace(def.Kind)
	def.Name = strings.TrimSpace(def.Name)
	switch {
	case def.Kind == "":
		return fmt.Errorf("%w: proposal %q has no kind", ErrInvalidCatalog, def.Name)
	case def.Name == "":
		def.Name = def.Kind
	}
	if _, dup := r.defs[def.Kind]; dup {
		return fmt.Errorf("%w: duplicate proposal kind %q", ErrInvalidCatalog, def.Kind)
	}
	if other, dup := r.byName[strings.ToLower(def.Name)]; dup {
		return fmt.Errorf("%w: %s: name %q clashes with %s", ErrInvalidCatalog, def.Kind, def.Name, other.Kind)
	}
	if strings.TrimSpace(def.Template) == "" {
		return fmt.Errorf("%w: %s: template is required", ErrInvalidCatalog, def.Kind)
	}
	if len(def.PricingFields) == 0 {
		return fmt.Errorf("%w: %s: at least one pricing field is required", ErrInvalidCatalog, def.Kind)
	}
	seen := make(map[string]struct{}, len(def.PricingFields))
	for _, pf := range def.PricingFields {
		if pf.Key == "" {
			return fmt.Errorf("%w: %s: pricing field %q has no key", ErrInvalidCatalog, def.Kind, pf.Label)
		}
		if _, dup := seen[pf.Key]; dup {
			return fmt.Errorf("%w: %s: duplicate pricing key %q", ErrInvalidCatalog, def.Kind, pf.Key)
		}
		seen[pf.Key] = struct{}{}
	}

	team, ok := r.teams[def.TeamType]
	if !ok {
		return fmt.Errorf("%w: %s: unknown team type %q", ErrInvalidCatalog, def.Kind, def.TeamType)
	}
	def.Team = team

	for i := range def.SpecialFields {
		sf := &def.SpecialFields[i]
		if sf.Wrapper == "" {
			sf.Wrapper = WrapperAngle
		}
		if sf.Wrapper != WrapperAngle {
			return fmt.Errorf("%w: %s: special field %q uses unsupported wrapper %q", ErrInvalidCatalog, def.Kind, sf.Name, sf.Wrapper)
		}
		switch sf.Type {
		case FieldDate, FieldAmount, FieldText:
		case "":
			sf.Type = FieldText
		default:
			return fmt.Errorf("%w: %s: special field %q has unknown type %q", ErrInvalidCatalog, def.Kind, sf.Name, sf.Type)
		}
	}

	rule, err := pricing.Compile(def.Pricing, def.PricingKeys())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, def.Kind, err)
	}
	def.rule = rule

	policy, err := compose.PolicyByName(def.RowPolicy)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, def.Kind, err)
	}
	def.policy = policy
	def.RowPolicy = policy.Name

	r.defs[def.Kind] = def
	r.byName[strings.ToLower(def.Name)] = def
	r.order = append(r.order, def)
	return nil
}

// Get looks up a definition by kind slug.
func (r *Registry) Get(kind string) (*Definition, error) {
	if def, ok := r.defs[strings.TrimSpace(kind)]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProposal, kind)
}

// FindByName looks up a definition by display name, case-insensitively.
func (r *Registry) FindByName(name string) (*Definition, error) {
	if def, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProposal, name)
}

// Lookup accepts either a kind slug or a display name.
func (r *Registry) Lookup(ref string) (*Definition, error) {
	if def, err := r.Get(ref); err == nil {
		return def, nil
	}
	return r.FindByName(ref)
}

// List returns definitions in catalog order.
func (r *Registry) List() []*Definition {
	out := make([]*Definition, len(r.order))
	copy(out, r.order)
	return out
}

// Team returns the roles of a team schema, or nil when unknown.
func (r *Registry) Team(teamType string) []Role {
	return r.teams[teamType]
}

// TeamTypes lists the known team schemas, sorted.
func (r *Registry) TeamTypes() []string {
	out := make([]string, 0, len(r.teams))
	for k := range r.teams {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
