// Package graph defines the declarative delta vocabulary shared by the schema
// mapper and the graph stores: node and relationship references keyed by their
// identity properties, and the upsert operations applied under merge semantics.
package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Prop is one named property value. Key properties are kept as ordered slices
// so a node's identity renders the same way on every call.
type Prop struct {
	Name  string
	Value any
}

// P is shorthand for building a Prop.
func P(name string, value any) Prop {
	return Prop{Name: name, Value: value}
}

// Properties is a bag of non-key properties. A nil value removes the property
// from the target when set.
type Properties map[string]any

// Names returns the property names in sorted order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NodeRef identifies a node by label and key properties.
type NodeRef struct {
	Label string
	Key   []Prop
}

// Node builds a NodeRef.
func Node(label string, key ...Prop) NodeRef {
	return NodeRef{Label: label, Key: key}
}

// KeyString renders the key properties canonically, e.g. "match_id=1|number=2".
// Backslash, '|' and '=' inside values are escaped with a backslash.
func (n NodeRef) KeyString() string {
	return propString(n.Key)
}

func (n NodeRef) String() string {
	return n.Label + "{" + n.KeyString() + "}"
}

// KeyProperties returns the key as a property map.
func (n NodeRef) KeyProperties() Properties {
	out := make(Properties, len(n.Key))
	for _, p := range n.Key {
		out[p.Name] = p.Value
	}
	return out
}

// RelRef identifies a relationship by its endpoints, its type and an optional
// tag. Tag properties are part of the identity, so two relationships between
// the same nodes that differ only in tag are distinct.
type RelRef struct {
	From NodeRef
	Type string
	To   NodeRef
	Tag  []Prop
}

// Rel builds a RelRef.
func Rel(from NodeRef, typ string, to NodeRef, tag ...Prop) RelRef {
	return RelRef{From: from, Type: typ, To: to, Tag: tag}
}

// TagString renders the tag canonically ("" when untagged).
func (r RelRef) TagString() string {
	return propString(r.Tag)
}

func (r RelRef) String() string {
	s := fmt.Sprintf("(%s)-[:%s", r.From, r.Type)
	if len(r.Tag) > 0 {
		s += " {" + r.TagString() + "}"
	}
	return s + fmt.Sprintf("]->(%s)", r.To)
}

// keyEscaper escapes the separators so distinct keys never render alike.
var keyEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`, `=`, `\=`)

func propString(props []Prop) string {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p.Name + "=" + keyEscaper.Replace(fmt.Sprint(p.Value))
	}
	return strings.Join(parts, "|")
}

// ---- Operations ----

// Op is one idempotent upsert operation. The concrete types are NodeUpsert,
// RelationshipUpsert and PropertySet.
type Op interface {
	op()
}

// NodeUpsert ensures a node exists: find by key, create if absent.
type NodeUpsert struct {
	Node NodeRef
}

// RelationshipUpsert ensures a relationship exists, merging both endpoint
// nodes first.
type RelationshipUpsert struct {
	Rel RelRef
}

// PropertySet merges the node and overwrites the listed properties. Properties
// not listed are left untouched.
type PropertySet struct {
	Node  NodeRef
	Props Properties
}

// Patch returns the properties to write, minus any that belong to the node's
// key. Key properties never change once a node exists.
func (s PropertySet) Patch() Properties {
	out := make(Properties, len(s.Props))
	for k, v := range s.Props {
		out[k] = v
	}
	for _, p := range s.Node.Key {
		delete(out, p.Name)
	}
	return out
}

func (NodeUpsert) op()         {}
func (RelationshipUpsert) op() {}
func (PropertySet) op()        {}

// ---- Read dependencies ----

// Requirement is a read dependency that must already hold in the store before
// the operations of a delta are applied.
type Requirement interface {
	requirement()
	String() string
}

// NodeRequirement requires the node to exist.
type NodeRequirement struct {
	Node NodeRef
}

// RelationshipRequirement requires the relationship (ignoring tag) to exist.
type RelationshipRequirement struct {
	Rel RelRef
}

func (NodeRequirement) requirement()         {}
func (RelationshipRequirement) requirement() {}

func (r NodeRequirement) String() string         { return r.Node.String() }
func (r RelationshipRequirement) String() string { return r.Rel.String() }

// ---- Delta ----

// Kind names the logical step a delta belongs to.
type Kind string

const (
	KindMatchNodes Kind = "match_nodes"
	KindTeams      Kind = "team_relationships"
	KindPlayers    Kind = "player_relationships"
	KindOutcome    Kind = "match_outcome"
	KindDelivery   Kind = "delivery"
	KindWicket     Kind = "wicket"
	KindStats      Kind = "player_stats"
)

// Delta is the unit produced by the mapper and applied by a Store.
type Delta struct {
	Kind     Kind
	Subject  string // identifying key of the source record, for logs
	Requires []Requirement
	Ops      []Op
}

// Empty reports whether the delta has nothing to apply or check.
func (d Delta) Empty() bool {
	return len(d.Ops) == 0 && len(d.Requires) == 0
}

// Merge folds other's requirements and operations into d.
func (d Delta) Merge(other Delta) Delta {
	d.Requires = append(append([]Requirement(nil), d.Requires...), other.Requires...)
	d.Ops = append(append([]Op(nil), d.Ops...), other.Ops...)
	return d
}

// ---- Validation ----

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s may be used as a label, relationship type
// or property name. Stores interpolate these into statements.
func ValidIdentifier(s string) bool {
	return identRE.MatchString(s)
}

// Validate checks every identifier referenced by the delta.
func (d Delta) Validate() error {
	for _, r := range d.Requires {
		switch r := r.(type) {
		case NodeRequirement:
			if err := validateNode(r.Node); err != nil {
				return err
			}
		case RelationshipRequirement:
			if err := validateRel(r.Rel); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown requirement %T", r)
		}
	}
	for _, op := range d.Ops {
		switch op := op.(type) {
		case NodeUpsert:
			if err := validateNode(op.Node); err != nil {
				return err
			}
		case RelationshipUpsert:
			if err := validateRel(op.Rel); err != nil {
				return err
			}
		case PropertySet:
			if err := validateNode(op.Node); err != nil {
				return err
			}
			for name := range op.Props {
				if !ValidIdentifier(name) {
					return fmt.Errorf("invalid property name %q", name)
				}
			}
		default:
			return fmt.Errorf("unknown op %T", op)
		}
	}
	return nil
}

func validateNode(n NodeRef) error {
	if !ValidIdentifier(n.Label) {
		return fmt.Errorf("invalid label %q", n.Label)
	}
	if len(n.Key) == 0 {
		return fmt.Errorf("node %s has no key", n.Label)
	}
	for _, p := range n.Key {
		if !ValidIdentifier(p.Name) {
			return fmt.Errorf("invalid key property %q on %s", p.Name, n.Label)
		}
		if p.Value == nil {
			return fmt.Errorf("node %s has null key property %q", n.Label, p.Name)
		}
	}
	return nil
}

func validateRel(r RelRef) error {
	if !ValidIdentifier(r.Type) {
		return fmt.Errorf("invalid relationship type %q", r.Type)
	}
	for _, p := range r.Tag {
		if !ValidIdentifier(p.Name) {
			return fmt.Errorf("invalid tag property %q on %s", p.Name, r.Type)
		}
	}
	if err := validateNode(r.From); err != nil {
		return err
	}
	return validateNode(r.To)
}
