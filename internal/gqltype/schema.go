// Package gqltype models the GraphQL type system the query/cursor evaluator
// runs against: named types, wrapped type references, and the schema table
// that resolves the cyclic references between them.
//
// Adapted from the teacher's internal/schema package: Type/TypeRef/Schema are
// kept, but the operations the interpreter actually needs (Dealias, NonNull,
// IsNullable, IsLeaf, Field, Item, nominal equality, subtyping) are added
// here rather than left to callers to hand-roll against the raw Kind field.
package gqltype

// Schema is the complete set of named types plus root type names.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type
	Directives       map[string]*Directive
	Description      string

	// TypeOrder preserves declaration order for deterministic scans, used by
	// introspection-style interface/union narrowing (§9 design note).
	TypeOrder []string
}

func (s *Schema) GetQueryType() *Type        { return s.Types[s.QueryType] }
func (s *Schema) GetMutationType() *Type     { return s.Types[s.MutationType] }
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// PossibleTypesOf returns the concrete object types implementing an
// interface or belonging to a union, in schema declaration order.
func (s *Schema) PossibleTypesOf(abstractName string) []*Type {
	t := s.Types[abstractName]
	if t == nil {
		return nil
	}
	out := make([]*Type, 0, len(t.PossibleTypes))
	for _, name := range t.PossibleTypes {
		if pt := s.Types[name]; pt != nil {
			out = append(out, pt)
		}
	}
	return out
}

// TypeKind is the GraphQL kind of a named type.
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
	// TypeKindAlias marks a named type that is nominally equal to AliasOf for
	// the purposes of Dealias/nominal equality, but keeps its own identity in
	// the schema table (e.g. a renamed re-export of another type).
	TypeKindAlias TypeKind = "ALIAS"
)

// Type is a named GraphQL type.
type Type struct {
	Name          string
	Kind          TypeKind
	Description   string
	Fields        []*Field // OBJECT, INTERFACE
	Interfaces    []string
	PossibleTypes []string // INTERFACE, UNION, in declaration order
	EnumValues    []*EnumValue
	InputFields   []*InputValue
	AliasOf       string // set when Kind == TypeKindAlias
}

func (t *Type) FieldByName(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// IsLeaf reports whether the type requires no further selection.
func (t *Type) IsLeaf() bool {
	return t.Kind == TypeKindScalar || t.Kind == TypeKindEnum
}

type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	IsDeprecated      bool
	DeprecationReason string
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name         string
	Description  string
	Type         *TypeRef
	DefaultValue any
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

// TypeRef is a (possibly wrapped) reference to a named type: NonNull(List(Named))).
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef
	Named  string
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func NonNull(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func List(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func Named(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

func (t *TypeRef) IsNonNull() bool { return t != nil && t.Kind == TypeRefKindNonNull }
func (t *TypeRef) IsList() bool    { return t != nil && t.Kind == TypeRefKindList }

// NonNullOf strips a single NonNull wrapper, or returns t unchanged if it
// isn't one. Named/List types are considered already-nullable.
func (t *TypeRef) NonNullOf() *TypeRef {
	if t.IsNonNull() {
		return t.OfType
	}
	return t
}

// IsNullable reports whether a value of this type may be null at this
// position, i.e. it is not wrapped in NonNull.
func (t *TypeRef) IsNullable() bool { return !t.IsNonNull() }

// Item returns the element type of a (possibly NonNull-wrapped) list type,
// or nil if t does not denote a list.
func (t *TypeRef) Item() *TypeRef {
	u := t
	if u.IsNonNull() {
		u = u.OfType
	}
	if u.Kind != TypeRefKindList {
		return nil
	}
	return u.OfType
}

// NamedName returns the innermost named type's name.
func (t *TypeRef) NamedName() string {
	cur := t
	for cur != nil {
		if cur.Named != "" {
			return cur.Named
		}
		cur = cur.OfType
	}
	return ""
}

// Dealias resolves TypeRefKindNamed through any ALIAS types in sch to the
// underlying concrete named type, preserving wrapper (List/NonNull) shape.
func (t *TypeRef) Dealias(sch *Schema) *TypeRef {
	switch t.Kind {
	case TypeRefKindNonNull:
		return NonNull(t.OfType.Dealias(sch))
	case TypeRefKindList:
		return List(t.OfType.Dealias(sch))
	default:
		name := t.Named
		for {
			ty := sch.Types[name]
			if ty == nil || ty.Kind != TypeKindAlias || ty.AliasOf == "" {
				break
			}
			name = ty.AliasOf
		}
		return Named(name)
	}
}

// IsLeaf reports whether the dealiased named type is a scalar or enum.
func (t *TypeRef) IsLeaf(sch *Schema) bool {
	named := t.Dealias(sch).NamedName()
	ty := sch.Types[named]
	return ty != nil && ty.IsLeaf()
}

// NominalEqual compares two type references modulo aliasing and modulo an
// exact match of wrapper shape (List/NonNull nesting must agree).
func NominalEqual(sch *Schema, a, b *TypeRef) bool {
	da, db := a.Dealias(sch), b.Dealias(sch)
	return sameShape(da, db)
}

func sameShape(a, b *TypeRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == TypeRefKindNamed {
		return a.Named == b.Named
	}
	return sameShape(a.OfType, b.OfType)
}

// CursorCompatible reports whether a cursor typed cursorTpe may stand in for
// a query position expecting tpe: both strip through NonNull/List wrappers
// down to their base named type, which must either both be leaves or be
// nominally equal. Wrapper depth itself is not compared: a cursor may stand
// at List(X) where the query position expects the singular X (the cursor is
// pre-Unique, §4.C rule 8) or vice versa, so this only rejects a genuine
// leaf/object or named-type mismatch, not a cardinality difference that a
// Unique node higher up the query is responsible for collapsing.
func CursorCompatible(sch *Schema, tpe, cursorTpe *TypeRef) bool {
	a, b := stripWrappers(tpe), stripWrappers(cursorTpe)
	aLeaf := a.IsLeaf(sch)
	bLeaf := b.IsLeaf(sch)
	if aLeaf || bLeaf {
		return aLeaf == bLeaf
	}
	return NominalEqual(sch, a, b)
}

// stripWrappers peels every NonNull and List layer down to the base named
// type.
func stripWrappers(t *TypeRef) *TypeRef {
	for t.IsNonNull() || t.IsList() {
		t = t.OfType
	}
	return t
}

// IsSubtypeOf reports whether the dealiased named type of sub is the same as,
// or implements/belongs to, the dealiased named type of super. Used to check
// that a query's expected type is compatible with a cursor's actual type at
// an object/interface/union boundary.
func IsSubtypeOf(sch *Schema, sub, super *TypeRef) bool {
	subName := sub.Dealias(sch).NamedName()
	superName := super.Dealias(sch).NamedName()
	if subName == superName {
		return true
	}
	subType := sch.Types[subName]
	if subType == nil {
		return false
	}
	for _, iface := range subType.Interfaces {
		if iface == superName {
			return true
		}
	}
	superType := sch.Types[superName]
	if superType != nil && (superType.Kind == TypeKindUnion || superType.Kind == TypeKindInterface) {
		for _, pt := range superType.PossibleTypes {
			if pt == subName {
				return true
			}
		}
	}
	return false
}
