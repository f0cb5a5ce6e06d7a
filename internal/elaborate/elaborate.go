// Package elaborate lowers GraphQL request text into the qengine.Query
// algebra the evaluator walks. It is a demo-quality front end: it assumes
// the request already type-checks against the schema (no validation pass)
// and leans on the third-party GraphQL grammar (vektah/gqlparser/v2) for
// parsing and literal/variable value resolution.
package elaborate

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/language"
	"github.com/hanpama/mosaicql/internal/predicate"
	"github.com/hanpama/mosaicql/internal/problem"
	"github.com/hanpama/mosaicql/internal/qengine"
)

// CrossMapping is a static field→mapping wiring: selecting FieldName on the
// owning type delegates to Interpreter via Join, producing a Component node
// instead of a plain Select (§4.F).
type CrossMapping struct {
	Interpreter qengine.Interpreter
	Join        qengine.JoinFunc
}

// Registry keys CrossMapping entries by "TypeName.fieldName".
type Registry map[string]CrossMapping

func (r Registry) lookup(typeName, fieldName string) (CrossMapping, bool) {
	cm, ok := r[typeName+"."+fieldName]
	return cm, ok
}

// Elaborator turns request text into a Query, given the schema (used only to
// know each field's owning type name while walking the selection set, so
// Registry lookups can key on it) and the cross-mapping wiring.
type Elaborator struct {
	Schema *gqltype.Schema
	Cross  Registry
}

func New(sch *gqltype.Schema, cross Registry) *Elaborator {
	return &Elaborator{Schema: sch, Cross: cross}
}

// Elaborated is the result of Elaborate: the root query, the root GraphQL
// type it is evaluated against, and whether it names a mutation operation.
type Elaborated struct {
	Query      qengine.Query
	RootType   *gqltype.TypeRef
	IsMutation bool
}

// Elaborate parses queryText, selects the named operation (or the sole
// operation when name is empty), coerces variables against the operation's
// variable definitions, and lowers its selection set.
func (el *Elaborator) Elaborate(queryText string, operationName string, variables map[string]any) (Elaborated, problem.Chain) {
	doc, err := language.ParseQuery(queryText)
	if err != nil {
		return Elaborated{}, problem.Chain{problem.New("%s", err.Error())}
	}

	op := doc.Operations.ForName(operationName)
	if op == nil {
		if operationName == "" && len(doc.Operations) == 1 {
			op = doc.Operations[0]
		} else {
			return Elaborated{}, problem.Chain{problem.New("no operation named %q", operationName)}
		}
	}

	vars, err := el.coerceVariables(op.VariableDefinitions, variables)
	if err != nil {
		return Elaborated{}, problem.Chain{problem.New("%s", err.Error())}
	}

	fragments := make(map[string]*ast.FragmentDefinition, len(doc.Fragments))
	for _, f := range doc.Fragments {
		fragments[f.Name] = f
	}

	var rootTypeName string
	switch op.Operation {
	case language.Mutation:
		rootTypeName = el.Schema.MutationType
	case language.Subscription:
		rootTypeName = el.Schema.SubscriptionType
	default:
		rootTypeName = el.Schema.QueryType
	}
	if rootTypeName == "" {
		return Elaborated{}, problem.Chain{problem.New("schema has no root type for operation %q", op.Operation)}
	}

	children, probs := el.elaborateSelectionSet(op.SelectionSet, fragments, vars, rootTypeName)
	if len(children) == 0 && len(probs) == 0 {
		probs = append(probs, problem.New("empty selection set"))
	}

	return Elaborated{
		Query:      qengine.Group{Children: children},
		RootType:   gqltype.NonNull(gqltype.Named(rootTypeName)),
		IsMutation: op.Operation == language.Mutation,
	}, probs
}

// coerceVariables resolves literal default values for any variable missing
// from provided, in the style of the teacher's coerceVariableValues: a
// best-effort pass, not a validating one (Non-goal, carried forward).
func (el *Elaborator) coerceVariables(defs ast.VariableDefinitionList, provided map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(provided)+len(defs))
	for k, v := range provided {
		out[k] = v
	}
	for _, def := range defs {
		if _, ok := out[def.Variable]; ok {
			continue
		}
		if def.DefaultValue != nil {
			v, err := def.DefaultValue.Value(nil)
			if err != nil {
				return nil, fmt.Errorf("variable $%s: %w", def.Variable, err)
			}
			out[def.Variable] = v
		}
	}
	return out, nil
}

// elaborateSelectionSet walks one selection set (a field's children, or an
// operation's top level), resolving fragment spreads and inline fragments,
// against the named type that owns it.
func (el *Elaborator) elaborateSelectionSet(sel ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, vars map[string]any, typeName string) ([]qengine.Query, problem.Chain) {
	var out []qengine.Query
	var probs problem.Chain

	for _, s := range sel {
		switch node := s.(type) {
		case *ast.Field:
			q, p := el.elaborateField(node, fragments, vars, typeName)
			probs = append(probs, p...)
			if q != nil {
				out = append(out, q)
			}

		case *ast.InlineFragment:
			cond := node.TypeCondition
			if cond == "" {
				cond = typeName
			}
			children, p := el.elaborateSelectionSet(node.SelectionSet, fragments, vars, cond)
			probs = append(probs, p...)
			if len(children) > 0 {
				out = append(out, qengine.Narrow{ConcreteType: cond, Child: qengine.Group{Children: children}})
			}

		case *ast.FragmentSpread:
			def := node.Definition
			if def == nil {
				def = fragments[node.Name]
			}
			if def == nil {
				probs = append(probs, problem.New("unknown fragment %q", node.Name))
				continue
			}
			cond := def.TypeCondition
			if cond == "" {
				cond = typeName
			}
			children, p := el.elaborateSelectionSet(def.SelectionSet, fragments, vars, cond)
			probs = append(probs, p...)
			if len(children) > 0 {
				out = append(out, qengine.Narrow{ConcreteType: cond, Child: qengine.Group{Children: children}})
			}
		}
	}
	return out, probs
}

// elaborateField lowers one field selection into a PossiblyRenamedSelect,
// recognizing __typename, filter/orderBy/offset/limit arguments, and
// cross-mapping fields registered for (typeName, field.Name).
func (el *Elaborator) elaborateField(field *ast.Field, fragments map[string]*ast.FragmentDefinition, vars map[string]any, typeName string) (qengine.Query, problem.Chain) {
	resultName := field.Alias
	if resultName == "" {
		resultName = field.Name
	}

	if field.Name == "__typename" {
		return qengine.Introspect{
			Schema: el.Schema,
			Child:  qengine.PossiblyRenamedSelect{ResultName: resultName, Inner: qengine.Select{FieldName: "__typename"}},
		}, nil
	}

	if field.Name == "__schema" || field.Name == "__type" {
		return el.elaborateIntrospectionField(field, fragments, vars, resultName)
	}

	args, probs := el.elaborateArguments(field.Arguments, vars)

	var childQuery qengine.Query = qengine.Empty{}
	if len(field.SelectionSet) > 0 {
		ty := el.Schema.Types[typeName]
		var fieldDef *gqltype.Field
		if ty != nil {
			fieldDef = ty.FieldByName(field.Name)
		}
		elemType := typeName
		if fieldDef != nil {
			elemType = fieldDef.Type.Dealias(el.Schema).NamedName()
		}
		children, p := el.elaborateSelectionSet(field.SelectionSet, fragments, vars, elemType)
		probs = append(probs, p...)
		childQuery = qengine.Group{Children: children}
	}

	if pred, orderBy, offset, limit, hasShape := extractListShape(args); hasShape {
		predTerm, p := el.lowerFilter(pred)
		probs = append(probs, p...)
		childQuery = qengine.FilterOrderByOffsetLimit{
			Pred:    predTerm,
			OrderBy: el.lowerOrderBy(orderBy),
			Offset:  offset,
			Limit:   limit,
			Child:   childQuery,
		}
	}

	if cm, ok := el.Cross.lookup(typeName, field.Name); ok {
		inner := qengine.PossiblyRenamedSelect{
			ResultName: resultName,
			Inner:      qengine.Select{FieldName: field.Name, Args: args, Child: childQuery},
		}
		comp := qengine.Component{Interpreter: cm.Interpreter, Join: cm.Join, Child: inner}
		return qengine.PossiblyRenamedSelect{
			ResultName: resultName,
			Inner:      qengine.Select{FieldName: field.Name, Args: args, Child: comp},
		}, probs
	}

	return qengine.PossiblyRenamedSelect{
		ResultName: resultName,
		Inner:      qengine.Select{FieldName: field.Name, Args: args, Child: childQuery},
	}, probs
}

// elaborateIntrospectionField lowers a root-level __schema/__type selection
// into an Introspect node (§4.D), routing it to the engine's built-in
// introspection interpreter instead of a RootMappings entry. Its children
// are resolved against the __Schema/__Type shadow types, which el.Schema
// already carries since the Elaborator is constructed over the
// introspection-extended schema.
func (el *Elaborator) elaborateIntrospectionField(field *ast.Field, fragments map[string]*ast.FragmentDefinition, vars map[string]any, resultName string) (qengine.Query, problem.Chain) {
	args, probs := el.elaborateArguments(field.Arguments, vars)

	elemType := "__Schema"
	if field.Name == "__type" {
		elemType = "__Type"
	}

	var childQuery qengine.Query = qengine.Empty{}
	if len(field.SelectionSet) > 0 {
		children, p := el.elaborateSelectionSet(field.SelectionSet, fragments, vars, elemType)
		probs = append(probs, p...)
		childQuery = qengine.Group{Children: children}
	}

	return qengine.Introspect{
		Schema: el.Schema,
		Child: qengine.PossiblyRenamedSelect{
			ResultName: resultName,
			Inner:      qengine.Select{FieldName: field.Name, Args: args, Child: childQuery},
		},
	}, probs
}

func (el *Elaborator) elaborateArguments(args ast.ArgumentList, vars map[string]any) (map[string]any, problem.Chain) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(args))
	var probs problem.Chain
	for _, a := range args {
		v, err := a.Value.Value(vars)
		if err != nil {
			probs = append(probs, problem.New("argument %q: %s", a.Name, err.Error()))
			continue
		}
		out[a.Name] = v
	}
	return out, probs
}

// extractListShape reads the recognized list-shaping arguments off a field's
// argument map (§4.F); any subset may be present.
func extractListShape(args map[string]any) (filter any, orderBy any, offset *int, limit *int, has bool) {
	if args == nil {
		return nil, nil, nil, nil, false
	}
	filter, hasFilter := args["filter"]
	orderBy, hasOrderBy := args["orderBy"]
	var hasOffset, hasLimit bool
	if v, ok := args["offset"]; ok {
		if n, ok2 := toIntArg(v); ok2 {
			offset = &n
			hasOffset = true
		}
	}
	if v, ok := args["limit"]; ok {
		if n, ok2 := toIntArg(v); ok2 {
			limit = &n
			hasLimit = true
		}
	}
	has = hasFilter || hasOrderBy || hasOffset || hasLimit
	return filter, orderBy, offset, limit, has
}

func toIntArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// lowerFilter translates the demo filter convention — a flat object whose
// keys are "<field>_<op>" ("population_gt", "name_eq", ...), AND-combined —
// into the Term/Predicate algebra (§4.A). This convention is this
// elaborator's own invention (§1 leaves query-text filter syntax
// unspecified); a real front end would instead lower a typed GraphQL input
// object against its schema definition.
func (el *Elaborator) lowerFilter(filter any) (predicate.Predicate, problem.Chain) {
	obj, ok := filter.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, nil
	}
	var terms []predicate.Term
	var probs problem.Chain
	for key, val := range obj {
		field, op, ok := splitFilterKey(key)
		if !ok {
			probs = append(probs, problem.New("unrecognized filter key %q", key))
			continue
		}
		path := predicate.UniquePath{Path: []string{field}}
		lit := predicate.Const{Value: val}
		switch op {
		case "eq":
			terms = append(terms, predicate.Eql(path, lit))
		case "ne":
			terms = append(terms, predicate.NEql(path, lit))
		case "lt":
			terms = append(terms, predicate.Lt(path, lit))
		case "lte":
			terms = append(terms, predicate.LtEql(path, lit))
		case "gt":
			terms = append(terms, predicate.Gt(path, lit))
		case "gte":
			terms = append(terms, predicate.GtEql(path, lit))
		default:
			probs = append(probs, problem.New("unrecognized filter operator %q", op))
		}
	}
	return predicate.And3(terms), probs
}

func splitFilterKey(key string) (field, op string, ok bool) {
	for _, candidate := range []string{"_eq", "_ne", "_lte", "_lt", "_gte", "_gt"} {
		if len(key) > len(candidate) && key[len(key)-len(candidate):] == candidate {
			return key[:len(key)-len(candidate)], candidate[1:], true
		}
	}
	return "", "", false
}

// lowerOrderBy accepts either a single "field_DIRECTION" string or a list of
// them, matching the shape a literal GraphQL enum list argument resolves to.
func (el *Elaborator) lowerOrderBy(orderBy any) []qengine.OrderTerm {
	var raw []string
	switch v := orderBy.(type) {
	case string:
		raw = []string{v}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	out := make([]qengine.OrderTerm, 0, len(raw))
	for _, term := range raw {
		field, desc := term, false
		if len(term) > 5 && term[len(term)-5:] == "_DESC" {
			field, desc = term[:len(term)-5], true
		} else if len(term) > 4 && term[len(term)-4:] == "_ASC" {
			field = term[:len(term)-4]
		}
		out = append(out, qengine.OrderTerm{Term: predicate.UniquePath{Path: []string{field}}, Desc: desc})
	}
	return out
}
