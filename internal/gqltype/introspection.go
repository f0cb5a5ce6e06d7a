package gqltype

// ExtendWithIntrospection returns a shallow copy of sch with the standard
// introspection meta-types (__Schema, __Type, __Field, __InputValue,
// __EnumValue, __Directive, __TypeKind, __DirectiveLocation) added, plus
// __schema/__type fields appended to the query root type. The original sch
// is left untouched; introspection data resolution reads from it directly
// so the meta-types themselves never leak into a "list every type" result
// in a way that would recursively expose introspection-of-introspection.
func ExtendWithIntrospection(sch *Schema) *Schema {
	extended := &Schema{
		QueryType:        sch.QueryType,
		MutationType:     sch.MutationType,
		SubscriptionType: sch.SubscriptionType,
		Types:            make(map[string]*Type, len(sch.Types)+8),
		Directives:       sch.Directives,
		Description:      sch.Description,
		TypeOrder:        append([]string{}, sch.TypeOrder...),
	}
	for name, t := range sch.Types {
		extended.Types[name] = t
	}
	for _, t := range introspectionTypes() {
		if _, exists := extended.Types[t.Name]; !exists {
			extended.TypeOrder = append(extended.TypeOrder, t.Name)
		}
		extended.Types[t.Name] = t
	}

	if qt := extended.GetQueryType(); qt != nil {
		qtCopy := &Type{
			Name:        qt.Name,
			Kind:        qt.Kind,
			Description: qt.Description,
			Interfaces:  qt.Interfaces,
			Fields:      append([]*Field{}, qt.Fields...),
		}
		qtCopy.Fields = append(qtCopy.Fields,
			&Field{
				Name:        "__schema",
				Description: "Access the current type schema of this server.",
				Type:        NonNull(Named("__Schema")),
			},
			&Field{
				Name:        "__type",
				Description: "Request the type information of a single type.",
				Arguments: []*InputValue{
					{Name: "name", Type: NonNull(Named("String"))},
				},
				Type: Named("__Type"),
			},
		)
		extended.Types[qt.Name] = qtCopy
	}
	return extended
}

func introspectionTypes() []*Type {
	return []*Type{
		{
			Name:        "__Schema",
			Kind:        TypeKindObject,
			Description: "A GraphQL Schema defines the capabilities of a GraphQL server.",
			Fields: []*Field{
				{Name: "types", Type: NonNull(List(NonNull(Named("__Type"))))},
				{Name: "queryType", Type: NonNull(Named("__Type"))},
				{Name: "mutationType", Type: Named("__Type")},
				{Name: "subscriptionType", Type: Named("__Type")},
				{Name: "directives", Type: NonNull(List(NonNull(Named("__Directive"))))},
				{Name: "description", Type: Named("String")},
			},
		},
		{
			Name:        "__Type",
			Kind:        TypeKindObject,
			Description: "The fundamental unit of any GraphQL Schema is the type.",
			Fields: []*Field{
				{Name: "kind", Type: NonNull(Named("__TypeKind"))},
				{Name: "name", Type: Named("String")},
				{Name: "description", Type: Named("String")},
				{Name: "fields", Arguments: includeDeprecatedArg(), Type: List(NonNull(Named("__Field")))},
				{Name: "interfaces", Type: List(NonNull(Named("__Type")))},
				{Name: "possibleTypes", Type: List(NonNull(Named("__Type")))},
				{Name: "enumValues", Arguments: includeDeprecatedArg(), Type: List(NonNull(Named("__EnumValue")))},
				{Name: "inputFields", Arguments: includeDeprecatedArg(), Type: List(NonNull(Named("__InputValue")))},
				{Name: "ofType", Type: Named("__Type")},
			},
		},
		{
			Name: "__Field",
			Kind: TypeKindObject,
			Fields: []*Field{
				{Name: "name", Type: NonNull(Named("String"))},
				{Name: "description", Type: Named("String")},
				{Name: "args", Arguments: includeDeprecatedArg(), Type: NonNull(List(NonNull(Named("__InputValue"))))},
				{Name: "type", Type: NonNull(Named("__Type"))},
				{Name: "isDeprecated", Type: NonNull(Named("Boolean"))},
				{Name: "deprecationReason", Type: Named("String")},
			},
		},
		{
			Name: "__InputValue",
			Kind: TypeKindObject,
			Fields: []*Field{
				{Name: "name", Type: NonNull(Named("String"))},
				{Name: "description", Type: Named("String")},
				{Name: "type", Type: NonNull(Named("__Type"))},
				{Name: "defaultValue", Type: Named("String")},
				{Name: "isDeprecated", Type: NonNull(Named("Boolean"))},
				{Name: "deprecationReason", Type: Named("String")},
			},
		},
		{
			Name: "__EnumValue",
			Kind: TypeKindObject,
			Fields: []*Field{
				{Name: "name", Type: NonNull(Named("String"))},
				{Name: "description", Type: Named("String")},
				{Name: "isDeprecated", Type: NonNull(Named("Boolean"))},
				{Name: "deprecationReason", Type: Named("String")},
			},
		},
		{
			Name: "__Directive",
			Kind: TypeKindObject,
			Fields: []*Field{
				{Name: "name", Type: NonNull(Named("String"))},
				{Name: "description", Type: Named("String")},
				{Name: "isRepeatable", Type: NonNull(Named("Boolean"))},
				{Name: "locations", Type: NonNull(List(NonNull(Named("__DirectiveLocation"))))},
				{Name: "args", Arguments: includeDeprecatedArg(), Type: NonNull(List(NonNull(Named("__InputValue"))))},
			},
		},
		{
			Name: "__TypeKind",
			Kind: TypeKindEnum,
			EnumValues: []*EnumValue{
				{Name: "SCALAR"}, {Name: "OBJECT"}, {Name: "INTERFACE"}, {Name: "UNION"},
				{Name: "ENUM"}, {Name: "INPUT_OBJECT"}, {Name: "LIST"}, {Name: "NON_NULL"},
			},
		},
		{
			Name: "__DirectiveLocation",
			Kind: TypeKindEnum,
			EnumValues: []*EnumValue{
				{Name: "QUERY"}, {Name: "MUTATION"}, {Name: "SUBSCRIPTION"}, {Name: "FIELD"},
				{Name: "FRAGMENT_DEFINITION"}, {Name: "FRAGMENT_SPREAD"}, {Name: "INLINE_FRAGMENT"},
				{Name: "VARIABLE_DEFINITION"}, {Name: "SCHEMA"}, {Name: "SCALAR"}, {Name: "OBJECT"},
				{Name: "FIELD_DEFINITION"}, {Name: "ARGUMENT_DEFINITION"}, {Name: "INTERFACE"},
				{Name: "UNION"}, {Name: "ENUM"}, {Name: "ENUM_VALUE"}, {Name: "INPUT_OBJECT"},
				{Name: "INPUT_FIELD_DEFINITION"},
			},
		},
	}
}

func includeDeprecatedArg() []*InputValue {
	return []*InputValue{{Name: "includeDeprecated", Type: Named("Boolean"), DefaultValue: false}}
}
