package graph

import (
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/vektah/gqlparser/v2/ast"
)

// isMeta reports whether name is an introspection field of the query root.
func isMeta(name string) bool {
	return name == "__schema" || name == "__type"
}

// introspect resolves the __schema and __type fields against schema.
func introspect(schema *ast.Schema, f collectedField, vars map[string]any) any {
	switch f.field.Name {
	case "__schema":
		return resolveMeta(introspection.WrapSchema(schema), f.selection, vars)
	case "__type":
		name, _ := f.field.ArgumentMap(vars)["name"].(string)
		def := schema.Types[name]
		if def == nil {
			return nil
		}
		return resolveMeta(introspection.WrapTypeFromDef(schema, def), f.selection, vars)
	}
	return nil
}

// resolveMeta walks an introspection value along set, calling the accessor
// of every selected field.
func resolveMeta(v any, set ast.SelectionSet, vars map[string]any) any {
	switch v := v.(type) {
	case *introspection.Schema:
		if v == nil {
			return nil
		}
		return metaObject(set, vars, func(name string, _ map[string]any) any {
			switch name {
			case "description":
				return v.Description()
			case "types":
				return v.Types()
			case "queryType":
				return v.QueryType()
			case "mutationType":
				return v.MutationType()
			case "subscriptionType":
				return v.SubscriptionType()
			case "directives":
				return v.Directives()
			}
			return nil
		})
	case *introspection.Type:
		if v == nil {
			return nil
		}
		return metaObject(set, vars, func(name string, args map[string]any) any {
			deprecated, _ := args["includeDeprecated"].(bool)
			switch name {
			case "kind":
				return v.Kind()
			case "name":
				return v.Name()
			case "description":
				return v.Description()
			case "specifiedByURL":
				return v.SpecifiedByURL()
			case "fields":
				return v.Fields(deprecated)
			case "interfaces":
				return v.Interfaces()
			case "possibleTypes":
				return v.PossibleTypes()
			case "enumValues":
				return v.EnumValues(deprecated)
			case "inputFields":
				return v.InputFields()
			case "ofType":
				return v.OfType()
			}
			return nil
		})
	case *introspection.Field:
		return metaObject(set, vars, func(name string, _ map[string]any) any {
			switch name {
			case "name":
				return v.Name
			case "description":
				return v.Description()
			case "args":
				return v.Args
			case "type":
				return v.Type
			case "isDeprecated":
				return v.IsDeprecated()
			case "deprecationReason":
				return v.DeprecationReason()
			}
			return nil
		})
	case *introspection.InputValue:
		return metaObject(set, vars, func(name string, _ map[string]any) any {
			switch name {
			case "name":
				return v.Name
			case "description":
				return v.Description()
			case "type":
				return v.Type
			case "defaultValue":
				return v.DefaultValue
			case "isDeprecated":
				return false
			}
			return nil
		})
	case *introspection.EnumValue:
		return metaObject(set, vars, func(name string, _ map[string]any) any {
			switch name {
			case "name":
				return v.Name
			case "description":
				return v.Description()
			case "isDeprecated":
				return v.IsDeprecated()
			case "deprecationReason":
				return v.DeprecationReason()
			}
			return nil
		})
	case *introspection.Directive:
		return metaObject(set, vars, func(name string, _ map[string]any) any {
			switch name {
			case "name":
				return v.Name
			case "description":
				return v.Description()
			case "locations":
				return v.Locations
			case "args":
				return v.Args
			case "isRepeatable":
				return v.IsRepeatable
			}
			return nil
		})
	case []introspection.Type:
		return metaList(v, set, vars)
	case []introspection.Field:
		return metaList(v, set, vars)
	case []introspection.InputValue:
		return metaList(v, set, vars)
	case []introspection.EnumValue:
		return metaList(v, set, vars)
	case []introspection.Directive:
		return metaList(v, set, vars)
	case *string:
		if v == nil {
			return nil
		}
		return *v
	}
	return v
}

func metaObject(set ast.SelectionSet, vars map[string]any, get func(name string, args map[string]any) any) map[string]any {
	fields := collectFields(set, vars)
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.field.Name == "__typename" {
			if f.field.ObjectDefinition != nil {
				out[f.alias] = f.field.ObjectDefinition.Name
			}
			continue
		}
		out[f.alias] = resolveMeta(get(f.field.Name, f.field.ArgumentMap(vars)), f.selection, vars)
	}
	return out
}

func metaList[T any](items []T, set ast.SelectionSet, vars map[string]any) any {
	if items == nil {
		return nil
	}
	out := make([]any, len(items))
	for i := range items {
		out[i] = resolveMeta(&items[i], set, vars)
	}
	return out
}
