package schema

import (
	"sort"
	"strings"

	language "github.com/hanpama/hotgraph/internal/language"
)

// Render produces SDL for the non built-in part of sch.
// Deterministic ordering: type/directive names sorted lexicographically.
func Render(sch *language.Schema) string {
	if sch == nil {
		return ""
	}
	var b strings.Builder

	typeNames := make([]string, 0, len(sch.Types))
	for name, typ := range sch.Types {
		if typ.BuiltIn {
			continue
		}
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		typ := sch.Types[name]
		switch typ.Kind {
		case language.Scalar:
			renderScalar(&b, typ)
		case language.Enum:
			renderEnum(&b, typ)
		case language.InputObject:
			renderFielded(&b, "input", typ)
		case language.Object:
			renderFielded(&b, "type", typ)
		case language.Interface:
			renderFielded(&b, "interface", typ)
		case language.Union:
			renderUnion(&b, typ)
		}
	}

	directiveNames := make([]string, 0, len(sch.Directives))
	for name, d := range sch.Directives {
		if d.Position != nil && d.Position.Src != nil && d.Position.Src.BuiltIn {
			continue
		}
		directiveNames = append(directiveNames, name)
	}
	sort.Strings(directiveNames)
	for _, name := range directiveNames {
		renderDirective(&b, sch.Directives[name])
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderDescription(b *strings.Builder, desc, indent string) {
	if desc == "" {
		return
	}
	b.WriteString(indent + "\"\"\"\n")
	b.WriteString(indent + strings.ReplaceAll(desc, "\"\"\"", "\\\"\"\""))
	b.WriteString("\n" + indent + "\"\"\"\n")
}

func renderScalar(b *strings.Builder, typ *language.Definition) {
	renderDescription(b, typ.Description, "")
	b.WriteString("scalar " + typ.Name)
	renderDirectives(b, typ.Directives)
	b.WriteString("\n\n")
}

func renderEnum(b *strings.Builder, typ *language.Definition) {
	renderDescription(b, typ.Description, "")
	b.WriteString("enum " + typ.Name)
	renderDirectives(b, typ.Directives)
	b.WriteString(" {\n")
	for _, val := range typ.EnumValues {
		renderDescription(b, val.Description, "  ")
		b.WriteString("  " + val.Name)
		renderDirectives(b, val.Directives)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderFielded(b *strings.Builder, keyword string, typ *language.Definition) {
	renderDescription(b, typ.Description, "")
	b.WriteString(keyword + " " + typ.Name)
	if len(typ.Interfaces) > 0 {
		b.WriteString(" implements " + strings.Join(typ.Interfaces, " & "))
	}
	renderDirectives(b, typ.Directives)
	b.WriteString(" {\n")
	for _, field := range typ.Fields {
		if strings.HasPrefix(field.Name, "__") {
			continue
		}
		renderDescription(b, field.Description, "  ")
		b.WriteString("  " + field.Name)
		renderArguments(b, field.Arguments)
		b.WriteString(": " + field.Type.String())
		if field.DefaultValue != nil {
			b.WriteString(" = " + field.DefaultValue.String())
		}
		renderDirectives(b, field.Directives)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderUnion(b *strings.Builder, typ *language.Definition) {
	renderDescription(b, typ.Description, "")
	b.WriteString("union " + typ.Name)
	renderDirectives(b, typ.Directives)
	b.WriteString(" = " + strings.Join(typ.Types, " | "))
	b.WriteString("\n\n")
}

func renderArguments(b *strings.Builder, args language.ArgumentDefinitionList) {
	if len(args) == 0 {
		return
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		s := arg.Name + ": " + arg.Type.String()
		if arg.DefaultValue != nil {
			s += " = " + arg.DefaultValue.String()
		}
		parts[i] = s
	}
	b.WriteString("(" + strings.Join(parts, ", ") + ")")
}

func renderDirectives(b *strings.Builder, list language.DirectiveList) {
	for _, d := range list {
		b.WriteString(" @" + d.Name)
		if len(d.Arguments) == 0 {
			continue
		}
		parts := make([]string, len(d.Arguments))
		for i, arg := range d.Arguments {
			parts[i] = arg.Name + ": " + arg.Value.String()
		}
		b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
}

func renderDirective(b *strings.Builder, directive *language.DirectiveDefinition) {
	renderDescription(b, directive.Description, "")
	b.WriteString("directive @" + directive.Name)
	renderArguments(b, directive.Arguments)
	if directive.IsRepeatable {
		b.WriteString(" repeatable")
	}
	locations := make([]string, len(directive.Locations))
	for i, l := range directive.Locations {
		locations[i] = string(l)
	}
	b.WriteString(" on " + strings.Join(locations, " | "))
	b.WriteString("\n\n")
}
