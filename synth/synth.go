package synth

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/Masterminds/sprig/v3"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/registry"
)

// Renderer produces the human-readable invocation snippet returned in the
// "code" field of an execute response. The snippet is an audit trace of the
// dispatch: the matched function is always invoked directly, never by
// evaluating this text.
type Renderer struct {
	tmpl *template.Template
}

type renderedParam struct {
	Name    string
	Literal string
}

type snippetData struct {
	QualifiedName string
	Module        string
	Function      string
	Params        []renderedParam
}

const snippetSource = `// Invocation trace for {{ .QualifiedName }}.
package main

import (
	"fmt"

	"github.com/prashantdagar001/automation-api/functions/{{ .Module }}"
)

func main() {
	result, err := {{ .Module }}.Call(ctx, "{{ .Function }}", map[string]any{
{{- range .Params }}
		{{ .Name | quote }}: {{ .Literal }},
{{- end }}
	})
	if err != nil {
		fmt.Printf("error executing function: %v\n", err)
		return
	}
	fmt.Printf("function executed successfully: %v\n", result)
}
`

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("snippet").Funcs(sprig.FuncMap()).Parse(snippetSource)),
	}
}

// Render produces the snippet for one resolved invocation. Parameter values
// that cannot be written as source literals fail with ErrUnrepresentable
// instead of being interpolated raw.
func (r *Renderer) Render(entry *registry.FunctionEntry, params map[string]any) (string, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	rendered := make([]renderedParam, 0, len(names))
	for _, name := range names {
		if !isIdentifier(name) {
			return "", errors.Wrapf(errors.ErrUnrepresentable, "parameter name %q is not an identifier", name)
		}
		literal, err := renderLiteral(params[name], 0)
		if err != nil {
			return "", errors.Wrapf(err, "parameter %s", name)
		}
		rendered = append(rendered, renderedParam{Name: name, Literal: literal})
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, snippetData{
		QualifiedName: entry.QualifiedName,
		Module:        entry.Module,
		Function:      entry.Name,
		Params:        rendered,
	}); err != nil {
		return "", errors.Wrapf(err, "failed to render snippet")
	}

	return sb.String(), nil
}

const maxLiteralDepth = 8

func renderLiteral(value any, depth int) (string, error) {
	if depth > maxLiteralDepth {
		return "", errors.Wrapf(errors.ErrUnrepresentable, "value nests too deeply")
	}
	if value == nil {
		return "nil", nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return renderStringLiteral(v.String())
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	case reflect.Slice, reflect.Array:
		parts := make([]string, v.Len())
		for i := 0; i < v.Len(); i++ {
			part, err := renderLiteral(v.Index(i).Interface(), depth+1)
			if err != nil {
				return "", err
			}
			parts[i] = part
		}
		return "[]any{" + strings.Join(parts, ", ") + "}", nil
	case reflect.Map:
		keys := v.MapKeys()
		rendered := make([]string, 0, len(keys))
		for _, key := range keys {
			if key.Kind() != reflect.String {
				return "", errors.Wrapf(errors.ErrUnrepresentable, "map key of kind %s", key.Kind())
			}
			keyLiteral, err := renderStringLiteral(key.String())
			if err != nil {
				return "", err
			}
			valLiteral, err := renderLiteral(v.MapIndex(key).Interface(), depth+1)
			if err != nil {
				return "", err
			}
			rendered = append(rendered, keyLiteral+": "+valLiteral)
		}
		sort.Strings(rendered)
		return "map[string]any{" + strings.Join(rendered, ", ") + "}", nil
	default:
		return "", errors.Wrapf(errors.ErrUnrepresentable, "value of kind %s", v.Kind())
	}
}

// renderStringLiteral quotes a string for safe embedding. Strings that
// cannot survive a quote/unquote round trip, carry control characters, or
// are not valid UTF-8 are rejected rather than escaped into surprises.
func renderStringLiteral(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", errors.Wrapf(errors.ErrUnrepresentable, "string is not valid UTF-8")
	}
	for _, r := range s {
		if unicode.IsControl(r) && r != '\t' {
			return "", errors.Wrapf(errors.ErrUnrepresentable, "string contains control character %q", r)
		}
	}

	quoted := strconv.Quote(s)
	if unquoted, err := strconv.Unquote(quoted); err != nil || unquoted != s {
		return "", errors.Wrapf(errors.ErrUnrepresentable, "string does not round-trip")
	}
	return quoted, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
