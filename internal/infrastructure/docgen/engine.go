package docgen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dateLayout is the locale-stable output form for date values
const dateLayout = "02/01/2006"

// tokenPattern matches the same {{name}} tokens placeholder extraction
// recognizes at upload time.
var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}\s][^{}]*?)\s*\}\}`)

// Engine binds submission data to a template's placeholder set. It is
// stateless and safe for concurrent use.
type Engine struct {
	formatters map[forms.FieldType]func(any) string
	caser      cases.Caser
}

// NewEngine creates an interpolation engine with one formatter per field
// type. The table covers every FieldType variant; classify never returns
// a type outside it.
func NewEngine() *Engine {
	e := &Engine{
		caser: cases.Title(language.English),
	}
	e.formatters = map[forms.FieldType]func(any) string{
		forms.FieldText:    formatText,
		forms.FieldNumber:  formatNumber,
		forms.FieldDate:    formatDate,
		forms.FieldBoolean: formatBoolean,
		forms.FieldList:    e.formatList,
		forms.FieldGroup:   e.formatGroup,
	}
	return e
}

// Interpolate substitutes every {{name}} token in body with the bound
// value from data. Missing or null values become empty strings, never the
// literal placeholder. Substitution is a single pass over the original
// body: substituted content is never re-scanned, so values containing
// placeholder syntax cannot inject further substitutions. The reserved
// ALL_FORM_DATA token expands to a label/value table over the top-level
// fields; it is an aggregate over the input data, independent of the
// other substitutions.
func (e *Engine) Interpolate(body string, data map[string]any) string {
	bindings := e.Flatten(data)
	return tokenPattern.ReplaceAllStringFunc(body, func(token string) string {
		name := strings.TrimSpace(strings.Trim(token, "{}"))
		if name == forms.AllFormDataPlaceholder {
			return e.allFormDataTable(data)
		}
		return bindings[name]
	})
}

// Flatten produces the interpolation view of nested data: every leaf is
// bound under its dotted path (a.b.c) and additionally under its bare
// key (c). Sibling keys are visited in sorted order, so when two paths
// produce the same bare key the lexicographically later path wins.
// Deterministic last-write-wins, not an error.
func (e *Engine) Flatten(data map[string]any) map[string]string {
	out := map[string]string{}
	e.flattenInto(out, "", data)
	return out
}

func (e *Engine) flattenInto(out map[string]string, prefix string, data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := data[key]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := asStringMap(value); ok {
			e.flattenInto(out, path, nested)
			continue
		}
		formatted := e.FormatValue(value)
		out[path] = formatted
		out[key] = formatted
	}
}

// FormatValue renders a single value using the formatter for its
// classified field type.
func (e *Engine) FormatValue(v any) string {
	if v == nil {
		return ""
	}
	return e.formatters[Classify(v)](v)
}

// Classify maps a runtime value to its FieldType variant
func Classify(v any) forms.FieldType {
	switch val := v.(type) {
	case bool:
		return forms.FieldBoolean
	case time.Time, *time.Time:
		return forms.FieldDate
	case int, int32, int64, float32, float64, decimal.Decimal:
		return forms.FieldNumber
	case []any, []string:
		return forms.FieldList
	case map[string]any:
		return forms.FieldGroup
	case string:
		if _, err := time.Parse(time.RFC3339, val); err == nil {
			return forms.FieldDate
		}
		return forms.FieldText
	default:
		return forms.FieldText
	}
}

// allFormDataTable renders every top-level (non-dotted) field as a
// "Label: value" line, labels title-cased from the field key.
func (e *Engine) allFormDataTable(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, e.labelFor(key)+": "+e.FormatValue(data[key]))
	}
	return strings.Join(lines, "\n")
}

// labelFor turns a camelCase field key into a display label
func (e *Engine) labelFor(key string) string {
	var words strings.Builder
	for i, r := range key {
		if i > 0 && r >= 'A' && r <= 'Z' {
			words.WriteRune(' ')
		}
		words.WriteRune(r)
	}
	return e.caser.String(words.String())
}

func formatText(v any) string {
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Format(dateLayout)
		}
		return s
	}
	return fmt.Sprintf("%v", v)
}

func formatNumber(v any) string {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.String()
	case int:
		return decimal.NewFromInt(int64(val)).String()
	case int32:
		return decimal.NewFromInt(int64(val)).String()
	case int64:
		return decimal.NewFromInt(val).String()
	case float32:
		return decimal.NewFromFloat32(val).String()
	case float64:
		return decimal.NewFromFloat(val).String()
	}
	return fmt.Sprintf("%v", v)
}

func formatDate(v any) string {
	switch val := v.(type) {
	case time.Time:
		return val.Format(dateLayout)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format(dateLayout)
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t.Format(dateLayout)
		}
		return val
	}
	return ""
}

func formatBoolean(v any) string {
	if b, ok := v.(bool); ok && b {
		return "Yes"
	}
	return "No"
}

// formatList renders arrays as a comma-joined string of each element's
// own formatted value.
func (e *Engine) formatList(v any) string {
	var parts []string
	switch val := v.(type) {
	case []any:
		parts = make([]string, len(val))
		for i, item := range val {
			parts[i] = e.FormatValue(item)
		}
	case []string:
		parts = val
	}
	return strings.Join(parts, ", ")
}

// formatGroup renders a nested map leaf (one that appears inside an
// array, outside the flattening walk) as sorted "key: value" pairs.
func (e *Engine) formatGroup(v any) string {
	nested, ok := asStringMap(v)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	keys := make([]string, 0, len(nested))
	for k := range nested {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.FormatValue(nested[k]))
	}
	return strings.Join(parts, ", ")
}

func asStringMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
