package docgen

import (
	"testing"
	"time"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEngine_Interpolate(t *testing.T) {
	e := NewEngine()

	t.Run("substitutes bound values", func(t *testing.T) {
		got := e.Interpolate("Dear {{clientName}}, quote {{quoteNumber}} attached.", map[string]any{
			"clientName":  "Acme Corp",
			"quoteNumber": "Q-2041",
		})
		assert.Equal(t, "Dear Acme Corp, quote Q-2041 attached.", got)
	})

	t.Run("missing values become empty strings", func(t *testing.T) {
		got := e.Interpolate("Hello {{missing}}!", map[string]any{})
		assert.Equal(t, "Hello !", got)
	})

	t.Run("null values become empty strings", func(t *testing.T) {
		got := e.Interpolate("Hello {{name}}!", map[string]any{"name": nil})
		assert.Equal(t, "Hello !", got)
	})

	t.Run("substituted content is not re-scanned", func(t *testing.T) {
		got := e.Interpolate("{{a}}", map[string]any{
			"a": "{{b}}",
			"b": "injected",
		})
		assert.Equal(t, "{{b}}", got)
	})

	t.Run("nested fields bind under dotted path and bare key", func(t *testing.T) {
		data := map[string]any{
			"client": map[string]any{"name": "Acme Corp"},
		}
		assert.Equal(t, "Acme Corp", e.Interpolate("{{client.name}}", data))
		assert.Equal(t, "Acme Corp", e.Interpolate("{{name}}", data))
	})

	t.Run("whitespace inside token is tolerated", func(t *testing.T) {
		got := e.Interpolate("{{ clientName }}", map[string]any{"clientName": "Acme"})
		assert.Equal(t, "Acme", got)
	})

	t.Run("aggregate token expands to label value lines", func(t *testing.T) {
		got := e.Interpolate("{{ALL_FORM_DATA}}", map[string]any{
			"clientName": "Acme Corp",
			"quoteTotal": 125.5,
		})
		assert.Contains(t, got, "Client Name: Acme Corp")
		assert.Contains(t, got, "Quote Total: 125.5")
	})
}

func TestEngine_Flatten(t *testing.T) {
	e := NewEngine()

	t.Run("bare key collisions resolve deterministically", func(t *testing.T) {
		// Sibling maps visited in sorted order, so "zebra.name" writes the
		// bare "name" binding last.
		data := map[string]any{
			"alpha": map[string]any{"name": "first"},
			"zebra": map[string]any{"name": "second"},
		}

		bindings := e.Flatten(data)
		assert.Equal(t, "first", bindings["alpha.name"])
		assert.Equal(t, "second", bindings["zebra.name"])
		assert.Equal(t, "second", bindings["name"])
	})

	t.Run("deep nesting produces full dotted paths", func(t *testing.T) {
		data := map[string]any{
			"a": map[string]any{"b": map[string]any{"c": "leaf"}},
		}
		bindings := e.Flatten(data)
		assert.Equal(t, "leaf", bindings["a.b.c"])
		assert.Equal(t, "leaf", bindings["c"])
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  forms.FieldType
	}{
		{"bool", true, forms.FieldBoolean},
		{"time", time.Now(), forms.FieldDate},
		{"int", 7, forms.FieldNumber},
		{"float", 3.14, forms.FieldNumber},
		{"decimal", decimal.NewFromInt(5), forms.FieldNumber},
		{"any slice", []any{1}, forms.FieldList},
		{"string slice", []string{"a"}, forms.FieldList},
		{"map", map[string]any{}, forms.FieldGroup},
		{"rfc3339 string", "2026-03-15T10:00:00Z", forms.FieldDate},
		{"plain string", "hello", forms.FieldText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.value))
		})
	}
}

func TestEngine_FormatValue(t *testing.T) {
	e := NewEngine()

	t.Run("numbers render without float artifacts", func(t *testing.T) {
		assert.Equal(t, "42", e.FormatValue(42))
		assert.Equal(t, "125.5", e.FormatValue(125.5))
		assert.Equal(t, "0.1", e.FormatValue(0.1))
		assert.Equal(t, "99.99", e.FormatValue(decimal.RequireFromString("99.99")))
	})

	t.Run("dates render in day month year order", func(t *testing.T) {
		d := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
		assert.Equal(t, "15/03/2026", e.FormatValue(d))
		assert.Equal(t, "15/03/2026", e.FormatValue("2026-03-15T10:00:00Z"))
	})

	t.Run("booleans render Yes and No", func(t *testing.T) {
		assert.Equal(t, "Yes", e.FormatValue(true))
		assert.Equal(t, "No", e.FormatValue(false))
	})

	t.Run("lists join formatted elements", func(t *testing.T) {
		assert.Equal(t, "a, b", e.FormatValue([]string{"a", "b"}))
		assert.Equal(t, "1, Yes, x", e.FormatValue([]any{1, true, "x"}))
	})

	t.Run("groups render sorted key value pairs", func(t *testing.T) {
		got := e.FormatValue([]any{
			map[string]any{"qty": 2, "item": "Widget"},
		})
		assert.Equal(t, "item: Widget, qty: 2", got)
	})

	t.Run("nil is empty", func(t *testing.T) {
		assert.Equal(t, "", e.FormatValue(nil))
	})
}
