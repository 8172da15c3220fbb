package forms

import (
	"testing"

	"github.com/formflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplate(t *testing.T) {
	t.Run("creates text template with extracted placeholders", func(t *testing.T) {
		tpl, err := NewTemplate("Quote Letter", "rfq",
			"Dear {{clientName}}, your quote {{quoteNumber}} is ready.", nil, false)
		require.NoError(t, err)

		assert.NotEmpty(t, tpl.ID)
		assert.Equal(t, "Quote Letter", tpl.Name)
		assert.Equal(t, "rfq", tpl.FormType)
		assert.Equal(t, []string{"clientName", "quoteNumber"}, tpl.Placeholders)
		assert.False(t, tpl.IsUniversal)
		assert.False(t, tpl.HasBinaryPayload())
		assert.Zero(t, tpl.UsageCount)
	})

	t.Run("creates binary template", func(t *testing.T) {
		tpl, err := NewTemplate("Letterhead", "rfq", "", []byte{0x50, 0x4b, 0x03, 0x04}, false)
		require.NoError(t, err)

		assert.True(t, tpl.HasBinaryPayload())
		assert.Empty(t, tpl.Placeholders)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewTemplate("  ", "rfq", "body", nil, false)
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects empty form type", func(t *testing.T) {
		_, err := NewTemplate("Quote", "", "body", nil, false)
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects both body and binary", func(t *testing.T) {
		_, err := NewTemplate("Quote", "rfq", "body", []byte{1}, false)
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects neither body nor binary", func(t *testing.T) {
		_, err := NewTemplate("Quote", "rfq", "   ", nil, false)
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("universal form type implies universal flag", func(t *testing.T) {
		tpl, err := NewTemplate("Generic", FormTypeUniversal, "{{title}}", nil, false)
		require.NoError(t, err)
		assert.True(t, tpl.IsUniversal)
	})
}

func TestTemplate_Clone(t *testing.T) {
	orig, err := NewTemplate("Quote v1", "rfq", "Hello {{clientName}}", nil, false)
	require.NoError(t, err)
	orig.RecordUsage()

	clone, err := orig.Clone("Quote v2")
	require.NoError(t, err)

	assert.NotEqual(t, orig.ID, clone.ID)
	assert.Equal(t, "Quote v2", clone.Name)
	assert.Equal(t, orig.Body, clone.Body)
	assert.Equal(t, orig.FormType, clone.FormType)
	assert.Equal(t, orig.Placeholders, clone.Placeholders)
	// Usage does not carry over to the clone.
	assert.Zero(t, clone.UsageCount)

	_, err = orig.Clone("")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestTemplate_AppliesTo(t *testing.T) {
	exact, _ := NewTemplate("Exact", "rfq", "x", nil, false)
	universal, _ := NewTemplate("Any", "misc", "x", nil, true)

	assert.True(t, exact.AppliesTo("rfq"))
	assert.False(t, exact.AppliesTo("invoice"))
	assert.True(t, universal.AppliesTo("rfq"))
	assert.True(t, universal.AppliesTo("invoice"))
}

func TestTemplate_ValidatePlaceholders(t *testing.T) {
	t.Run("conforming names produce no warnings", func(t *testing.T) {
		tpl, _ := NewTemplate("Ok", "rfq", "{{clientName}} {{quote_Number2}}", nil, false)
		assert.Empty(t, tpl.ValidatePlaceholders())
	})

	t.Run("non-conforming names are warned, not rejected", func(t *testing.T) {
		tpl, err := NewTemplate("Odd", "rfq", "{{client-name}} {{2bad}}", nil, false)
		require.NoError(t, err)

		warnings := tpl.ValidatePlaceholders()
		assert.Len(t, warnings, 2)
		assert.Contains(t, warnings[0], "client-name")
	})
}

func TestExtractPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"empty body", "", nil},
		{"no placeholders", "plain text only", nil},
		{"single", "Hello {{name}}", []string{"name"}},
		{"whitespace inside braces", "{{ name }} and {{\tother }}", []string{"name", "other"}},
		{"duplicates collapse to first appearance", "{{a}} {{b}} {{a}}", []string{"a", "b"}},
		{"order of first appearance", "{{z}} {{a}} {{m}}", []string{"z", "a", "m"}},
		{"case sensitive", "{{Name}} {{name}}", []string{"Name", "name"}},
		{"aggregate token", "{{ALL_FORM_DATA}}", []string{"ALL_FORM_DATA"}},
		{"unclosed braces ignored", "text {{name without closing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPlaceholders(tt.body)
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSelectTemplate(t *testing.T) {
	mk := func(name, formType string, universal bool) Template {
		tpl, err := NewTemplate(name, formType, "{{title}}", nil, universal)
		require.NoError(t, err)
		return *tpl
	}

	t.Run("prefers first exact form type match", func(t *testing.T) {
		templates := []Template{
			mk("Universal", "misc", true),
			mk("RFQ One", "rfq", false),
			mk("RFQ Two", "rfq", false),
		}

		got := SelectTemplate(templates, "rfq")
		require.NotNil(t, got)
		assert.Equal(t, "RFQ One", got.Name)
	})

	t.Run("falls back to first universal", func(t *testing.T) {
		templates := []Template{
			mk("Invoice", "invoice", false),
			mk("Universal", "misc", true),
		}

		got := SelectTemplate(templates, "rfq")
		require.NotNil(t, got)
		assert.Equal(t, "Universal", got.Name)
	})

	t.Run("nil when nothing applies", func(t *testing.T) {
		templates := []Template{mk("Invoice", "invoice", false)}
		assert.Nil(t, SelectTemplate(templates, "rfq"))
	})

	t.Run("nil on empty slice", func(t *testing.T) {
		assert.Nil(t, SelectTemplate(nil, "rfq"))
	})
}
