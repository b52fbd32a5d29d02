package render

import (
	"strings"
	"testing"

	"mindmap-server/internal/assets"
	"mindmap-server/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestRenderAppliesInOrderAndReplacesAll(t *testing.T) {
	tests := []struct {
		name     string
		template string
		subs     []Substitution
		want     string
	}{
		{
			name:     "no substitutions",
			template: "abc",
			want:     "abc",
		},
		{
			name:     "all occurrences",
			template: "x-x-x",
			subs:     []Substitution{{"x", "y"}},
			want:     "y-y-y",
		},
		{
			name:     "later substitution sees earlier output",
			template: "a",
			subs:     []Substitution{{"a", "b"}, {"b", "c"}},
			want:     "c",
		},
		{
			name:     "missing needle is a no-op",
			template: "hello",
			subs:     []Substitution{{"zzz", "q"}},
			want:     "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, tt.subs...))
		})
	}
}

func TestOption(t *testing.T) {
	label := "Foo"
	assert.Equal(t, "<option value='u1' selected>u1</option>", Option("u1", nil, true))
	assert.Equal(t, "<option value='u1'>u1(Foo)</option>", Option("u1", &label, false))
	assert.Equal(t, "<option value='u1' selected>u1(Foo)</option>", Option("u1", &label, true))
}

func TestTemplateCarriesEverySentinel(t *testing.T) {
	for _, s := range []string{
		SentinelServer, SentinelDownload, SentinelLocale, SentinelPicker, SentinelExportName,
		SentinelStyle, SentinelKatex, SentinelBootstrap, SentinelPlaceholder,
	} {
		assert.Contains(t, assets.Page, s)
	}
}

func TestEditorPageBlank(t *testing.T) {
	r := NewRenderer(assets.Page, "STYLE", "KATEX", "10.0.0.1:9000", "en")
	page := r.EditorPage("u1", "<option value='u1' selected>u1</option>", nil)

	assert.Contains(t, page, "10.0.0.1:9000")
	assert.NotContains(t, page, SentinelServer)
	assert.Contains(t, page, "download/u1")
	assert.Contains(t, page, "u1.png")
	assert.Contains(t, page, "const style = `STYLE`;")
	assert.Contains(t, page, "const katex = `KATEX`;")
	assert.Contains(t, page, "<option value='u1' selected>u1</option>\n")
	assert.Contains(t, page, SentinelBootstrap)
	assert.Contains(t, page, SentinelLocale)
	assert.Contains(t, page, SentinelPlaceholder)
}

func TestEditorPageStored(t *testing.T) {
	label := "Foo"
	r := NewRenderer(assets.Page, "", "", "127.0.0.1:8081", "ja")
	page := r.EditorPage("u1", "", &model.Stored{Content: `{"a":1}`, Label: &label})

	assert.Contains(t, page, `JSON.parse('{"a":1}')`)
	assert.NotContains(t, page, SentinelBootstrap)
	assert.Contains(t, page, "locale: 'ja'")
	assert.Contains(t, page, "placeholder='Foo'>")
}

func TestArtifact(t *testing.T) {
	r := NewRenderer(assets.Page, "S", "K", "10.0.0.1:9000", "en")

	html := r.Artifact("u1", "{}", nil)
	assert.Contains(t, html, "JSON.parse('{}')")
	assert.Contains(t, html, "<option value='u1' selected>u1</option>")
	assert.NotContains(t, html, SentinelPicker)
	assert.Contains(t, html, SentinelPlaceholder)
	// offline document keeps the template address
	assert.Contains(t, html, SentinelServer)
	assert.Equal(t, 1, strings.Count(html, "<option "))

	label := "Bar"
	html = r.Artifact("u1", "{}", &label)
	assert.Contains(t, html, "placeholder='Bar'>")
}
