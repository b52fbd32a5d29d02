// Package render builds editor pages and download artifacts by plain textual
// substitution of sentinel strings in the bundled template.
package render

import (
	"fmt"
	"strings"

	"mindmap-server/internal/model"
)

// Sentinels present in the editor template.
const (
	SentinelServer      = "127.0.0.1:8081"
	SentinelDownload    = "download/mindmap"
	SentinelLocale      = "locale: 'en'"
	SentinelPicker      = "<option value='mindmap' selected>mindmap</option>"
	SentinelExportName  = "mindmap.png"
	SentinelStyle       = "const style = ``;"
	SentinelKatex       = "const katex = ``;"
	SentinelBootstrap   = "MindElixir.new('root')"
	SentinelPlaceholder = "placeholder='mindmap label'>"
)

// DefaultLanguage is the locale baked into the template.
const DefaultLanguage = "en"

// Substitution replaces every occurrence of Needle with Replacement.
type Substitution struct {
	Needle      string
	Replacement string
}

// Render applies subs left to right. Each substitution sees the output of the
// previous one.
func Render(template string, subs ...Substitution) string {
	out := template
	for _, s := range subs {
		out = strings.ReplaceAll(out, s.Needle, s.Replacement)
	}
	return out
}

// Option renders one entry of the map picker.
func Option(uuid string, label *string, selected bool) string {
	sel := ""
	if selected {
		sel = " selected"
	}
	if text, ok := model.LabelOf(label); ok {
		return fmt.Sprintf("<option value='%s'%s>%s(%s)</option>", uuid, sel, uuid, text)
	}
	return fmt.Sprintf("<option value='%s'%s>%s</option>", uuid, sel, uuid)
}

// Renderer holds the template and the values that do not change per request.
type Renderer struct {
	page     string
	style    string
	katex    string
	server   string
	language string
}

func NewRenderer(page, style, katex, server, language string) *Renderer {
	return &Renderer{
		page:     page,
		style:    style,
		katex:    katex,
		server:   server,
		language: language,
	}
}

func (r *Renderer) Language() string {
	return r.language
}

// EditorPage renders the page served on `/` and `/previous`. When stored is
// non-nil the editor boots with that content and label.
func (r *Renderer) EditorPage(uuid, pulldown string, stored *model.Stored) string {
	subs := []Substitution{
		{SentinelServer, r.server},
		{SentinelDownload, "download/" + uuid},
		{SentinelPicker, pulldown + "\n"},
		{SentinelExportName, uuid + ".png"},
		{SentinelStyle, fmt.Sprintf("const style = `%s`;", r.style)},
		{SentinelKatex, fmt.Sprintf("const katex = `%s`;", r.katex)},
	}
	if stored != nil {
		subs = append(subs, Substitution{SentinelBootstrap, bootstrap(stored.Content)})
	}
	subs = append(subs, r.localeAndLabel(stored)...)
	return Render(r.page, subs...)
}

// Artifact renders the self-contained document offered for download and
// written to `<uuid>.html` on shutdown.
func (r *Renderer) Artifact(uuid, content string, label *string) string {
	subs := []Substitution{
		{SentinelPicker, Option(uuid, nil, true)},
		{SentinelExportName, uuid + ".png"},
		{SentinelStyle, fmt.Sprintf("const style = `%s`;", r.style)},
		{SentinelKatex, fmt.Sprintf("const katex = `%s`;", r.katex)},
		{SentinelBootstrap, bootstrap(content)},
	}
	subs = append(subs, r.localeAndLabel(&model.Stored{Content: content, Label: label})...)
	return Render(r.page, subs...)
}

func (r *Renderer) localeAndLabel(stored *model.Stored) []Substitution {
	var subs []Substitution
	if r.language != DefaultLanguage {
		subs = append(subs, Substitution{SentinelLocale, fmt.Sprintf("locale: '%s'", r.language)})
	}
	if stored != nil {
		if text, ok := model.LabelOf(stored.Label); ok {
			subs = append(subs, Substitution{SentinelPlaceholder, Placeholder(text)})
		}
	}
	return subs
}

// Placeholder is the label input substitution for a stored label.
func Placeholder(label string) string {
	return fmt.Sprintf("placeholder='%s'>", label)
}

func bootstrap(content string) string {
	return fmt.Sprintf("JSON.parse('%s')", content)
}
