// Package page composes the dashboard's single HTML page.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"palmdash/internal/chart"
)

// Title heads the page.
const Title = "Visualising oil palm expansion and testing for promoted non-oil palm deforestation, in a study area of the Central Peruvian Amazon"

//go:embed templates/page.html.tmpl
var pageTemplate string

//go:embed content/*.md
var content embed.FS

// Charts supplies the rendered pipeline outputs by name.
type Charts interface {
	Chart(name string) (chart.Chart, error)
}

// Page renders the dashboard. Text blocks are converted from markdown once;
// charts are fetched on every render.
type Page struct {
	tmpl   *template.Template
	blocks map[string]template.HTML
}

type view struct {
	Title             string
	Contact           template.HTML
	Context           template.HTML
	DeforestationText template.HTML
	Deforestation     template.HTML
	ExpansionText     template.HTML
	Expansion         template.HTML
	Source            template.HTML
	TrendsText        template.HTML
	Caption           template.HTML
	TimeSeries        template.HTML
}

// New parses the page template and converts the text blocks.
func New() (*Page, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Typographer),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	entries, err := content.ReadDir("content")
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	blocks := make(map[string]template.HTML, len(entries))
	for _, e := range entries {
		raw, err := content.ReadFile("content/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var buf bytes.Buffer
		if err := md.Convert(raw, &buf); err != nil {
			return nil, fmt.Errorf("convert %s: %w", e.Name(), err)
		}
		blocks[e.Name()] = template.HTML(buf.String())
	}

	return &Page{tmpl: tmpl, blocks: blocks}, nil
}

// Render writes the page. Nothing is written when a chart fails.
func (p *Page) Render(w io.Writer, charts Charts) error {
	svg := func(name string) (template.HTML, error) {
		c, err := charts.Chart(name)
		if err != nil {
			return "", err
		}
		raw, err := c.SVG()
		if err != nil {
			return "", fmt.Errorf("render %s: %w", name, err)
		}
		return inline(raw), nil
	}

	v := view{
		Title:             Title,
		Contact:           p.blocks["contact.md"],
		Context:           p.blocks["context.md"],
		DeforestationText: p.blocks["deforestation.md"],
		ExpansionText:     p.blocks["expansion.md"],
		Source:            p.blocks["source.md"],
		TrendsText:        p.blocks["trends.md"],
		Caption:           p.blocks["caption.md"],
	}
	var err error
	if v.Deforestation, err = svg("deforestation"); err != nil {
		return err
	}
	if v.Expansion, err = svg("expansion"); err != nil {
		return err
	}
	if v.TimeSeries, err = svg("timeseries"); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, v); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// inline drops the XML prolog so the svg element can sit inside HTML.
func inline(svg []byte) template.HTML {
	if i := bytes.Index(svg, []byte("<svg")); i > 0 {
		svg = svg[i:]
	}
	return template.HTML(svg)
}
