package exporter

import (
	"bytes"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"

	"genderviz/internal/binder"
	"genderviz/internal/config"
	apperrors "genderviz/internal/errors"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="generator" content="{{.Generator}}">
  <meta name="run-id" content="{{.RunID}}">
  <title>{{.Title}}</title>
  <script src="{{.CDN}}/vega@{{.VegaVersion}}"></script>
  <script src="{{.CDN}}/vega-lite@{{.VegaLiteVersion}}"></script>
  <script src="{{.CDN}}/vega-embed@{{.EmbedVersion}}"></script>
  <style>
    body { font-family: "{{.Font}}", sans-serif; margin: 24px; }
    #vis.vega-embed { width: 100%; }
    footer { font-size: 10px; color: #000; margin-top: 12px; }
  </style>
</head>
<body>
  <div id="vis"></div>
  {{if .Footnote}}<footer>{{.Footnote}}</footer>{{end}}
  <script type="text/javascript">
    (function(vegaEmbed) {
      var spec = {{.Spec}};
      var embedOpt = {"mode": "vega-lite", "actions": false};

      function showError(el, error) {
        el.innerHTML = ('<div style="color:red;">'
                        + '<p>JavaScript Error: ' + error.message + '</p>'
                        + "<p>This usually means there's a typo in your chart specification. "
                        + "See the javascript console for the full traceback.</p>"
                        + '</div>');
        throw error;
      }
      const el = document.getElementById('vis');
      vegaEmbed("#vis", spec, embedOpt)
        .catch(error => showError(el, error));
    })(vegaEmbed);
  </script>
</body>
</html>
`

var page = template.Must(template.New("dashboard").Parse(pageTemplate))

type pageData struct {
	Generator       string
	RunID           string
	Title           string
	CDN             string
	VegaVersion     string
	VegaLiteVersion string
	EmbedVersion    string
	Font            string
	Footnote        template.HTML
	Spec            template.JS
}

// HTMLExporter writes composed dashboards as standalone HTML pages
type HTMLExporter struct {
	render config.RenderConfig
	logger *slog.Logger
	runID  string
}

// NewHTMLExporter creates an exporter using the given CDN and font settings
func NewHTMLExporter(render config.RenderConfig, logger *slog.Logger) *HTMLExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLExporter{
		render: render,
		logger: logger.With(slog.String("component", "html_exporter")),
	}
}

// WithRunID stamps pages with the id of the run that produced them
func (e *HTMLExporter) WithRunID(id string) *HTMLExporter {
	e.runID = id
	return e
}

// ExportHTML renders spec with the default render settings
func ExportHTML(spec *binder.ComposedSpec, path string) error {
	return NewHTMLExporter(config.Default().Render, nil).ExportHTML(spec, path)
}

// ExportHTML renders spec into path. The directory of path must exist; the file is
// replaced atomically and never left half written.
func (e *HTMLExporter) ExportHTML(spec *binder.ComposedSpec, path string) error {
	start := time.Now()
	if spec == nil {
		return apperrors.NewAppValidationError("no chart to export")
	}

	data, err := spec.JSON()
	if err != nil {
		return err
	}

	runID := e.runID
	if runID == "" {
		runID = uuid.New().String()
	}

	pd := pageData{
		Generator:       config.AppName + " " + config.AppVersion,
		RunID:           runID,
		Title:           spec.Title,
		CDN:             strings.TrimRight(e.render.CDN, "/"),
		VegaVersion:     e.render.VegaVersion,
		VegaLiteVersion: e.render.VegaLiteVersion,
		EmbedVersion:    e.render.EmbedVersion,
		Font:            e.render.Font,
		Footnote:        renderFootnote(spec.Footnote),
		// json.Marshal escapes <, > and & so the chart JSON cannot close the script element
		Spec: template.JS(data),
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, pd); err != nil {
		return apperrors.NewRenderError("failed to render page", err)
	}

	if err := writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	}); err != nil {
		e.logger.Error("Dashboard export failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return err
	}

	e.logger.Info("Dashboard exported",
		slog.String("path", path),
		slog.String("run_id", runID),
		slog.Int("bytes", buf.Len()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// renderFootnote converts markdown to HTML. Raw HTML in the source is dropped.
func renderFootnote(md string) template.HTML {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Autolink)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML,
	})
	return template.HTML(markdown.ToHTML([]byte(md), p, r))
}
