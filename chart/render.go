package chart

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
)

var page = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <script src="https://cdn.jsdelivr.net/npm/vega@5"></script>
  <script src="https://cdn.jsdelivr.net/npm/vega-lite@5"></script>
  <script src="https://cdn.jsdelivr.net/npm/vega-embed@6"></script>
  <style>
    form.vega-bindings {
      font-family: sans-serif;
      font-size: 12px;
      position: absolute;
      opacity: 0.75;
      display: flex;
      gap: 5px;
      left: 45px;
      top: 75px;
    }
    .vega-bind-name { display: none; }
  </style>
</head>
<body>
  <div id="vis"></div>
  <script type="text/javascript">
    vegaEmbed("#vis", {{.Spec}}, {"mode": "vega-lite"}).catch(console.error);
  </script>
</body>
</html>
`))

// Render writes the chart as a standalone HTML document.
func (c *Chart) Render(w io.Writer) error {
	spec, err := json.Marshal(c.Spec)
	if err != nil {
		return fmt.Errorf("encode chart spec: %w", err)
	}
	return page.Execute(w, struct {
		Title string
		Spec  template.JS
	}{
		Title: "Grade Distribution " + c.Title,
		Spec:  template.JS(spec),
	})
}

// WriteFile renders the chart to path.
func (c *Chart) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := c.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
