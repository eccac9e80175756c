package web

import (
	"fmt"
	"html/template"
	"net/http"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/internal/models"
	"neurowind/internal/neuro"
)

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"predicted": func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%.1f", *v)
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>neurowind{{if .Model}}: {{.Model.City.Name}}{{end}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.5; color: #333; max-width: 1000px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1f4ed8; color: white; padding: 16px 20px; border-radius: 8px; margin-bottom: 20px; }
        form.controls label { margin-right: 14px; }
        .summary { background-color: #f8f9fa; padding: 15px; border-radius: 8px; margin: 20px 0; }
        .alert { background-color: #FFEBEE; border-left: 4px solid #C62828; padding: 12px; border-radius: 8px; }
        .warning { color: #FF9800; }
        .error { color: #C62828; font-weight: bold; }
        table { border-collapse: collapse; width: 100%; font-size: 14px; }
        th, td { border-bottom: 1px solid #ddd; padding: 4px 8px; text-align: right; }
    </style>
</head>
<body>
    <div class="header"><h1>Neuromorphic wind forecast</h1></div>

    <form class="controls" method="get" action="/">
        <label>City
            <select name="city">{{range .Cities}}
                <option value="{{.Name}}"{{if eq .Name $.Params.City}} selected{{end}}>{{.Name}}</option>{{end}}
            </select>
        </label>
        <label>Spike threshold
            <input type="number" name="threshold" min="{{.MinThreshold}}" max="{{.MaxThreshold}}" step="{{.ThresholdStep}}" value="{{.Params.Threshold}}">
        </label>
        <label>Window
            <input type="number" name="window" min="{{.MinWindow}}" max="{{.MaxWindow}}" value="{{.Params.Window}}">
        </label>
        <label><input type="checkbox" name="armed"{{if .Params.Armed}} checked{{end}}><input type="hidden" name="armed" value="false"> Armed</label>
        <label>Recipient <input type="email" name="recipient" value="{{.Params.Recipient}}"></label>
        <button type="submit">Run</button>
    </form>
{{if .Error}}
    <p class="error">{{.Error}}</p>
{{end}}{{with .Model}}
    <div class="summary">
        {{range $.Summary}}<div>{{.}}</div>{{end}}
        {{range .Warnings}}<div class="warning">{{.}}</div>{{end}}
    </div>

    <div class="alert">
        <p>{{$.AlertLine}}</p>
        {{if .Alert.Trigger}}
        <form method="post" action="/api/alert?{{$.Query}}">
            <button type="submit">Send alert to {{.Alert.Recipient}}</button>
        </form>
        {{end}}
    </div>

    <p><img src="/api/chart.png?{{$.Query}}" alt="wind chart for {{.City.Name}}" width="960"></p>
    <p><a href="/api/export.csv?{{$.Query}}">Download CSV</a></p>

    <table>
        <tr><th>Hour</th><th>Wind</th><th>Normalized</th><th>Spike</th><th>Neuron output</th><th>Predicted</th></tr>
        {{range .Rows}}<tr><td>{{.Hour}}</td><td>{{printf "%.1f" .Wind}}</td><td>{{printf "%.3f" .NormalizedWind}}</td><td>{{.Spike}}</td><td>{{printf "%.0f" .NeuronOutput}}</td><td>{{predicted .PredictedWind}}</td></tr>
        {{end}}
    </table>
{{end}}
</body>
</html>
`))

type pageData struct {
	Cities    []models.City
	Params    models.CycleParams
	Model     *models.RenderModel
	Summary   []string
	AlertLine string
	Query     template.URL
	Error     string

	MinThreshold, MaxThreshold, ThresholdStep float64
	MinWindow, MaxWindow                      int
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Cities:        s.cycle.Cities(),
		Params:        windwatch.ParamsFromConfig(s.cfg),
		MinThreshold:  neuro.MinThreshold,
		MaxThreshold:  neuro.MaxThreshold,
		ThresholdStep: neuro.ThresholdStep,
		MinWindow:     neuro.MinWindow,
		MaxWindow:     neuro.MaxWindow,
	}
	status := http.StatusOK

	_ = r.ParseForm()
	if p, err := parseParams(r.Form, data.Params); err == nil {
		data.Params = p
	}

	model, err := s.runCycle(r)
	if err != nil {
		status, _ = errorStatus(err)
		data.Error = err.Error()
	} else {
		data.Model = model
		data.Summary = windwatch.SummaryLines(model)
		data.AlertLine = windwatch.AlertLine(model)
		data.Query = template.URL(encodeParams(model.Params))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("page rendering failed", "error", err)
	}
}
