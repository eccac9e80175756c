package email

import (
	"bytes"
	"fmt"
	"html/template"

	"neurowind/internal/models"
)

var alertTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Strong Wind Alert</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 720px; margin: 0 auto; padding: 20px; }
        .header { background-color: #C62828; color: white; padding: 20px; border-radius: 8px; margin-bottom: 20px; text-align: center; }
        .summary { background-color: #FFEBEE; padding: 15px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #C62828; }
        .briefing { background-color: #f8f9fa; padding: 15px; border-radius: 8px; margin-bottom: 20px; }
        .metric { display: inline-block; margin: 10px 15px 10px 0; }
        .metric-label { font-weight: bold; color: #666; }
        .metric-value { font-size: 18px; color: #C62828; }
        .footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; border-top: 1px solid #ddd; padding-top: 15px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Strong Wind Alert</h1>
        <h2>{{.City}}</h2>
        <p>{{.Date.Format "Monday, January 2, 2006 at 15:04 MST"}}</p>
    </div>

    <div class="summary">
        <p><strong>{{.Message}}</strong></p>
        <div class="metric">
            <div class="metric-label">Max wind</div>
            <div class="metric-value">{{printf "%.1f km/h" .MaxWindKmh}}</div>
        </div>
        <div class="metric">
            <div class="metric-label">Alert threshold</div>
            <div class="metric-value">{{printf "%.0f km/h" .ThresholdKmh}}</div>
        </div>
        <div class="metric">
            <div class="metric-label">Peak hour</div>
            <div class="metric-value">+{{.PeakHour}}h</div>
        </div>
        <div class="metric">
            <div class="metric-label">Spikes</div>
            <div class="metric-value">{{.SpikeCount}} / {{.Hours}}</div>
        </div>
    </div>
{{if .Briefing}}
    <div class="briefing">
        <h3>Briefing</h3>
        <p>{{.Briefing}}</p>
    </div>
{{end}}
    <div class="footer">
        <p>Generated by neurowind. Weather data from Open-Meteo.</p>
    </div>
</body>
</html>
`))

// AlertSubject is the subject line of a strong wind alert.
func AlertSubject(city string) string {
	return fmt.Sprintf("Strong wind alert: %s", city)
}

// RenderAlert turns a report into a message for recipient.
func RenderAlert(report *models.AlertReport, recipient string) (Message, error) {
	if report == nil {
		return Message{}, fmt.Errorf("report cannot be nil")
	}

	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, report); err != nil {
		return Message{}, fmt.Errorf("failed to render alert body: %w", err)
	}

	text := report.Message
	if report.Briefing != "" {
		text += "\n\n" + report.Briefing
	}

	return Message{
		To:       recipient,
		Subject:  AlertSubject(report.City),
		HTMLBody: buf.String(),
		TextBody: text,
	}, nil
}
