package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"neurowind/internal/models"
	"neurowind/shared/config"

	"google.golang.org/genai"
)

const maxBriefingLength = 600

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// Briefer writes a short plain-language briefing to accompany a wind alert.
type Briefer struct {
	gen    Generator
	logger *slog.Logger
}

func NewBriefer(ctx context.Context, cfg *config.AIConfig, logger *slog.Logger) (*Briefer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey.Unmask(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return NewBrieferWithGenerator(&geminiGenerator{client: client, model: cfg.Model}, logger), nil
}

func NewBrieferWithGenerator(gen Generator, logger *slog.Logger) *Briefer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Briefer{gen: gen, logger: logger}
}

// Brief returns a briefing for report given the hourly wind speeds behind it.
func (b *Briefer) Brief(ctx context.Context, report *models.AlertReport, hourly []float64) (string, error) {
	if report == nil {
		return "", fmt.Errorf("report cannot be nil")
	}

	text, err := b.gen.Generate(ctx, buildBriefingPrompt(report, hourly))
	if err != nil {
		return "", fmt.Errorf("failed to generate briefing for %s: %w", report.City, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	briefing, err := b.parseBriefing(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse briefing for %s: %w", report.City, err)
	}
	return briefing, nil
}

func buildBriefingPrompt(report *models.AlertReport, hourly []float64) string {
	speeds := make([]string, len(hourly))
	for i, v := range hourly {
		speeds[i] = fmt.Sprintf("+%dh: %.1f", i, v)
	}

	return fmt.Sprintf(`You are a weather assistant writing a short briefing for a strong wind alert.

LOCATION: %s
ALERT THRESHOLD: %.0f km/h
MAXIMUM FORECAST WIND: %.1f km/h at +%dh
HOURS ABOVE THE SPIKE THRESHOLD: %d of %d

HOURLY WIND SPEED AT 10 M (km/h):
%s

INSTRUCTIONS:
1. Describe when the strongest winds are expected and how long they last
2. Give one or two practical precautions for people in %s
3. Do not invent data that is not listed above

Reply in the following JSON format:
{
  "summary": "Two sentences on timing and intensity",
  "advice": "One or two short precautions"
}`,
		report.City,
		report.ThresholdKmh,
		report.MaxWindKmh,
		report.PeakHour,
		report.SpikeCount,
		report.Hours,
		strings.Join(speeds, "\n"),
		report.City,
	)
}

func (b *Briefer) parseBriefing(response string) (string, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("no JSON found in response: %s", truncateString(response, 200))
	}
	jsonStr := response[startIdx : endIdx+1]

	var result struct {
		Summary string `json:"summary"`
		Advice  string `json:"advice"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		sanitized := sanitizeJSON(jsonStr)
		if sanitizedErr := json.Unmarshal([]byte(sanitized), &result); sanitizedErr != nil {
			return "", fmt.Errorf("failed to unmarshal JSON: %w (sanitized version also failed: %v)", err, sanitizedErr)
		}
		b.logger.Warn("had to sanitize malformed briefing JSON")
	}

	if result.Summary == "" {
		return "", fmt.Errorf("briefing summary is required but was empty")
	}

	briefing := strings.TrimSpace(result.Summary)
	if advice := strings.TrimSpace(result.Advice); advice != "" {
		briefing += " " + advice
	}
	return truncateString(briefing, maxBriefingLength), nil
}

// sanitizeJSON escapes stray quotes inside single-line string values, a
// common defect in model output.
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	sanitized := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		colonIdx := strings.Index(line, ":")
		if colonIdx != -1 {
			key := line[:colonIdx+1]
			value := strings.TrimSpace(line[colonIdx+1:])
			if strings.HasPrefix(value, "\"") {
				if last := strings.LastIndex(value, "\""); last > 0 {
					content := strings.ReplaceAll(value[1:last], `\"`, `"`)
					content = strings.ReplaceAll(content, `"`, `\"`)
					line = key + ` "` + content + `"` + value[last+1:]
				}
			}
		}

		sanitized = append(sanitized, line)
	}

	return strings.Join(sanitized, "\n")
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength]) + "..."
}
