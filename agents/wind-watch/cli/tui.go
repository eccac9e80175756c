package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/internal/models"
	"neurowind/internal/neuro"
	"neurowind/shared/logging"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
)

const tuiCycleTimeout = 30 * time.Second

var tuiFlags cycleFlags

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal dashboard",
	Long: `Interactive dashboard in the terminal. Every change of city, threshold,
window or arming re-runs the cycle.

Keys:
  left/right  previous/next city
  up/down     threshold +/- 0.05
  +/-         window +/- 1
  a           arm/disarm the alert
  s           send the alert now (only when it triggers)
  r           refresh
  q           quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiFlags.register(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// stderr belongs to the terminal UI; keep only the log file, if any.
	tuiLogger := logging.Discard()
	if cfg.Logging.File != "" {
		var closeFile func() error
		tuiLogger, closeFile = logging.NewFileOnly(cfg.Logging.Level, cfg.Logging.File)
		defer closeFile()
	}

	ctx := cmd.Context()
	svc := newServices(cfg, tuiLogger)
	m := newDashboardModel(ctx, svc.cycle, svc.dispatcher(ctx, cfg, tuiLogger), tuiFlags.params(cmd, cfg))
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("dashboard UI error: %w", err)
	}
	return nil
}

type cycleMsg struct {
	model *models.RenderModel
	err   error
}

type sendMsg struct {
	err error
}

// dashboardModel is the bubbletea model for the terminal dashboard.
type dashboardModel struct {
	ctx        context.Context
	cycle      *windwatch.Cycle
	dispatcher *windwatch.Dispatcher
	cities     []models.City
	cityIdx    int
	params     models.CycleParams

	result  *models.RenderModel
	err     error
	status  string
	loading bool

	spikeBar progress.Model
	windBar  progress.Model
	theme    Theme
}

func newDashboardModel(ctx context.Context, cycle *windwatch.Cycle, dispatcher *windwatch.Dispatcher, params models.CycleParams) dashboardModel {
	m := dashboardModel{
		ctx:        ctx,
		cycle:      cycle,
		dispatcher: dispatcher,
		cities:     cycle.Cities(),
		params:     params,
		spikeBar:   progress.New(progress.WithDefaultBlend(), progress.WithWidth(40)),
		windBar:    progress.New(progress.WithDefaultBlend(), progress.WithWidth(40)),
		theme:      defaultTheme,
	}
	for i, c := range m.cities {
		if c.Name == params.City {
			m.cityIdx = i
		}
	}
	return m
}

func (m dashboardModel) Init() tea.Cmd {
	return m.runCycle()
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg.String())

	case cycleMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.result = msg.model
		}
		return m, nil

	case sendMsg:
		switch {
		case msg.err == nil:
			m.status = "Alert sent"
		case errors.Is(msg.err, windwatch.ErrNotTriggered):
			m.status = "No alert to send"
		default:
			m.status = "Alert not delivered: " + msg.err.Error()
		}
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "left", "h":
		if len(m.cities) > 0 {
			m.cityIdx = (m.cityIdx + len(m.cities) - 1) % len(m.cities)
			m.params.City = m.cities[m.cityIdx].Name
		}
	case "right", "l":
		if len(m.cities) > 0 {
			m.cityIdx = (m.cityIdx + 1) % len(m.cities)
			m.params.City = m.cities[m.cityIdx].Name
		}
	case "up", "k":
		m.params.Threshold = stepThreshold(m.params.Threshold, 1)
	case "down", "j":
		m.params.Threshold = stepThreshold(m.params.Threshold, -1)
	case "+", "=":
		if m.params.Window < neuro.MaxWindow {
			m.params.Window++
		}
	case "-":
		if m.params.Window > neuro.MinWindow {
			m.params.Window--
		}
	case "a":
		m.params.Armed = !m.params.Armed
	case "s":
		if m.result == nil {
			return m, nil
		}
		m.status = "Sending alert..."
		return m, m.send(m.result)
	case "r":
	default:
		return m, nil
	}

	m.status = ""
	cmd := m.runCycle()
	return m, cmd
}

// stepThreshold moves t by dir steps and keeps it on the 0.05 grid.
func stepThreshold(t float64, dir int) float64 {
	steps := math.Round((t-neuro.MinThreshold)/neuro.ThresholdStep) + float64(dir)
	maxSteps := math.Round((neuro.MaxThreshold - neuro.MinThreshold) / neuro.ThresholdStep)
	steps = math.Max(0, math.Min(maxSteps, steps))
	return math.Round((neuro.MinThreshold+steps*neuro.ThresholdStep)*100) / 100
}

func (m *dashboardModel) runCycle() tea.Cmd {
	m.loading = true
	parent, cycle, params := m.ctx, m.cycle, m.params
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, tuiCycleTimeout)
		defer cancel()
		model, err := cycle.Run(ctx, params)
		return cycleMsg{model: model, err: err}
	}
}

func (m dashboardModel) send(model *models.RenderModel) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, time.Minute)
		defer cancel()
		return sendMsg{err: m.dispatcher.Send(ctx, model)}
	}
}

func (m dashboardModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m dashboardModel) renderContent() string {
	var b strings.Builder
	t := m.theme

	armed := "disarmed"
	if m.params.Armed {
		armed = "armed"
	}
	b.WriteString(t.titleStyle().Render(fmt.Sprintf("%s  threshold %.2f  window %d  alert %s",
		m.params.City, m.params.Threshold, m.params.Window, armed)))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(t.alertStyle().Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.result == nil:
		b.WriteString("Loading forecast...\n")
	default:
		m.renderResult(&b, m.result)
	}

	if m.loading && m.result != nil {
		b.WriteString(t.hintStyle().Render("refreshing..."))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(t.hintStyle().Render("←/→ city  ↑/↓ threshold  +/- window  a arm  s send  r refresh  q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m dashboardModel) renderResult(b *strings.Builder, model *models.RenderModel) {
	s := model.Summary
	var spikePct float64
	if s.Hours > 0 {
		spikePct = float64(s.SpikeCount) / float64(s.Hours)
	}
	windPct := math.Min(1, s.MaxWind/(2*neuro.AlertThresholdKmh))

	fmt.Fprintf(b, "Spikes    %s %d/%d\n", m.spikeBar.ViewAs(spikePct), s.SpikeCount, s.Hours)
	fmt.Fprintf(b, "Max wind  %s %.1f km/h\n\n", m.windBar.ViewAs(windPct), s.MaxWind)
	for _, line := range windwatch.SummaryLines(model) {
		fmt.Fprintf(b, "  %s\n", line)
	}
	fmt.Fprintf(b, "  %s\n", m.theme.alertLine(model))
	for _, w := range model.Warnings {
		fmt.Fprintf(b, "  %s\n", m.theme.warningStyle().Render("warning: "+w))
	}
	b.WriteString("\n")
	b.WriteString(hourTable(model.Rows))
}
