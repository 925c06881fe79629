package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tubepost/internal/recovery"
	"tubepost/internal/transcript"
)

var (
	solveTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	solveStepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	solveHelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	solveSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	solveErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var solveCmd = &cobra.Command{
	Use:   "solve <youtube-url>",
	Short: "Open a browser to clear a YouTube verification challenge",
	Long: `Opens a visible browser window on the video so you can clear the
"confirm you're not a bot" challenge. Once the player loads, your fresh
session cookies are saved and yt-dlp picks them up automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSolve(cmd.Context(), args[0])
	},
}

type solveState int

const (
	solveWaiting solveState = iota
	solveDone
	solveFailed
)

type solveResultMsg struct {
	outcome *recovery.Outcome
	err     error
}

type solveModel struct {
	spinner  spinner.Model
	state    solveState
	url      string
	outcome  *recovery.Outcome
	err      error
	resultCh chan solveResultMsg
}

func newSolveModel(url string, resultCh chan solveResultMsg) solveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	return solveModel{spinner: s, url: url, resultCh: resultCh}
}

func (m solveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForResult())
}

func (m solveModel) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return <-m.resultCh
	}
}

func (m solveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.state = solveFailed
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
	case solveResultMsg:
		m.outcome = msg.outcome
		m.err = msg.err
		if msg.err != nil {
			m.state = solveFailed
		} else {
			m.state = solveDone
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m solveModel) View() string {
	out := solveTitleStyle.Render("YouTube verification") + "\n\n"

	switch m.state {
	case solveWaiting:
		out += m.spinner.View() + solveStepStyle.Render(" Waiting for you to clear the challenge in the browser window...") + "\n\n"
		out += solveStepStyle.Render("  1. A browser window opened on the video") + "\n"
		out += solveStepStyle.Render("  2. Complete the verification YouTube shows you") + "\n"
		out += solveStepStyle.Render("  3. Once the video player appears, cookies save automatically") + "\n\n"
		out += solveHelpStyle.Render("  q or ctrl+c to cancel")
	case solveDone:
		out += solveSuccessStyle.Render(fmt.Sprintf("✓ Challenge cleared. Saved %d cookies.", m.outcome.CookieCount)) + "\n"
	case solveFailed:
		out += solveErrorStyle.Render(fmt.Sprintf("✗ %v", m.err)) + "\n"
	}
	return out
}

func runSolve(ctx context.Context, url string) error {
	if transcript.ExtractVideoID(url) == "" {
		return fmt.Errorf("not a recognizable YouTube video URL: %s", url)
	}

	a := newApp(false)
	flow := a.recoveryFlow()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan solveResultMsg, 1)
	go func() {
		outcome, err := flow.Run(ctx, url)
		resultCh <- solveResultMsg{outcome: outcome, err: err}
	}()

	final, err := tea.NewProgram(newSolveModel(url, resultCh)).Run()
	if err != nil {
		return err
	}

	m := final.(solveModel)
	if m.err != nil {
		return m.err
	}
	fmt.Printf("Cookies saved to %s\n", a.store.Path())
	return nil
}
