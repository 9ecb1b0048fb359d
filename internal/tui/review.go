// Package tui implements the interactive review screen: existing decisions
// and fresh proposals for one product, confirmed or rejected from the
// keyboard.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rajavignesh573/shopmatch/internal/candidates"
	"github.com/rajavignesh573/shopmatch/internal/matches"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
)

// Reviewer is the slice of application behavior the review screen needs.
type Reviewer interface {
	Candidates(ctx context.Context, productID string, filter service.CandidateFilter) (*candidates.Result, error)
	ActiveMatches(ctx context.Context, tenantID, productID string) ([]model.ProductMatch, error)
	Sources(ctx context.Context) ([]model.ListingSource, error)
	Confirm(ctx context.Context, in matches.ConfirmInput, reviewerID string) (*model.ProductMatch, error)
	Remove(ctx context.Context, matchID, reviewerID string) error
}

// Config carries everything the review session needs up front.
type Config struct {
	Reviewer   Reviewer
	Product    *model.Product
	Filter     service.CandidateFilter
	TenantID   string
	SessionID  string
	RuleID     string
	ReviewerID string
}

// State represents the current state of the review screen.
type State int

const (
	StateLoading State = iota
	StateBrowsing
	StateNoting
	StateDone
)

type loadedMsg struct {
	items       []model.ReviewItem
	skipped     []candidates.SkippedSource
	sourceCodes map[string]string
}

type decidedMsg struct {
	match *model.ProductMatch
	index int
}

type removedMsg struct {
	index int
}

type errMsg struct {
	err error
}

// Model holds the review screen state.
type Model struct {
	cfg         Config
	ctx         context.Context
	keymap      KeyMap
	spinner     spinner.Model
	noteTmp     textinput.Model
	items       []model.ReviewItem
	skipped     []candidates.SkippedSource
	statuses    []string
	sourceCodes map[string]string
	cursor      int
	state       State
	lastErr     error
	quitting    bool
}

// NewModel creates a review model for one product.
func NewModel(ctx context.Context, cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "note for this decision"
	ti.CharLimit = 200

	return Model{
		cfg:     cfg,
		ctx:     ctx,
		keymap:  DefaultKeyMap(),
		spinner: sp,
		noteTmp: ti,
		state:   StateLoading,
	}
}

// Run starts the review session and blocks until the operator quits.
func Run(ctx context.Context, cfg Config) error {
	program := tea.NewProgram(NewModel(ctx, cfg), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Init loads the review items while the spinner runs.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		existing, err := m.cfg.Reviewer.ActiveMatches(m.ctx, m.cfg.TenantID, m.cfg.Product.ID)
		if err != nil {
			return errMsg{err: err}
		}

		result, err := m.cfg.Reviewer.Candidates(m.ctx, m.cfg.Product.ID, m.cfg.Filter)
		if err != nil {
			return errMsg{err: err}
		}

		// Matches store the registry id of their source while candidates carry
		// the short code; the suppression key must speak one language.
		sources, err := m.cfg.Reviewer.Sources(m.ctx)
		if err != nil {
			return errMsg{err: err}
		}
		sourceCodes := make(map[string]string, len(sources))
		for _, src := range sources {
			sourceCodes[src.ID] = src.Code
		}

		// Pairs already decided show up as their decision, not as a
		// duplicate proposal.
		decided := make(map[string]bool, len(existing))
		items := make([]model.ReviewItem, 0, len(existing)+len(result.Candidates))
		for _, match := range existing {
			decided[sourceCodes[match.SourceID]+"\x00"+match.ExternalKey] = true
			items = append(items, model.NewExistingReview(match))
		}
		for _, cand := range result.Candidates {
			if decided[cand.SourceCode+"\x00"+cand.ExternalKey] {
				continue
			}
			items = append(items, model.NewProposedReview(cand))
		}

		return loadedMsg{items: items, skipped: result.Skipped, sourceCodes: sourceCodes}
	}
}

func (m Model) decideCmd(index int, status model.MatchStatus, notes string) tea.Cmd {
	item := m.items[index]
	if item.Kind != model.ReviewKindProposed {
		return nil
	}
	cand := item.Proposed

	return func() tea.Msg {
		match, err := m.cfg.Reviewer.Confirm(m.ctx, matches.ConfirmInput{
			TenantID:      m.cfg.TenantID,
			ProductID:     cand.ProductID,
			ExternalKey:   cand.ExternalKey,
			SourceCode:    cand.SourceCode,
			RuleID:        m.cfg.RuleID,
			SessionID:     m.cfg.SessionID,
			Notes:         notes,
			Status:        status,
			Score:         cand.Score,
			PriceDeltaPct: cand.PriceDeltaPct,
		}, m.cfg.ReviewerID)
		if err != nil {
			return errMsg{err: err}
		}
		return decidedMsg{match: match, index: index}
	}
}

func (m Model) removeCmd(index int) tea.Cmd {
	item := m.items[index]
	if item.Kind != model.ReviewKindExisting {
		return nil
	}
	matchID := item.Existing.ID

	return func() tea.Msg {
		if err := m.cfg.Reviewer.Remove(m.ctx, matchID, m.cfg.ReviewerID); err != nil {
			return errMsg{err: err}
		}
		return removedMsg{index: index}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.items = msg.items
		m.skipped = msg.skipped
		m.sourceCodes = msg.sourceCodes
		m.statuses = make([]string, len(msg.items))
		m.state = StateBrowsing
		return m, nil

	case decidedMsg:
		m.statuses[msg.index] = string(msg.match.Status)
		m.lastErr = nil
		return m, nil

	case removedMsg:
		m.statuses[msg.index] = string(model.StatusSuperseded)
		m.lastErr = nil
		return m, nil

	case errMsg:
		m.lastErr = msg.err
		if m.state == StateLoading {
			m.state = StateDone
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state == StateNoting {
		var cmd tea.Cmd
		m.noteTmp, cmd = m.noteTmp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == StateNoting {
		switch {
		case key.Matches(msg, m.keymap.Submit):
			notes := strings.TrimSpace(m.noteTmp.Value())
			m.noteTmp.Reset()
			m.state = StateBrowsing
			return m, m.decideCmd(m.cursor, model.StatusMatched, notes)
		case key.Matches(msg, m.keymap.Cancel):
			m.noteTmp.Reset()
			m.state = StateBrowsing
			return m, nil
		default:
			var cmd tea.Cmd
			m.noteTmp, cmd = m.noteTmp.Update(msg)
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keymap.Match):
		if m.state == StateBrowsing && len(m.items) > 0 {
			return m, m.decideCmd(m.cursor, model.StatusMatched, "")
		}
	case key.Matches(msg, m.keymap.NoMatch):
		if m.state == StateBrowsing && len(m.items) > 0 {
			return m, m.decideCmd(m.cursor, model.StatusNotMatched, "")
		}
	case key.Matches(msg, m.keymap.Remove):
		if m.state == StateBrowsing && len(m.items) > 0 {
			return m, m.removeCmd(m.cursor)
		}
	case key.Matches(msg, m.keymap.Note):
		if m.state == StateBrowsing && len(m.items) > 0 &&
			m.items[m.cursor].Kind == model.ReviewKindProposed {
			m.state = StateNoting
			m.noteTmp.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

var (
	reviewTitleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	cursorStyle      = lipgloss.NewStyle().Bold(true)
	decidedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	skippedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).MarginTop(1)
)

// View renders the review screen.
func (m Model) View() string {
	if m.quitting {
		if m.lastErr != nil {
			return errorStyle.Render(fmt.Sprintf("review failed: %v", m.lastErr)) + "\n"
		}
		return ""
	}

	var b strings.Builder
	b.WriteString(reviewTitleStyle.Render(fmt.Sprintf("Reviewing: %s", m.cfg.Product.Title)))
	b.WriteString("\n")

	if m.state == StateLoading {
		b.WriteString(fmt.Sprintf("%s fetching candidates...\n", m.spinner.View()))
		return b.String()
	}

	if len(m.items) == 0 {
		b.WriteString("Nothing to review for this product.\n")
	}

	for i, item := range m.items {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix + m.renderItem(i, item) + "\n")
	}

	for _, skipped := range m.skipped {
		b.WriteString(skippedStyle.Render(
			fmt.Sprintf("skipped source %s: %v", skipped.Code, skipped.Err)) + "\n")
	}

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.lastErr)) + "\n")
	}

	if m.state == StateNoting {
		b.WriteString("\nnote: " + m.noteTmp.View() + "\n")
		b.WriteString(helpStyle.Render("enter save as match • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("j/k move • m match • n not-match • c match with note • d supersede • q quit"))
	}
	return b.String()
}

func (m Model) renderItem(index int, item model.ReviewItem) string {
	if status := m.statuses[index]; status != "" {
		return decidedStyle.Render(fmt.Sprintf("[%s] ", status)) + m.itemLabel(item)
	}
	return m.itemLabel(item)
}

func (m Model) itemLabel(item model.ReviewItem) string {
	switch item.Kind {
	case model.ReviewKindExisting:
		e := item.Existing
		code := m.sourceCodes[e.SourceID]
		if code == "" {
			code = e.SourceID
		}
		return fmt.Sprintf("%s %s/%s score %.3f v%d (%s)",
			e.Status, code, e.ExternalKey, e.Score, e.Version, e.ReviewedBy)
	case model.ReviewKindProposed:
		p := item.Proposed
		return fmt.Sprintf("proposal %s/%s %q score %.3f (%s)",
			p.SourceCode, p.ExternalKey, p.Title, p.Score, strings.Join(p.Explanation, ", "))
	default:
		return "unknown item"
	}
}
