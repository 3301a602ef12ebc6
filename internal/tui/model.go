// Package tui is the terminal blackjack table. It plays against any
// session.Table, in process or over the network.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Grosth/BlackjackCSFinal/internal/deck"
	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/Grosth/BlackjackCSFinal/internal/ledger"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const sidebarWidth = 26

// Model represents the Bubble Tea model for one seat at the table
type Model struct {
	ctx    context.Context
	table  session.Table
	logger *log.Logger
	keys   keyMap
	help   help.Model

	// Round log
	logViewport viewport.Model
	gameLog     []string

	joined  bool
	rules   session.Rules
	profile ledger.Profile
	state   *session.State
	bet     int
	busy    bool
	status  string
	err     error

	width    int
	height   int
	quitting bool
}

type joinedMsg struct{ seat session.Seat }

type stateMsg struct{ state session.State }

type errMsg struct{ err error }

// New creates a model seated at table. Requests run under ctx.
func New(ctx context.Context, table session.Table, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	m := &Model{
		ctx:         ctx,
		table:       table,
		logger:      logger.WithPrefix("tui"),
		keys:        newKeyMap(),
		help:        help.New(),
		logViewport: vp,
		status:      "Joining table...",
	}
	m.updateKeys()
	return m
}

// Run plays at table until the player quits or ctx ends
func Run(ctx context.Context, table session.Table, logger *log.Logger) error {
	m := New(ctx, table, logger)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(*Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

// Init joins the table
func (m *Model) Init() tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		seat, err := m.table.Join(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return joinedMsg{seat}
	}
}

// Err is the error that ended the session, if any
func (m *Model) Err() error {
	return m.err
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case joinedMsg:
		m.busy = false
		m.joined = true
		m.rules = msg.seat.Rules
		m.profile = msg.seat.Profile
		m.bet = m.defaultBet()
		m.status = "Place your bet to start"
		m.addLogEntry(fmt.Sprintf("Joined as %s with $%d", m.profile.Username, m.profile.Chips))
		if cur := msg.seat.Current; cur != nil {
			m.state = cur
			m.bet = cur.Round.Bet
			m.status = "Your turn"
			m.addLogEntry(fmt.Sprintf("Resumed round %s", shortID(cur.RoundID)))
		}
		m.logger.Debug("Joined table", "user", m.profile.UserID, "chips", m.profile.Chips)

	case stateMsg:
		m.busy = false
		m.apply(msg.state)

	case errMsg:
		m.busy = false
		if !m.joined {
			m.err = msg.err
			m.quitting = true
			m.updateKeys()
			return m, tea.Quit
		}
		m.logger.Warn("Request failed", "error", msg.err)
		m.status = ErrorStyle.Render(msg.err.Error())

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			m.updateKeys()
			return m, cmd
		}
	}

	m.updateKeys()
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Hit):
		return m.act(session.ActionHit)
	case key.Matches(msg, m.keys.Stand):
		return m.act(session.ActionStand)
	case key.Matches(msg, m.keys.Double):
		return m.act(session.ActionDouble)
	case key.Matches(msg, m.keys.Deal):
		return m.deal()
	case key.Matches(msg, m.keys.BetDown):
		m.stepBet(-1)
	case key.Matches(msg, m.keys.BetUp):
		m.stepBet(1)
	}
	return nil
}

func (m *Model) act(action session.Action) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		st, err := m.table.Act(m.ctx, action)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg{st}
	}
}

func (m *Model) deal() tea.Cmd {
	bet := m.bet
	m.busy = true
	m.status = fmt.Sprintf("Dealing for $%d...", bet)
	return func() tea.Msg {
		st, err := m.table.Deal(m.ctx, bet)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg{st}
	}
}

// apply takes in the state returned by a deal or action
func (m *Model) apply(st session.State) {
	m.state = &st
	m.profile = st.Profile

	if st.Outcome == nil {
		m.status = "Your turn"
		return
	}

	o := st.Outcome
	switch o.Result {
	case game.ResultWin:
		m.status = SuccessStyle.Render("You win!")
	case game.ResultLoss:
		m.status = ErrorStyle.Render("House wins")
	default:
		m.status = WarningStyle.Render("Push")
	}
	m.addLogEntry(fmt.Sprintf("%s %-4s bet $%d  %d vs %d  %+d", shortID(st.RoundID), o.Result, o.Bet, o.PlayerScore, o.DealerScore, o.Delta()))
	m.logger.Debug("Round finished", "round", st.RoundID, "result", o.Result, "chips", st.Profile.Chips)

	// Keep the selected bet affordable for the next round.
	if !m.betAllowed(m.bet) {
		m.bet = m.defaultBet()
	}
}

// inPlay reports whether a round is waiting on the player
func (m *Model) inPlay() bool {
	return m.state != nil && m.state.Outcome == nil && m.state.Round.Status == game.Playing
}

func (m *Model) actions() game.Actions {
	if !m.inPlay() {
		return game.Actions{}
	}
	return m.state.Round.Actions
}

// updateKeys enables only the controls that make sense right now
func (m *Model) updateKeys() {
	ready := m.joined && !m.busy && !m.quitting
	acts := m.actions()
	m.keys.Hit.SetEnabled(ready && acts.CanHit)
	m.keys.Stand.SetEnabled(ready && acts.CanStand)
	m.keys.Double.SetEnabled(ready && acts.CanDouble && m.canCoverDouble())

	betting := ready && !m.inPlay()
	m.keys.Deal.SetEnabled(betting && m.betAllowed(m.bet))
	m.keys.BetDown.SetEnabled(betting && len(m.rules.BetOptions) > 1)
	m.keys.BetUp.SetEnabled(betting && len(m.rules.BetOptions) > 1)
}

// canCoverDouble reports whether the balance covers twice the current bet
func (m *Model) canCoverDouble() bool {
	return m.state != nil && 2*m.state.Round.Bet <= m.profile.Chips
}

// betAllowed reports whether bet is within the table limits and the
// player's chips
func (m *Model) betAllowed(bet int) bool {
	return bet > 0 && bet <= m.profile.Chips && m.rules.CheckBet(bet) == nil
}

// defaultBet is the smallest affordable bet option, or the smallest option
// when none is affordable
func (m *Model) defaultBet() int {
	for _, b := range m.rules.BetOptions {
		if m.betAllowed(b) {
			return b
		}
	}
	if len(m.rules.BetOptions) > 0 {
		return m.rules.BetOptions[0]
	}
	return m.rules.MinBet
}

// stepBet moves the selection to the next affordable option in dir
func (m *Model) stepBet(dir int) {
	opts := m.rules.BetOptions
	cur := -1
	for i, b := range opts {
		if b == m.bet {
			cur = i
			break
		}
	}
	for i := cur + dir; i >= 0 && i < len(opts); i += dir {
		if m.betAllowed(opts[i]) {
			m.bet = opts[i]
			return
		}
	}
}

func (m *Model) addLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	table := m.renderTable()
	sidebar := PaneStyle.Width(sidebarWidth).Render(m.renderSidebar())

	tableWidth := m.width - sidebarWidth - 4
	if tableWidth < 40 {
		tableWidth = 40
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, PaneStyle.Width(tableWidth).Render(table), sidebar)

	logHeight := m.height - lipgloss.Height(top) - 4
	if logHeight < 3 {
		logHeight = 3
	}
	m.logViewport.Width = tableWidth + sidebarWidth
	m.logViewport.Height = logHeight
	logPane := PaneStyle.Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render("Blackjack"),
		top,
		logPane,
		m.help.View(m.keys),
	)
}

func (m *Model) renderTable() string {
	var b strings.Builder

	b.WriteString(m.status)
	b.WriteString("\n\n")

	if m.state != nil {
		r := m.state.Round
		b.WriteString(LabelStyle.Render(fmt.Sprintf("Dealer (%d)", r.DealerScore)))
		b.WriteString("\n")
		b.WriteString(formatCards(r.DealerHand, r.HoleCard))
		b.WriteString("\n\n")
		b.WriteString(LabelStyle.Render(fmt.Sprintf("You (%d)", r.PlayerScore)))
		b.WriteString("\n")
		b.WriteString(formatCards(r.PlayerHand, false))
		b.WriteString("\n\n")
		bet := fmt.Sprintf("Bet: $%d", r.Bet)
		if r.Doubled {
			bet += " (doubled)"
		}
		b.WriteString(BetStyle.Render(bet))
		b.WriteString("\n")
	}

	if !m.inPlay() && m.joined {
		b.WriteString("\n")
		b.WriteString(m.renderBets())
	}
	return b.String()
}

func (m *Model) renderBets() string {
	opts := make([]string, 0, len(m.rules.BetOptions))
	for _, bet := range m.rules.BetOptions {
		label := fmt.Sprintf(" $%d ", bet)
		switch {
		case bet == m.bet:
			opts = append(opts, SelectedBetStyle.Render(label))
		case !m.betAllowed(bet):
			opts = append(opts, DisabledStyle.Render(label))
		default:
			opts = append(opts, BetStyle.Render(label))
		}
	}
	return "Bet: " + strings.Join(opts, " ")
}

func (m *Model) renderSidebar() string {
	p := m.profile
	var b strings.Builder
	b.WriteString(LabelStyle.Render(p.Username))
	b.WriteString("\n\n")
	b.WriteString(WarningStyle.Render(fmt.Sprintf("Chips: $%d", p.Chips)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Wins:   %d\n", p.Wins)
	fmt.Fprintf(&b, "Losses: %d\n", p.Losses)
	fmt.Fprintf(&b, "Ties:   %d\n", p.Ties)
	fmt.Fprintf(&b, "Win rate: %.0f%%\n", p.WinRate())
	if m.state != nil {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("Deck: %d cards", m.state.Round.DeckRemaining)))
	}
	return b.String()
}

// formatCards renders a hand, with a face-down card appended when the
// dealer's hole card is hidden
func formatCards(cards []deck.Card, hole bool) string {
	formatted := make([]string, 0, len(cards)+1)
	for _, card := range cards {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}
	if hole {
		formatted = append(formatted, FaceDownStyle.Render("??"))
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
