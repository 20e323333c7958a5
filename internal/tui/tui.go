// Package tui is the terminal front end for a seated player. It renders the
// client view of a table and turns typed commands into protocol requests.
package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/holdemtable/internal/account"
	"github.com/lox/holdemtable/internal/client"
	"github.com/lox/holdemtable/internal/deck"
	"github.com/lox/holdemtable/internal/lobby"
	"github.com/lox/holdemtable/internal/table"
)

// Actions are the requests the model can make of the server
type Actions interface {
	Act(action string, amount int) error
	JoinTable(tableID string) error
	LeaveTable() error
	ListTables() error
}

// Messages fed into the program by the bridge

type SnapshotMsg struct {
	State      *table.State
	ReceivedAt time.Time
}

type WelcomeMsg struct{ Profile account.Profile }

type TableLeftMsg struct{ TableID string }

type TableListMsg struct{ Tables []lobby.Summary }

type ServerErrorMsg struct{ Code, Message string }

type TickMsg time.Time

type DisconnectedMsg struct{ Err error }

// Model is the Bubble Tea model for one player
type Model struct {
	view    *client.View
	results *client.ResultFeed
	actions Actions
	logger  *log.Logger
	now     func() time.Time

	logViewport viewport.Model
	actionInput textinput.Model

	gameLog     []string
	focusedPane int // 0 = log, 1 = input
	quitting    bool
	width       int
	height      int
}

// NewModel creates a model that renders view and sends commands through actions
func NewModel(view *client.View, results *client.ResultFeed, actions Actions, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "fold, check, call, raise 40, leave, quit"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(chalk)
	ti.Prompt = "> "

	return &Model{
		view:        view,
		results:     results,
		actions:     actions,
		logger:      logger.WithPrefix("tui"),
		now:         time.Now,
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case SnapshotMsg:
		m.applySnapshot(msg)

	case WelcomeMsg:
		m.AddLogEntry(SuccessStyle.Render(fmt.Sprintf("Welcome %s, you have $%d (%d hands played, %d won)",
			msg.Profile.Nickname, msg.Profile.Chips, msg.Profile.Stats.HandsPlayed, msg.Profile.Stats.HandsWon)))

	case TableLeftMsg:
		m.view.Clear()
		m.AddLogEntry(InfoStyle.Render("Left table " + msg.TableID + ". Type 'join' to sit down again."))

	case TableListMsg:
		m.logTables(msg.Tables)

	case ServerErrorMsg:
		m.AddLogEntry(ErrorStyle.Render(fmt.Sprintf("Error (%s): %s", msg.Code, msg.Message)))

	case DisconnectedMsg:
		if msg.Err != nil {
			m.AddLogEntry(ErrorStyle.Render("Disconnected: " + msg.Err.Error()))
		}
		m.quitting = true
		return m, tea.Quit

	case TickMsg:
		// redraw only

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				if cmd := m.processInput(input); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// processInput runs a typed command and returns tea.Quit for quit
func (m *Model) processInput(input string) tea.Cmd {
	c, err := ParseCommand(input)
	if err != nil {
		m.AddLogEntry(WarningStyle.Render(err.Error()))
		return nil
	}

	if name, ok := c.wireAction(); ok {
		if !m.view.IsMyTurn() {
			m.AddLogEntry(WarningStyle.Render("It's not your turn"))
			return nil
		}
		err = m.actions.Act(name, c.Amount)
	} else {
		switch c.Kind {
		case CommandJoin:
			err = m.actions.JoinTable(c.TableID)
		case CommandLeave:
			err = m.actions.LeaveTable()
		case CommandTables:
			err = m.actions.ListTables()
		case CommandQuit:
			m.quitting = true
			return tea.Sequence(tea.ClearScreen, tea.Quit)
		}
	}

	if err != nil {
		m.logger.Warn("Failed to send command", "input", input, "error", err)
		m.AddLogEntry(ErrorStyle.Render("Failed to send: " + err.Error()))
	}
	return nil
}

// applySnapshot updates the view and narrates what changed
func (m *Model) applySnapshot(msg SnapshotMsg) {
	prev := m.view.State()
	if !m.view.ApplySnapshot(msg.State, msg.ReceivedAt) {
		return
	}
	next := msg.State

	for _, line := range describeChanges(prev, next, m.view.PlayerID()) {
		m.AddLogEntry(line)
	}

	if r, ok := m.results.Next(next, m.view.ServerNow(m.now())); ok {
		for _, line := range describeResult(r) {
			m.AddLogEntry(line)
		}
	}
}

// describeChanges lists the log lines for the step from prev to next
func describeChanges(prev, next *table.State, me string) []string {
	var lines []string

	if prev == nil || prev.ID != next.ID {
		lines = append(lines, InfoStyle.Render("Seated at table "+next.ID))
		prev = nil
	}

	var before []string
	if prev != nil {
		for _, p := range prev.Players {
			before = append(before, p.UID)
		}
	}
	after := make([]string, 0, len(next.Players))
	for _, p := range next.Players {
		after = append(after, p.UID)
		if prev != nil && !slices.Contains(before, p.UID) {
			lines = append(lines, InfoStyle.Render(displayName(&p)+" sat down"))
		}
	}
	if prev != nil {
		for _, p := range prev.Players {
			if !slices.Contains(after, p.UID) {
				lines = append(lines, InfoStyle.Render(displayName(&p)+" left"))
			}
		}
	}

	if next.Locked && (prev == nil || !prev.Locked) && next.Status == table.StatusStarting {
		lines = append(lines, WarningStyle.Render("Table locked, the hand is about to start"))
	}

	if next.Status == table.StatusPlaying && (prev == nil || next.HandNumber != prev.HandNumber) {
		lines = append(lines, HeaderStyle.Render(fmt.Sprintf(" Hand #%d ", next.HandNumber)))
		if p, ok := next.Player(me); ok && len(p.Cards) > 0 {
			lines = append(lines, HandInfoStyle.Render("Your cards: ")+formatCards(p.Cards))
		}
	}

	if prev != nil && prev.HandNumber == next.HandNumber && next.Round != prev.Round {
		switch next.Round {
		case table.RoundFlop, table.RoundTurn, table.RoundRiver:
			lines = append(lines, fmt.Sprintf("*** %s *** %s", strings.ToUpper(next.Round.String()), formatCards(next.CommunityCards)))
		}
	}

	return lines
}

func describeResult(r *table.Result) []string {
	var lines []string
	for _, w := range r.Winners {
		line := fmt.Sprintf("%s wins $%d", nonEmpty(w.Nickname, w.UID), w.Amount)
		for _, h := range r.Hands {
			if h.UID == w.UID {
				line += " with " + h.Hand.Label + " " + formatCards(h.Cards)
				break
			}
		}
		lines = append(lines, SuccessStyle.Render(line))
	}
	if r.ByFold {
		lines = append(lines, InfoStyle.Render("Everyone else folded"))
	}
	return lines
}

func (m *Model) logTables(tables []lobby.Summary) {
	if len(tables) == 0 {
		m.AddLogEntry(InfoStyle.Render("No tables open. Type 'join' to start one."))
		return
	}
	m.AddLogEntry(InfoStyle.Render("Tables:"))
	for _, t := range tables {
		lock := ""
		if t.Locked {
			lock = " locked"
		}
		m.AddLogEntry(fmt.Sprintf("  %s  %s%s  %d/%d seats  $%d/$%d",
			t.ID, t.Status, lock, t.Seated, t.MaxSeats, t.SmallBlind, t.BigBlind))
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight-2, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 30)
	paneHeight := max(m.height-actionHeight-4, 1)
	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(slate).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	m.logViewport.Width = max(m.width-sidebarWidth-4, 1)
	m.logViewport.Height = paneHeight

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(slate).
		Width(m.logViewport.Width).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(accent)
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderSidebarPane shows the table: status, board, pot and seats
func (m *Model) renderSidebarPane() string {
	s := m.view.State()
	if s == nil {
		return InfoStyle.Render("Not seated. Type 'join'.")
	}

	var content strings.Builder
	fmt.Fprintf(&content, "%s\n", HeaderStyle.Render(fmt.Sprintf(" Table %s ", shortID(s.ID))))
	fmt.Fprintf(&content, "Blinds $%d/$%d\n", s.SmallBlind, s.BigBlind)

	switch s.Status {
	case table.StatusWaiting:
		content.WriteString(InfoStyle.Render("Waiting for players"))
	case table.StatusStarting:
		remaining, _ := m.view.CountdownRemaining(m.now())
		line := fmt.Sprintf("Next hand in %ds", remaining)
		if s.Locked {
			line += " (locked)"
		}
		content.WriteString(WarningStyle.Render(line))
	case table.StatusPlaying:
		content.WriteString(HandInfoStyle.Render(fmt.Sprintf("Hand #%d: %s", s.HandNumber, s.Round)))
	}
	content.WriteString("\n\n")

	if len(s.CommunityCards) > 0 {
		fmt.Fprintf(&content, "Board: %s\n", formatCards(s.CommunityCards))
	}
	content.WriteString(WarningStyle.Render(fmt.Sprintf("Pot: $%d", s.Pot)))
	if s.CurrentBet > 0 {
		content.WriteString(" | ")
		content.WriteString(WarningStyle.Render(fmt.Sprintf("Bet: $%d", s.CurrentBet)))
	}
	content.WriteString("\n\n")

	players := slices.Clone(s.Players)
	slices.SortFunc(players, func(a, b table.Seat) int { return a.Seat - b.Seat })
	current, hasCurrent := s.Current()
	for i := range players {
		content.WriteString(m.renderSeat(&players[i], hasCurrent && current.UID == players[i].UID))
		content.WriteString("\n")
	}

	return content.String()
}

func (m *Model) renderSeat(p *table.Seat, acting bool) string {
	marker := "  "
	if acting {
		marker = "▶ "
	}
	dealer := ""
	if p.IsDealer {
		dealer = " (D)"
	}

	name := displayName(p)
	if p.UID == m.view.PlayerID() {
		name += " (you)"
	}

	line := fmt.Sprintf("%s%d. %s%s $%d", marker, p.Seat+1, name, dealer, p.Chips)
	if p.Bet > 0 {
		line += fmt.Sprintf(" bet $%d", p.Bet)
	}
	if p.Status == table.SeatAllIn {
		line += " all-in"
	}

	switch {
	case p.Status == table.SeatFolded:
		return FoldedStyle.Render(line)
	case acting:
		return CurrentPlayerStyle.Render(line)
	default:
		return line
	}
}

// renderActionPane renders the prompt and the action input
func (m *Model) renderActionPane() string {
	var content strings.Builder

	if me, ok := m.view.Me(); ok && len(me.Cards) > 0 {
		content.WriteString(HandInfoStyle.Render("Hand: ") + formatCards(me.Cards))
		content.WriteString("\n")
	}

	if m.view.IsMyTurn() {
		toCall := m.view.ToCall()
		actions := []string{ErrorStyle.Render("[fold]")}
		if toCall == 0 {
			actions = append(actions, SuccessStyle.Render("[check]"))
		} else {
			actions = append(actions, SuccessStyle.Render(fmt.Sprintf("[call $%d]", toCall)))
		}
		actions = append(actions, WarningStyle.Render(fmt.Sprintf("[raise %d+]", m.view.MinRaise())))
		content.WriteString(ActionsStyle.Render("Your turn: ") + strings.Join(actions, " "))
	} else {
		content.WriteString(HandInfoStyle.Render("Waiting..."))
	}
	content.WriteString("\n")

	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	if m.focusedPane == 0 {
		content.WriteString(HelpStyle.Render("Log focused: ↑↓ scroll, Home/End, Tab to input"))
	} else {
		content.WriteString(HelpStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}
	return content.String()
}

// AddLogEntry adds an entry to the game log and scrolls to it
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the game log lines
func (m *Model) Log() []string {
	return slices.Clone(m.gameLog)
}

// formatCards formats cards with colors
func formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(cards))
	for _, card := range cards {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.Symbol()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.Symbol()))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

func displayName(p *table.Seat) string {
	return nonEmpty(p.Nickname, p.UID)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
