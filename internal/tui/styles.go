package tui

import "github.com/charmbracelet/lipgloss"

// Table palette
var (
	colorFelt   = lipgloss.Color("#7D56F4")
	colorLight  = lipgloss.Color("#FAFAFA")
	colorMint   = lipgloss.Color("#96CEB4")
	colorRed    = lipgloss.Color("#FF6B6B")
	colorGold   = lipgloss.Color("#FFD700")
	colorCream  = lipgloss.Color("#FFEAA7")
	colorMuted  = lipgloss.Color("#626262")
	colorShadow = lipgloss.Color("#000000")
)

var (
	HeaderStyle = lipgloss.NewStyle().Foreground(colorLight).Background(colorFelt).Bold(true).Padding(0, 1)
	LabelStyle  = lipgloss.NewStyle().Foreground(colorMint).Bold(true)
	PaneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1)

	// Cards: suit colour decides the style, the hole card is drawn in felt.
	RedCardStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	BlackCardStyle = lipgloss.NewStyle().Foreground(colorLight).Bold(true)
	FaceDownStyle  = lipgloss.NewStyle().Foreground(colorFelt)

	// Bet selector
	BetStyle         = lipgloss.NewStyle().Foreground(colorGold)
	SelectedBetStyle = lipgloss.NewStyle().Foreground(colorShadow).Background(colorGold).Bold(true)
	DisabledStyle    = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)

	// Status line
	SuccessStyle = lipgloss.NewStyle().Foreground(colorMint).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(colorCream).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)
