package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Claw brand colors
	clawOrange  = lipgloss.Color("#d97757") // Primary accent
	clawBlue    = lipgloss.Color("#6a9bcc") // Secondary accent
	clawGreen   = lipgloss.Color("#788c5d") // Tertiary accent
	clawMidGray = lipgloss.Color("#b0aea5") // Secondary elements

	primaryColor = clawOrange
	accentColor  = clawBlue
	successColor = clawGreen
	errorColor   = lipgloss.Color("#c45c4a")
	dimTextColor = clawMidGray

	// App frame
	appStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Logo
	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	// Kanban columns
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimTextColor).
			Padding(0, 1)

	focusedColumnStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(0, 1)

	columnTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor)

	columnCountStyle = lipgloss.NewStyle().
				Foreground(dimTextColor)

	// Cards
	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	selectedCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(primaryColor).
				Bold(true)

	cardMetaStyle = lipgloss.NewStyle().
			Foreground(dimTextColor)

	// Agent status indicators
	statusWorking = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	statusIdle = lipgloss.NewStyle().
			Foreground(successColor)

	// Help
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(dimTextColor)

	// Misc
	subtitleStyle = lipgloss.NewStyle().
			Foreground(dimTextColor).
			Italic(true)

	errorMsgStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	successMsgStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	emptyBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimTextColor).
			Foreground(dimTextColor).
			Padding(2, 4).
			Align(lipgloss.Center)
)
