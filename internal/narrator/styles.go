package narrator

import "github.com/charmbracelet/lipgloss"

var (
	nightColor   = lipgloss.Color("#60A5FA") // Blue
	dayColor     = lipgloss.Color("#FBBF24") // Yellow
	deathColor   = lipgloss.Color("#F87171") // Red
	wolfColor    = lipgloss.Color("#FB923C") // Orange
	goodColor    = lipgloss.Color("#10B981") // Green
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	speakerColor = lipgloss.Color("#A78BFA") // Purple

	nightHeader  = lipgloss.NewStyle().Bold(true).Foreground(nightColor)
	dayHeader    = lipgloss.NewStyle().Bold(true).Foreground(dayColor)
	deathStyle   = lipgloss.NewStyle().Foreground(deathColor)
	wolfStyle    = lipgloss.NewStyle().Foreground(wolfColor)
	goodStyle    = lipgloss.NewStyle().Foreground(goodColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	speakerStyle = lipgloss.NewStyle().Bold(true).Foreground(speakerColor)
	bannerStyle  = lipgloss.NewStyle().Bold(true).Border(lipgloss.RoundedBorder()).BorderForeground(speakerColor).Padding(0, 2)
)
