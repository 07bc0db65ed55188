package picker

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	yearStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	kindStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	deltaGoodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	deltaWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	deltaBadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)
