package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	stylesEnabled bool

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// InitStyles enables styling when enable is true, NO_COLOR is unset
// and f is a terminal.
func InitStyles(enable bool, f *os.File) {
	if os.Getenv("NO_COLOR") != "" || f == nil || !term.IsTerminal(int(f.Fd())) {
		stylesEnabled = false
		return
	}

	stylesEnabled = enable
	if stylesEnabled {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}

// StylesEnabled returns whether styling is currently enabled.
func StylesEnabled() bool {
	return stylesEnabled
}

// Success styles text for successful operations.
func Success(text string) string {
	return render(successStyle, text)
}

// Warning styles text for warnings.
func Warning(text string) string {
	return render(warningStyle, text)
}

// Error styles text for errors.
func Error(text string) string {
	return render(errorStyle, text)
}

// Header styles section titles.
func Header(text string) string {
	return render(headerStyle, text)
}

// Muted styles secondary information.
func Muted(text string) string {
	return render(mutedStyle, text)
}

func render(s lipgloss.Style, text string) string {
	if !stylesEnabled {
		return text
	}
	return s.Render(text)
}
