package ragchat

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme. A negative index means no color.
type Theme struct {
	UserMsg  int // User message accent
	Status   int // Status part text
	Success  int // Success-highlighted status parts
	Error    int // Error-highlighted status parts and failures
	Warning  int // Warning-highlighted status parts
	Document int // Cited document list
	Muted    int // Status bar, placeholders
	CodeBg   int // Code block background
	Accent   int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:  4,
		Status:   8,
		Success:  2,
		Error:    1,
		Warning:  3,
		Document: 6,
		Muted:    8,
		CodeBg:   0,
		Accent:   5,
	}
}
