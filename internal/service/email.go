package service

import (
	"fmt"
	"strings"

	"titleboost/internal/core/domain"
)

const emailSubject = "🎯 Improved YouTube Titles Ready for Review"

const emailOutro = `These improvements are designed to boost click-through rate, search visibility and viewer engagement.

Let me know which ones you'd like to use!

Best,
The Content Optimization Team`

// renderEmail builds the plain-text notification for a list of suggestions.
func renderEmail(recipientName string, suggestions []domain.Suggestion) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", recipientName)
	b.WriteString("Here are some improved YouTube title suggestions based on your existing titles:\n\n")

	for i, s := range suggestions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. Original: %s\n   Improved: %s", i+1, s.OriginalTitle, s.ImprovedTitle)
		if s.Rationale != "" {
			fmt.Fprintf(&b, "\n   Why it works: %s", s.Rationale)
		}
		if s.URL != "" {
			fmt.Fprintf(&b, "\n   Video: %s", s.URL)
		}
	}

	b.WriteString("\n\n")
	b.WriteString(emailOutro)
	return emailSubject, b.String()
}
