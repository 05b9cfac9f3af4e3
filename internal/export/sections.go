// Package export renders module notes as cue-card documents.
package export

import "strings"

// Card is one cue-card section of a module's notes.
type Card struct {
	Title string
	Body  string
	// Color is the hex accent used for the card heading.
	Color string
}

// cardOrder lists the cue cards in display order with their accent colours.
var cardOrder = []Card{
	{Title: "Objectives", Color: "B71C1C"},
	{Title: "Notes", Color: "1B5E20"},
	{Title: "Definitions", Color: "0D47A1"},
	{Title: "Practical Application", Color: "F57F17"},
}

// ParseSections splits markdown on "## " headings. Keys are the lowercased
// heading text; text before the first heading is ignored.
func ParseSections(markdown string) map[string]string {
	sections := make(map[string]string)
	current := ""
	var buf []string
	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			current = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "## ")))
			buf = buf[:0]
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return sections
}

// Cards returns the non-empty cue cards found in markdown, in display order.
func Cards(markdown string) []Card {
	sections := ParseSections(markdown)
	var cards []Card
	for _, c := range cardOrder {
		if body := sections[strings.ToLower(c.Title)]; body != "" {
			c.Body = body
			cards = append(cards, c)
		}
	}
	return cards
}
