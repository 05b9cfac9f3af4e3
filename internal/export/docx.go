package export

import (
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

var (
	reBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet  = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reHeading = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
)

// WriteCueCards renders a module's notes to a docx file at outputPath.
// Notes without any recognised card are written as plain paragraphs.
func WriteCueCards(title, markdown, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), title, "000000", 16)

	cards := Cards(markdown)
	if len(cards) == 0 {
		addBody(doc, markdown)
		return doc.SaveTo(outputPath)
	}

	for _, c := range cards {
		doc.AddParagraph("")
		addStyledRun(doc.AddParagraph(""), c.Title, c.Color, 15)
		addBody(doc, c.Body)
	}
	return doc.SaveTo(outputPath)
}

func addBody(doc *docx.RootDoc, markdown string) {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" {
			continue
		}
		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			addStyledRun(doc.AddParagraph(""), m[1], "000000", 14)
			continue
		}
		if m := reBullet.FindStringSubmatch(trimmed); m != nil {
			addRichText(doc.AddParagraph(""), "• "+m[1])
			continue
		}
		addRichText(doc.AddParagraph(""), trimmed)
	}
}

func addStyledRun(p *docx.Paragraph, text, color string, size uint64) {
	p.AddText(cleanMarkdownInline(text)).Font(fontName).Size(size).Color(color).Bold(true)
}

func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(cleanMarkdownInline(part)).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			p.AddText(cleanMarkdownInline(matches[i][1])).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}

func cleanMarkdownInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
