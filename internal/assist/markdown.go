package assist

import "regexp"

// The persona asks the provider for plain text, but models leak markup
// anyway. StripMarkdown is a best-effort textual cleanup, not a markdown
// parser: fixed-order pattern substitution over the common cases.
var (
	fencedBlock = regexp.MustCompile("(?s)```.*?```")
	boldStars   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnder   = regexp.MustCompile(`__(.+?)__`)
	italicStar  = regexp.MustCompile(`\*(.+?)\*`)
	italicUnder = regexp.MustCompile(`_(.+?)_`)
	heading     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	inlineCode  = regexp.MustCompile("`(.+?)`")
)

// StripMarkdown reduces a raw provider answer to plain text: fenced code
// blocks are removed entirely, paired emphasis markers and inline code
// markers are unwrapped, and line-leading heading markers are dropped. Line
// breaks and bullet glyphs survive untouched.
//
// Fenced blocks go first so the inline-code pattern cannot chew through
// their fence markers.
func StripMarkdown(text string) string {
	text = fencedBlock.ReplaceAllString(text, "")
	text = boldStars.ReplaceAllString(text, "$1")
	text = boldUnder.ReplaceAllString(text, "$1")
	text = italicStar.ReplaceAllString(text, "$1")
	text = italicUnder.ReplaceAllString(text, "$1")
	text = heading.ReplaceAllString(text, "$1")
	text = inlineCode.ReplaceAllString(text, "$1")
	return text
}
