package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// segmentBlocks partitions text into an ordered list of non-empty blocks.
// Fenced code regions are kept intact as single blocks, heading-like lines
// open a new block, and blank lines outside code regions close the current
// one.
func segmentBlocks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	var (
		blocks []string
		buf    []string
		inCode bool
	)

	flushBuf := func() {
		if len(buf) == 0 {
			return
		}
		block := strings.TrimSpace(strings.Join(buf, "\n"))
		if block != "" {
			blocks = append(blocks, block)
		}
		buf = nil
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, "```") {
			if inCode {
				// The closing fence ends the block.
				buf = append(buf, line)
				inCode = false
				flushBuf()
				continue
			}
			flushBuf()
			inCode = true
			buf = append(buf, line)
			continue
		}

		if inCode {
			buf = append(buf, line)
			continue
		}

		if isHeadingLine(line) && len(buf) > 0 {
			flushBuf()
			buf = append(buf, line)
			continue
		}

		if stripped == "" {
			flushBuf()
			continue
		}

		buf = append(buf, line)
	}

	flushBuf()
	return blocks
}

// isHeadingLine reports whether a line looks like a section heading:
// a markdown heading, a short line ending with a colon, or a short
// all-uppercase line containing at least one letter.
func isHeadingLine(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "#") {
		return true
	}
	n := utf8.RuneCountInString(s)
	if n <= 80 && strings.HasSuffix(s, ":") {
		return true
	}
	if n <= 60 && strings.ToUpper(s) == s && containsLetter(s) {
		return true
	}
	return false
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
