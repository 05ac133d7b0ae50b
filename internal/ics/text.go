package ics

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxLineOctets = 75
	crlf          = "\r\n"

	localLayout = "20060102T150405"
	utcLayout   = "20060102T150405Z"
)

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
	";", `\;`,
	",", `\,`,
)

// EscapeText escapes a TEXT value (RFC 5545 §3.3.11).
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// writeLine writes one content line, folding it at 75 octets without
// splitting a UTF-8 sequence. Continuation lines start with a space.
func writeLine(b *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		b.WriteString(line[:cut])
		b.WriteString(crlf)
		b.WriteByte(' ')
		line = line[cut:]
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	b.WriteString(crlf)
}

func formatLocal(t time.Time) string {
	return t.Format(localLayout)
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(utcLayout)
}
