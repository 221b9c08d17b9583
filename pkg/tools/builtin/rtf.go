package builtin

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Destinations whose content is not document text.
var rtfSkipDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "header": true, "footer": true, "object": true,
	"themedata": true, "datastore": true, "latentstyles": true,
	"listtable": true, "listoverridetable": true, "rsidtbl": true,
	"generator": true, "xmlnstbl": true,
}

// rtfToText strips RTF control words and groups, keeping paragraph
// breaks, tabs, hex escapes and \u escapes.
func rtfToText(src string) string {
	var (
		out      strings.Builder
		skip     []bool
		skipping bool
		ucSkip   = 1
		pending  int
	)

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '{':
			skip = append(skip, skipping)
		case '}':
			if n := len(skip); n > 0 {
				skipping = skip[n-1]
				skip = skip[:n-1]
			}
		case '\\':
			if i+1 >= len(src) {
				continue
			}
			next := src[i+1]
			switch {
			case next == '\\' || next == '{' || next == '}':
				i++
				if !skipping {
					out.WriteByte(next)
				}
			case next == '*':
				i++
				skipping = true
			case next == '\'':
				if i+3 < len(src) {
					if b, err := strconv.ParseUint(src[i+2:i+4], 16, 8); err == nil && !skipping {
						if pending > 0 {
							pending--
						} else {
							out.WriteRune(charmap.Windows1252.DecodeByte(byte(b)))
						}
					}
				}
				i += 3
			case next == '\n' || next == '\r':
				i++
				if !skipping {
					out.WriteByte('\n')
				}
			case isRTFLetter(next):
				j := i + 1
				for j < len(src) && isRTFLetter(src[j]) {
					j++
				}
				word := src[i+1 : j]
				k := j
				if k < len(src) && (src[k] == '-' || isDigit(src[k])) {
					k++
					for k < len(src) && isDigit(src[k]) {
						k++
					}
				}
				param := src[j:k]
				if k < len(src) && src[k] == ' ' {
					k++
				}
				i = k - 1

				if rtfSkipDestinations[word] {
					skipping = true
					continue
				}
				if skipping {
					continue
				}
				switch word {
				case "par", "line", "sect", "row":
					out.WriteByte('\n')
				case "tab", "cell":
					out.WriteByte('\t')
				case "emdash":
					out.WriteRune('\u2014')
				case "endash":
					out.WriteRune('\u2013')
				case "bullet":
					out.WriteRune('\u2022')
				case "uc":
					if n, err := strconv.Atoi(param); err == nil {
						ucSkip = n
					}
				case "u":
					if n, err := strconv.Atoi(param); err == nil {
						if n < 0 {
							n += 65536
						}
						out.WriteRune(rune(n))
						pending = ucSkip
					}
				}
			default:
				i++
			}
		case '\r', '\n':
		default:
			if skipping {
				continue
			}
			if pending > 0 {
				pending--
				continue
			}
			out.WriteByte(c)
		}
	}
	return strings.TrimSpace(out.String())
}

func isRTFLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
