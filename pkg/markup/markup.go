// Package markup turns the light Markdown produced by language models into
// the HTML subset Telegram accepts.
package markup

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	codeBlock  = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9_+-]*\n)?(.*?)```")
	inlineCode = regexp.MustCompile("`([^`\n]+?)`")
	codeMarker = regexp.MustCompile(`\x00(\d+)\x00`)
)

// Format escapes text and converts **bold**, *italic*, `code` and fenced code
// blocks. Content of code spans is left untouched by the emphasis rules.
func Format(text string) string {
	escaped := html.EscapeString(text)

	var spans []string
	stash := func(s string) string {
		spans = append(spans, s)
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	}
	escaped = codeBlock.ReplaceAllStringFunc(escaped, func(m string) string {
		body := codeBlock.FindStringSubmatch(m)[1]
		return stash("<pre><code>" + body + "</code></pre>")
	})
	escaped = inlineCode.ReplaceAllStringFunc(escaped, func(m string) string {
		body := inlineCode.FindStringSubmatch(m)[1]
		return stash("<code>" + body + "</code>")
	})

	lines := strings.Split(escaped, "\n")
	for i, line := range lines {
		lines[i] = emphasize(line)
	}
	escaped = strings.Join(lines, "\n")

	return codeMarker.ReplaceAllStringFunc(escaped, func(m string) string {
		idx, err := strconv.Atoi(codeMarker.FindStringSubmatch(m)[1])
		if err != nil || idx >= len(spans) {
			return ""
		}
		return spans[idx]
	})
}

type emphasis struct {
	pos     int
	width   int
	closing bool
	paired  bool
}

var emphasisTags = map[int]string{1: "i", 2: "b"}

// emphasize pairs "*" and "**" markers within one line. A closer only
// matches the innermost open marker, so the produced tags always nest;
// markers that cross or stay open are kept as literal text.
func emphasize(line string) string {
	var (
		marks  []emphasis
		stack  []int
		paired bool
	)
	for i := 0; i < len(line); {
		if line[i] != '*' {
			i++
			continue
		}
		mark := emphasis{pos: i, width: 1}
		if i+1 < len(line) && line[i+1] == '*' {
			mark.width = 2
		}
		i += mark.width
		canOpen := i < len(line) && line[i] != ' ' && line[i] != '\t'
		canClose := mark.pos > 0 && line[mark.pos-1] != ' ' && line[mark.pos-1] != '\t'

		idx := len(marks)
		marks = append(marks, mark)
		if canClose && len(stack) > 0 {
			top := stack[len(stack)-1]
			if marks[top].width == mark.width && marks[top].pos+marks[top].width < mark.pos {
				marks[top].paired = true
				marks[idx].paired = true
				marks[idx].closing = true
				stack = stack[:len(stack)-1]
				paired = true
				continue
			}
		}
		if canOpen && !isOpen(marks, stack, mark.width) {
			stack = append(stack, idx)
		}
	}
	if !paired {
		return line
	}

	var b strings.Builder
	last := 0
	for _, mark := range marks {
		if !mark.paired {
			continue
		}
		b.WriteString(line[last:mark.pos])
		if mark.closing {
			b.WriteString("</" + emphasisTags[mark.width] + ">")
		} else {
			b.WriteString("<" + emphasisTags[mark.width] + ">")
		}
		last = mark.pos + mark.width
	}
	b.WriteString(line[last:])
	return b.String()
}

func isOpen(marks []emphasis, stack []int, width int) bool {
	for _, idx := range stack {
		if marks[idx].width == width {
			return true
		}
	}
	return false
}
