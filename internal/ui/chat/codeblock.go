// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// renderPlain renders markdown-ish text without glamour, highlighting fenced
// code blocks directly. Used when the markdown renderer is unavailable and
// for messages that are still streaming.
func renderPlain(text string, dark bool) string {
	lines := strings.Split(text, "\n")
	var result []string
	var codeLines []string
	var language string
	inCode := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			if inCode {
				result = append(result, highlightCode(strings.Join(codeLines, "\n"), language, dark))
				codeLines = nil
				language = ""
				inCode = false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inCode = true
			}
			continue
		}
		if inCode {
			codeLines = append(codeLines, line)
		} else {
			result = append(result, line)
		}
	}
	// Unclosed fence: the block is still streaming in, highlight what we have.
	if inCode && len(codeLines) > 0 {
		result = append(result, highlightCode(strings.Join(codeLines, "\n"), language, dark))
	}

	return strings.Join(result, "\n")
}

// highlightCode applies ANSI syntax highlighting to a code snippet.
func highlightCode(code, language string, dark bool) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "github"
	if dark {
		styleName = "monokai"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
