// Package postprocess removes common LLM artifacts from oracle output and
// locates structured payloads inside free-form completions.
//
// Every oracle completion passes through StripReasoning before it is parsed:
// reasoning models wrap their answer in thinking blocks that may contain
// braces or list-like lines of their own.
package postprocess

import (
	"encoding/json"
	"regexp"
	"strings"
)

// maxJSONScan bounds how far into a completion ExtractJSON looks for an
// opening brace.
const maxJSONScan = 64 * 1024

// maxJSONAttempts bounds how many opening braces ExtractJSON tries to
// decode from before giving up.
const maxJSONAttempts = 32

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// Go's RE2 engine has no backreferences, so each tag pair is listed.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

// codeFenceRe matches markdown code fence lines such as ``` or ```json.
var codeFenceRe = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")

// StripReasoning removes thinking blocks and markdown code fences.
func StripReasoning(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	text = codeFenceRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Clean strips reasoning and a matching pair of outer quotes.
func Clean(text string) string {
	return strings.TrimSpace(removeQuoteWrapping(StripReasoning(text)))
}

// ExtractJSON returns the first well-formed JSON object embedded in text.
// Text before the object and anything after it is ignored. The second
// return value is false when no object could be decoded. Objects must lie
// entirely within the first maxJSONScan bytes.
func ExtractJSON(text string) (json.RawMessage, bool) {
	text = StripReasoning(text)
	limit := len(text)
	if limit > maxJSONScan {
		limit = maxJSONScan
	}

	window := text[:limit]
	attempts := 0
	for i := 0; i < limit && attempts < maxJSONAttempts; i++ {
		if window[i] != '{' {
			continue
		}
		attempts++
		var raw json.RawMessage
		dec := json.NewDecoder(strings.NewReader(window[i:]))
		if err := dec.Decode(&raw); err == nil {
			return raw, true
		}
	}
	return nil, false
}

// removeQuoteWrapping strips a matching pair of outer quotes when the entire
// text is wrapped in them. Supported pairs:
//
//	"…"  '…'  «…»  "…"  '…'
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
