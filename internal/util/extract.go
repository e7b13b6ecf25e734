package util

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Completion providers wrap JSON payloads in conversational prose more often
// than not. The extraction routines below isolate the first bracketed region
// (greedy, across newlines) and hand it to encoding/json; every call site
// supplies an explicit fallback value, so extraction failure never propagates
// further than the caller.
var (
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
	jsonArrayRe  = regexp.MustCompile(`(?s)\[.*\]`)
	codeBlockRe  = regexp.MustCompile("(?s)```(?:[\\w-]+\\n)?(.*?)```")
)

// FirstJSONObject locates the first top-level {...} region in text and
// unmarshals it into v. Returns false when no region is found or the region
// is not valid JSON.
func FirstJSONObject(text string, v any) bool {
	m := jsonObjectRe.FindString(text)
	if m == "" {
		return false
	}
	return json.Unmarshal([]byte(m), v) == nil
}

// FirstJSONArray locates the first [...] region in text and unmarshals it
// into v. Returns false when no region is found or the region is not valid
// JSON.
func FirstJSONArray(text string, v any) bool {
	m := jsonArrayRe.FindString(text)
	if m == "" {
		return false
	}
	return json.Unmarshal([]byte(m), v) == nil
}

// ExtractCodeBlocks returns the contents of all fenced code blocks in text,
// in order of appearance. The optional language tag after the opening fence
// is stripped; surrounding whitespace is trimmed; empty blocks are dropped.
func ExtractCodeBlocks(text string) []string {
	matches := codeBlockRe.FindAllStringSubmatch(text, -1)
	var blocks []string
	for _, m := range matches {
		if body := strings.TrimSpace(m[1]); body != "" {
			blocks = append(blocks, body)
		}
	}
	return blocks
}
