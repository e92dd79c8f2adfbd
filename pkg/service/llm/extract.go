package llm

import (
	"regexp"
	"strings"
)

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON pulls a JSON document out of a model response. Models
// sometimes wrap the payload in a markdown fence or surround it with
// prose, so the extraction tries progressively looser strategies:
// fenced block first, then the outermost array, then the outermost
// object, and finally the trimmed text as-is.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)

	if m := jsonFenceRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}

	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return trimmed[start : end+1]
		}
	}

	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return trimmed[start : end+1]
		}
	}

	return trimmed
}
