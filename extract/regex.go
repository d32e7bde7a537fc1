package extract

import (
	"fmt"
	"regexp"

	"github.com/prashantdagar001/automation-api/registry"
)

// patternsFor builds the recognized phrasings for one parameter name:
// "name=value", "name: value", "name is value", "with a name of value",
// and `"value" for the name`.
func patternsFor(name string) []*regexp.Regexp {
	quoted := regexp.QuoteMeta(name)
	return []*regexp.Regexp{
		regexp.MustCompile(fmt.Sprintf(`(?i)%s\s*[=:]\s*["']?([^"',\s]+)["']?`, quoted)),
		regexp.MustCompile(fmt.Sprintf(`(?i)%s\s+(?:is|should be|as)\s+["']?([^"',\s]+)["']?`, quoted)),
		regexp.MustCompile(fmt.Sprintf(`(?i)with\s+(?:a|the)?\s*%s\s+(?:of|as)\s+["']?([^"',\s]+)["']?`, quoted)),
		regexp.MustCompile(fmt.Sprintf(`(?i)["']([^"',\s]+)["']\s+(?:for|as)\s+(?:the)?\s*%s`, quoted)),
	}
}

// FromPrompt pulls parameter values out of explicit substrings of the
// prompt. Parameters it cannot find are simply absent from the result; the
// caller decides whether to fall back to an LLM extractor.
func FromPrompt(prompt string, params []registry.ParameterSpec) map[string]any {
	extracted := make(map[string]any)

	for _, param := range params {
		for _, pattern := range patternsFor(param.Name) {
			if m := pattern.FindStringSubmatch(prompt); m != nil {
				extracted[param.Name] = m[1]
				break
			}
		}
	}

	return extracted
}
