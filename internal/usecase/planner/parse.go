package planner

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// rawStep is a step object as the model wrote it. Values stay untyped
// because models mix strings and numbers freely.
type rawStep map[string]any

var requiredKeys = []string{"action_type", "selector", "description"}

var fencedArray = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")

type imperative struct {
	re     *regexp.Regexp
	action string
}

var imperatives = []imperative{
	{regexp.MustCompile(`(?i)clicks?\s+(?:on\s+)?(?:the\s+)?['"]([^'"]+)['"]`), "click"},
	{regexp.MustCompile(`(?i)types?\s+['"]([^'"]+)['"]`), "type"},
	{regexp.MustCompile(`(?i)selects?\s+['"]([^'"]+)['"]`), "select"},
	{regexp.MustCompile(`(?i)waits?\s+(?:for\s+)?(\d+)`), "wait"},
}

// tier is one extraction strategy over raw model output.
type tier struct {
	name    string
	extract func(text string) []rawStep
}

var tiers = []tier{
	{"fenced", extractFenced},
	{"array", extractArray},
	{"objects", extractObjects},
	{"imperative", extractImperatives},
}

func extractFenced(text string) []rawStep {
	m := fencedArray.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return decodeArray(m[1])
}

func extractArray(text string) []rawStep {
	spans := balancedSpans(text, '[', ']')
	if len(spans) == 0 {
		return nil
	}
	return decodeArray(spans[0])
}

func extractObjects(text string) []rawStep {
	var steps []rawStep
	for _, span := range balancedSpans(text, '{', '}') {
		var obj rawStep
		if err := json.Unmarshal([]byte(span), &obj); err != nil {
			continue
		}
		if hasKeys(obj, requiredKeys...) {
			steps = append(steps, obj)
		}
	}
	return steps
}

// extractImperatives reads phrases such as "click 'New issue'" or "wait 3"
// out of free text, in the order they appear.
func extractImperatives(text string) []rawStep {
	type hit struct {
		pos  int
		step rawStep
	}
	var hits []hit

	for _, imp := range imperatives {
		for _, m := range imp.re.FindAllStringSubmatchIndex(text, -1) {
			value := text[m[2]:m[3]]
			var step rawStep
			switch imp.action {
			case "wait":
				secs, _ := strconv.Atoi(value)
				step = rawStep{"action_type": "wait", "wait_time": secs, "description": "Wait for " + value + " seconds"}
			case "type":
				step = rawStep{"action_type": "type", "selector": "input:visible", "text": value, "description": "Type " + value}
			case "select":
				step = rawStep{"action_type": "select", "selector": "select:visible", "options": value, "description": "Select " + value}
			default:
				step = rawStep{"action_type": "click", "selector": "text=" + value, "description": "Click " + value}
			}
			hits = append(hits, hit{pos: m[0], step: step})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	steps := make([]rawStep, 0, len(hits))
	for _, h := range hits {
		steps = append(steps, h.step)
	}
	return steps
}

// decodeArray parses a JSON array of step objects, repairing it first when
// strict decoding fails.
func decodeArray(s string) []rawStep {
	var steps []rawStep
	if err := json.Unmarshal([]byte(s), &steps); err == nil {
		return steps
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(repaired), &steps); err != nil {
		return nil
	}
	return steps
}

// balancedSpans returns every top-level open..close span of text, skipping
// delimiters inside double-quoted strings.
func balancedSpans(text string, open, close byte) []string {
	var spans []string
	depth, start := 0, -1
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			if depth == 0 {
				start = i
			}
			depth++
		case c == close && depth > 0:
			depth--
			if depth == 0 {
				spans = append(spans, text[start:i+1])
				start = -1
			}
		}
	}
	return spans
}

func hasKeys(obj rawStep, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

func (r rawStep) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func (r rawStep) int(key string) (int, bool) {
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}
