// ABOUTME: Grammar for decoding opaque postback payload strings into typed actions
// ABOUTME: Tolerates the structured, JSON, and legacy bracketed encodings

package postback

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Action is the decoded form of a postback payload. Namespace and Argument
// are empty when the encoding does not carry them.
type Action struct {
	Namespace string
	Name      string
	Argument  string
	Raw       string
}

// summaryRe matches the structured "summary:<action>:<argument>" encoding.
var summaryRe = regexp.MustCompile(`^summary:(get_grade|re_grade|apply_manual|confirm_manual):([^:]+)$`)

// legacyAliases maps historical bracketed action names (including known
// misspellings) onto their current names.
var legacyAliases = map[string]string{
	"get_summary_gradding":      "get_grade",
	"get_summary_grading":       "get_grade",
	"summary_re-gradding":       "re_grade",
	"summary_re-gradding_by_TA": "apply_manual",
}

// jsonPayload is the shape of the JSON postback encoding.
type jsonPayload struct {
	Type         string `json:"type"`
	Action       string `json:"action"`
	ContentsName string `json:"contents_name"`
}

// Parse decodes a raw postback string. It is a total function: unrecognized
// input yields an Action whose Name is the raw string itself. Postback
// payloads are schema-less platform strings that have changed shape over
// time, so Parse must never fail.
func Parse(raw string) Action {
	raw = strings.TrimSpace(raw)

	if m := summaryRe.FindStringSubmatch(raw); m != nil {
		return Action{Namespace: "summary", Name: m[1], Argument: m[2], Raw: raw}
	}

	if strings.HasPrefix(raw, "{") {
		var p jsonPayload
		if err := json.Unmarshal([]byte(raw), &p); err == nil && p.Type == "INFO" && p.Action != "" {
			return Action{Name: p.Action, Argument: p.ContentsName, Raw: raw}
		}
	}

	if rest, ok := strings.CutPrefix(raw, "[INFO]"); ok {
		parts := strings.Fields(rest)
		name := ""
		arg := ""
		if len(parts) > 0 {
			name = parts[0]
		}
		if len(parts) > 1 {
			arg = parts[1]
		}
		if alias, ok := legacyAliases[name]; ok {
			name = alias
		}
		return Action{Name: name, Argument: arg, Raw: raw}
	}

	return Action{Name: raw, Raw: raw}
}
