package decision

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// StructuredStrategy reads a JSON object reply such as
// {"reasoning": "...", "action": 3}. Markdown code fences and text around the
// object are tolerated.
type StructuredStrategy struct{}

// Name implements Strategy.
func (StructuredStrategy) Name() string { return StageStructured }

var (
	rationaleKeys = []string{"reasoning", "rationale"}
	actionKeys    = []string{"action", "target", "choice"}
)

// Extract implements Strategy.
func (StructuredStrategy) Extract(_ context.Context, raw string, _ []int) (Candidate, bool) {
	obj, ok := jsonObject(raw)
	if !ok {
		return Candidate{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return Candidate{}, false
	}

	var cand Candidate
	for _, k := range rationaleKeys {
		if v, ok := fields[k]; ok {
			var s string
			if json.Unmarshal(v, &s) == nil {
				cand.Rationale = s
				break
			}
		}
	}
	for _, k := range actionKeys {
		if v, ok := fields[k]; ok {
			if text, ok := scalarText(v); ok {
				cand.Text = text
				return cand, true
			}
		}
	}
	return Candidate{}, false
}

// jsonObject returns the outermost {...} span of text.
func jsonObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// scalarText renders a JSON integer, an integral float such as 3.0, or a
// string holding an integer, as integer text. Anything else falls through.
func scalarText(v json.RawMessage) (string, bool) {
	var n json.Number
	if json.Unmarshal(v, &n) == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return "", false
		}
		return strconv.Itoa(int(f)), true
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		s = strings.TrimSpace(s)
		if _, err := strconv.Atoi(s); err == nil {
			return s, true
		}
	}
	return "", false
}

// Arbiter extracts one final numeric choice from a noisy reply. It reports
// false when its own answer is not a valid integer.
type Arbiter interface {
	Arbitrate(ctx context.Context, raw string, legal []int) (int, bool)
}

// ArbitrationStrategy delegates to a secondary model.
type ArbitrationStrategy struct {
	Arbiter Arbiter
}

// Name implements Strategy.
func (ArbitrationStrategy) Name() string { return StageArbitration }

// Extract implements Strategy. A syntactically valid integer is trusted as
// the candidate; legality is checked afterwards like any other stage.
func (s ArbitrationStrategy) Extract(ctx context.Context, raw string, legal []int) (Candidate, bool) {
	n, ok := s.Arbiter.Arbitrate(ctx, raw, legal)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Text: strconv.Itoa(n)}, true
}

// PatternStrategy takes the last optionally signed integer in the reply, or
// the reply itself when it contains none. It never falls through.
type PatternStrategy struct{}

// Name implements Strategy.
func (PatternStrategy) Name() string { return StagePattern }

var integerPattern = regexp.MustCompile(`-?\d+`)

// Extract implements Strategy.
func (PatternStrategy) Extract(_ context.Context, raw string, _ []int) (Candidate, bool) {
	matches := integerPattern.FindAllString(raw, -1)
	if len(matches) == 0 {
		return Candidate{Text: raw}, true
	}
	return Candidate{Text: matches[len(matches)-1]}, true
}
