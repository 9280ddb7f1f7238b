package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dtnitsch/llm-intent-miner/models"
)

// Strategy filters emitted intents. The zero value keeps everything.
type Strategy struct {
	MinConfidence float64
	MinPages      int
	Methods       map[models.SourceMethod]struct{}
}

// ParseStrategy parses a filter such as "conf:>=0.5,pages:>=3,method:pattern|lda".
func ParseStrategy(strategyStr string) (*Strategy, error) {
	if strategyStr == "" {
		return &Strategy{}, nil // No-op strategy
	}

	strategy := &Strategy{}

	parts := strings.Split(strategyStr, ",")
	for _, part := range parts {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid strategy part: %s", part)
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])

		switch key {
		case "conf":
			f, err := parseAtLeast(value)
			if err != nil {
				return nil, fmt.Errorf("invalid confidence value: %w", err)
			}
			strategy.MinConfidence = f
		case "pages":
			f, err := parseAtLeast(value)
			if err != nil {
				return nil, fmt.Errorf("invalid page count value: %w", err)
			}
			strategy.MinPages = int(f)
		case "method":
			if strategy.Methods == nil {
				strategy.Methods = make(map[models.SourceMethod]struct{})
			}
			for _, m := range strings.Split(value, "|") {
				strategy.Methods[models.SourceMethod(strings.TrimSpace(m))] = struct{}{}
			}
		default:
			return nil, fmt.Errorf("unknown strategy key: %s", key)
		}
	}

	return strategy, nil
}

func parseAtLeast(value string) (float64, error) {
	if !strings.HasPrefix(value, ">=") {
		return 0, fmt.Errorf("unsupported operator in: %s", value)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value[2:]), 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number", value)
	}
	return f, nil
}

// Matches reports whether an intent passes the strategy. With methods set,
// at least one of the intent's contributing methods must be listed.
func (s *Strategy) Matches(in models.Intent) bool {
	if in.Confidence < s.MinConfidence || in.PageCount < s.MinPages {
		return false
	}
	if len(s.Methods) == 0 {
		return true
	}
	for _, m := range models.Methods(in.ExtractionMethod) {
		if _, ok := s.Methods[m]; ok {
			return true
		}
	}
	return false
}

// FilterIntents returns the intents that pass the strategy, in order.
func FilterIntents(intents []models.Intent, strategy *Strategy) []models.Intent {
	if strategy == nil {
		return intents // No filtering
	}

	filtered := []models.Intent{}
	for _, in := range intents {
		if strategy.Matches(in) {
			filtered = append(filtered, in)
		}
	}
	return filtered
}
