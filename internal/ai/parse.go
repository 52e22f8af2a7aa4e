package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SBrookhart/side-quest-generator/internal/quest"
)

// rawIdea accepts the loose shapes models actually return.
type rawIdea struct {
	Title      string          `json:"title"`
	Murmur     string          `json:"murmur"`
	Quest      string          `json:"quest"`
	Worth      json.RawMessage `json:"worth"`
	Difficulty string          `json:"difficulty"`
}

// ParseIdeas extracts ideas from a completion. It accepts a bare array, an
// object with an "ideas" or "quests" array, or a single idea object, optionally
// wrapped in a markdown code fence.
func ParseIdeas(text string) ([]quest.Idea, error) {
	cleaned := cleanJSONResponse(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	var raws []rawIdea
	switch cleaned[0] {
	case '[':
		if err := json.Unmarshal([]byte(cleaned), &raws); err != nil {
			return nil, fmt.Errorf("decoding idea array: %w", err)
		}
	case '{':
		var wrapped struct {
			Ideas  []rawIdea `json:"ideas"`
			Quests []rawIdea `json:"quests"`
		}
		if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil {
			return nil, fmt.Errorf("decoding idea object: %w", err)
		}
		raws = append(wrapped.Ideas, wrapped.Quests...)
		if len(raws) == 0 {
			var single rawIdea
			if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
				return nil, fmt.Errorf("decoding idea: %w", err)
			}
			raws = []rawIdea{single}
		}
	default:
		return nil, fmt.Errorf("no JSON found in response")
	}

	ideas := make([]quest.Idea, 0, len(raws))
	for _, r := range raws {
		if r.Title == "" && r.Murmur == "" && r.Quest == "" {
			continue
		}
		ideas = append(ideas, quest.Idea{
			Title:      r.Title,
			Murmur:     r.Murmur,
			Quest:      r.Quest,
			Worth:      parseWorth(r.Worth),
			Difficulty: quest.Difficulty(r.Difficulty),
		})
	}
	return ideas, nil
}

// parseWorth takes either a string array or a single string.
func parseWorth(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && strings.TrimSpace(one) != "" {
		return []string{one}
	}
	return nil
}

// cleanJSONResponse strips code fences and any chatter around the JSON value.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.IndexAny(cleaned, "[{")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if cleaned[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(cleaned, closer)
	if end < start {
		return cleaned[start:]
	}
	return cleaned[start : end+1]
}
