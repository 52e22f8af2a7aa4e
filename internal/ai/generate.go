package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
	"github.com/SBrookhart/side-quest-generator/internal/resolve"
	"github.com/SBrookhart/side-quest-generator/internal/signal"
)

const (
	batchMaxTokens       = 2048
	replacementMaxTokens = 512
	maxInspiration       = 12
	maxBlockedInPrompt   = 200
)

const questShape = `Each side quest is a JSON object with:
  "title": a short, playful name (max 6 words)
  "murmur": one sentence describing the wish or frustration people keep voicing
  "quest": one or two sentences describing a small thing a solo builder could make in a weekend
  "worth": an array of 1 to 3 short reasons it is worth building
  "difficulty": one of "Easy", "Medium", "Hard"

Write for curious non-experts. Avoid jargon like "CI/CD", "webhooks" or "Kubernetes".`

const batchPrompt = `You invent "side quests": small, fun, buildable project ideas inspired by what people are murmuring about online.

Date: %s
%s
Recent murmurs:
%s
Generate exactly %d side quests. At most one may be "Hard".

` + questShape + `

Respond with ONLY a JSON array of %d objects, nothing else.`

const replacementPrompt = `You invent "side quests": small, fun, buildable project ideas inspired by what people are murmuring about online.

Date: %s

Recent murmurs:
%s
Generate ONE new side quest. Its title must not match any of these already-used titles (case and punctuation are ignored):
%s

` + questShape + `

Respond with ONLY a JSON array containing the single object, nothing else.`

// Generator asks a Provider for side quest ideas.
type Generator struct {
	provider Provider
}

func NewGenerator(p Provider) *Generator {
	return &Generator{provider: p}
}

// GenerateBatch asks for n ideas for date. focus, when set, nudges the theme.
// The ideas come back raw; callers normalize them.
func (g *Generator) GenerateBatch(ctx context.Context, date string, n int, inspiration []signal.Signal, focus string) ([]quest.Idea, error) {
	focusLine := ""
	if focus != "" {
		focusLine = fmt.Sprintf("Lean toward the %q theme.\n", focus)
	}
	prompt := fmt.Sprintf(batchPrompt, date, focusLine, formatInspiration(inspiration), n, n)

	text, err := g.provider.Complete(ctx, prompt, batchMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating batch with %s: %w", g.provider.Name(), err)
	}
	ideas, err := ParseIdeas(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s batch: %w", g.provider.Name(), err)
	}
	if len(ideas) == 0 {
		return nil, fmt.Errorf("%s returned no ideas", g.provider.Name())
	}
	if len(ideas) > n {
		ideas = ideas[:n]
	}
	logging.From(ctx).Debug("generated batch", "provider", g.provider.Name(), "requested", n, "got", len(ideas))
	return ideas, nil
}

// Replacer returns a resolve.Generator that asks for one idea at a time for date.
// An empty or unparseable completion costs an attempt rather than aborting.
func (g *Generator) Replacer(date string, inspiration []signal.Signal) resolve.Generator {
	murmurs := formatInspiration(inspiration)
	return resolve.GeneratorFunc(func(ctx context.Context, blocked []string) (quest.Idea, error) {
		prompt := fmt.Sprintf(replacementPrompt, date, murmurs, formatBlocked(blocked))
		text, err := g.provider.Complete(ctx, prompt, replacementMaxTokens)
		if err != nil {
			return quest.Idea{}, fmt.Errorf("generating replacement with %s: %w", g.provider.Name(), err)
		}
		ideas, err := ParseIdeas(text)
		if err != nil {
			logging.From(ctx).Debug("unparseable replacement", "provider", g.provider.Name(), "error", err)
			return quest.Idea{}, resolve.ErrNoCandidate
		}
		if len(ideas) == 0 {
			return quest.Idea{}, resolve.ErrNoCandidate
		}
		return ideas[0], nil
	})
}

func formatInspiration(signals []signal.Signal) string {
	if len(signals) == 0 {
		return "- (nothing notable today; draw on everyday annoyances)\n"
	}
	if len(signals) > maxInspiration {
		signals = signals[:maxInspiration]
	}
	var sb strings.Builder
	for _, s := range signals {
		sb.WriteString("- ")
		sb.WriteString(s.Title)
		if s.Source != "" {
			sb.WriteString(" [")
			sb.WriteString(s.Source)
			sb.WriteString("]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatBlocked keeps the head of the list to bound the prompt. The resolver
// orders batch keys first, so only older history falls off, and it still
// checks every candidate against the full history.
func formatBlocked(blocked []string) string {
	if len(blocked) == 0 {
		return "- (none)"
	}
	if len(blocked) > maxBlockedInPrompt {
		blocked = blocked[:maxBlockedInPrompt]
	}
	return "- " + strings.Join(blocked, "\n- ")
}
