package quest

import (
	"regexp"
	"sort"
	"strings"
)

// jargonRewrites maps technical terms to phrasing a non-engineer can follow.
// Order here does not matter; rewrites are applied longest pattern first so
// "CI/CD pipeline" wins over "CI/CD" and "pull requests" over "pull request".
var jargonRewrites = map[string]string{
	"ci/cd pipelines":        "automated checks",
	"ci/cd pipeline":         "automated checks",
	"ci/cd":                  "automated checks",
	"continuous integration": "automated checks",
	"pull requests":          "code change requests",
	"pull request":           "code change request",
	"merge conflicts":        "overlapping edits",
	"merge conflict":         "overlapping edit",
	"monorepo":               "shared codebase",
	"microservices":          "small connected apps",
	"microservice":           "small connected app",
	"kubernetes cluster":     "server fleet",
	"kubernetes":             "server fleet",
	"k8s":                    "server fleet",
	"api endpoints":          "web hooks",
	"api endpoint":           "web hook",
	"webhooks":               "automatic notifications",
	"webhook":                "automatic notification",
	"cli tool":               "command-line helper",
	"dependency graph":       "map of what relies on what",
	"dependencies":           "building blocks",
	"stack trace":            "error trail",
	"stack traces":           "error trails",
	"observability":          "visibility",
	"latency":                "lag",
	"smart contracts":        "on-chain programs",
	"smart contract":         "on-chain program",
	"rpc node":               "network gateway",
	"llm":                    "AI model",
	"embeddings":             "meaning fingerprints",
	"vector database":        "similarity search store",
}

// technicalTerms mark an idea as too deep for a Hard rating to stand.
var technicalTerms = []string{
	"compiler", "kernel", "llvm", "webassembly", "wasm", "zero-knowledge", "zk proof",
	"merkle", "consensus algorithm", "byzantine", "garbage collector", "jit",
	"bytecode", "assembly", "cryptographic", "elliptic curve", "distributed database",
	"kafka", "terraform", "rust macro", "memory allocator", "gpu shader", "cuda",
	"fine-tune", "fine-tuning", "quantization", "transformer architecture",
}

type rewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

var (
	rewrites      = compileRewrites(jargonRewrites)
	technicalExpr = compileTerms(technicalTerms)
)

func compileRewrites(table map[string]string) []rewrite {
	terms := make([]string, 0, len(table))
	for term := range table {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	out := make([]rewrite, 0, len(terms))
	for _, term := range terms {
		out = append(out, rewrite{
			pattern:     termPattern(term),
			replacement: table[term],
		})
	}
	return out
}

func compileTerms(terms []string) *regexp.Regexp {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}

func termPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
}

// RewriteJargon replaces technical terms in s with friendlier phrasing.
func RewriteJargon(s string) string {
	if s == "" {
		return s
	}
	for _, rw := range rewrites {
		s = rw.pattern.ReplaceAllLiteralString(s, rw.replacement)
	}
	return s
}

// IsTooTechnical reports whether any of texts mentions a term that should
// keep an idea out of the Hard bucket.
func IsTooTechnical(texts ...string) bool {
	for _, t := range texts {
		if technicalExpr.MatchString(t) {
			return true
		}
	}
	return false
}
