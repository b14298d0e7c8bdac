package extract

import (
	"github.com/gobwas/glob"

	"semgraph/internal/graph"
)

// ClassifierConfig tunes tier routing. Zero values fall back to defaults.
type ClassifierConfig struct {
	// MaxFileSize is the byte ceiling above which files are routed straight
	// to the generic tier.
	MaxFileSize int64
	// ComplexPatterns are file-name globs routed to the analysis tier even
	// when a native parser exists (build and tooling configs are dense with
	// dynamic constructs that static extraction handles poorly).
	ComplexPatterns []string
	// ComplexLanguages are languages always routed to the analysis tier.
	ComplexLanguages []string
}

// DefaultMaxFileSize matches the largest file native parsers handle well.
const DefaultMaxFileSize = 1 << 20

func defaultComplexPatterns() []string {
	return []string{
		"*.config.*",
		"webpack.*",
		"rollup.*",
		"vite.*",
		"gulpfile.*",
	}
}

// Classification is the routing decision for one file.
type Classification struct {
	Tier   Tier
	Reason string
}

// Classifier routes files to extraction tiers by language, size, and
// complexity flags. Classify has no side effects.
type Classifier struct {
	maxFileSize     int64
	native          map[string]bool
	complexLang     map[string]bool
	complexPatterns []glob.Glob
}

// NewClassifier builds a classifier. nativeLanguages is the set of
// languages the native tier has a registered parser for.
func NewClassifier(cfg ClassifierConfig, nativeLanguages []string) *Classifier {
	c := &Classifier{
		maxFileSize: cfg.MaxFileSize,
		native:      make(map[string]bool, len(nativeLanguages)),
		complexLang: make(map[string]bool, len(cfg.ComplexLanguages)),
	}
	if c.maxFileSize <= 0 {
		c.maxFileSize = DefaultMaxFileSize
	}
	for _, lang := range nativeLanguages {
		c.native[lang] = true
	}
	for _, lang := range cfg.ComplexLanguages {
		c.complexLang[lang] = true
	}
	patterns := cfg.ComplexPatterns
	if patterns == nil {
		patterns = defaultComplexPatterns()
	}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			continue
		}
		c.complexPatterns = append(c.complexPatterns, g)
	}
	return c
}

// Classify assigns a file to an extraction tier.
//
// Order matters: the size ceiling always wins, complexity flags divert
// files the native tier could otherwise claim (config-like names hide
// dynamic constructs), then native support, then recognized languages.
func (c *Classifier) Classify(f graph.FileRecord) Classification {
	if f.Size > c.maxFileSize {
		return Classification{Tier: TierGeneric, Reason: "exceeds size ceiling"}
	}

	language := f.Language
	if language == "" {
		language = DetectLanguage(f.RelativePath)
	}

	name := baseName(f.RelativePath)
	for _, g := range c.complexPatterns {
		if g.Match(name) {
			return Classification{Tier: TierAI, Reason: "complex file name"}
		}
	}
	if c.complexLang[language] {
		return Classification{Tier: TierAI, Reason: "complex language"}
	}

	if c.native[language] {
		return Classification{Tier: TierNative, Reason: "native parser registered"}
	}
	if language != "" {
		return Classification{Tier: TierAI, Reason: "no native parser for " + language}
	}
	return Classification{Tier: TierGeneric, Reason: "unrecognized language"}
}

func baseName(relPath string) string {
	for i := len(relPath) - 1; i >= 0; i-- {
		if relPath[i] == '/' || relPath[i] == '\\' {
			return relPath[i+1:]
		}
	}
	return relPath
}
