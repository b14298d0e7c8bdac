package graph

import (
	"path"
	"sort"
	"strings"
	"unicode"
)

// domainSignals maps business-domain labels to the keywords that indicate
// them. First match on the node's keywords or directory wins; nodes
// matching nothing stay "general".
var domainSignals = []struct {
	domain   string
	keywords []string
}{
	{"authentication", []string{"auth", "login", "session", "token", "password", "oauth", "jwt"}},
	{"user-management", []string{"user", "profile", "account", "member"}},
	{"payments", []string{"payment", "billing", "invoice", "checkout", "subscription", "stripe"}},
	{"orders", []string{"order", "cart", "shipping", "fulfillment"}},
	{"catalog", []string{"product", "catalog", "inventory", "item", "sku"}},
	{"messaging", []string{"message", "notification", "email", "mail", "sms", "chat"}},
	{"search", []string{"search", "query", "filter", "index"}},
	{"analytics", []string{"analytics", "metric", "report", "dashboard", "stat"}},
	{"storage", []string{"database", "storage", "repository", "cache", "persistence"}},
}

// roleRules maps architectural roles to filename and directory signals.
// Suffix rules match the file base name, dir rules the containing path.
var roleRules = []struct {
	role     string
	suffixes []string
	dirs     []string
}{
	{"test", []string{"test", "spec"}, []string{"test", "tests", "__tests__", "spec"}},
	{"controller", []string{"controller", "handler", "route", "routes", "api"}, []string{"controllers", "handlers", "routes", "api"}},
	{"service", []string{"service", "manager", "provider"}, []string{"services"}},
	{"repository", []string{"repository", "repo", "dao", "store"}, []string{"repositories", "dao", "stores"}},
	{"model", []string{"model", "entity", "schema", "types", "dto"}, []string{"models", "entities", "types", "schemas"}},
	{"middleware", []string{"middleware", "interceptor", "guard"}, []string{"middleware", "middlewares"}},
	{"configuration", []string{"config", "configuration", "settings", "env"}, []string{"config", "conf"}},
	{"ui-component", []string{"component", "view", "page", "widget"}, []string{"components", "views", "pages", "ui"}},
	{"utility", []string{"util", "utils", "helper", "helpers", "common"}, []string{"utils", "util", "helpers", "lib", "common"}},
}

// keywordStopwords are identifier fragments too generic to distinguish
// files.
var keywordStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "get": true, "set": true,
	"new": true, "init": true, "index": true, "main": true, "data": true,
	"from": true, "with": true, "this": true, "self": true,
}

// Enrich annotates every file node with semantic keywords, an inferred
// business domain, an inferred architectural role, and a maintainability
// index. Runs after tree linking so entry/leaf flags are already settled.
func (t *DependencyTree) Enrich(data *SemanticGraphData) {
	entitiesByFile := make(map[string][]CodeEntity)
	for _, ent := range data.Entities {
		entitiesByFile[ent.File] = append(entitiesByFile[ent.File], ent)
	}

	for _, node := range t.Nodes {
		if node.Type != NodeFile {
			continue
		}
		node.Meta.Keywords = extractKeywords(node.Path, entitiesByFile[node.Path])
		node.Meta.Domain = inferDomain(node.Path, node.Meta.Keywords)
		node.Meta.Role = inferRole(node.Path)
		node.Meta.Maintainability = maintainabilityIndex(node)
	}
}

// extractKeywords splits the file path and entity names into lowercase
// identifier fragments, deduplicated and sorted.
func extractKeywords(relPath string, entities []CodeEntity) []string {
	seen := make(map[string]bool)
	add := func(word string) {
		word = strings.ToLower(word)
		if len(word) < 3 || keywordStopwords[word] {
			return
		}
		seen[word] = true
	}

	base := strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
	for _, word := range splitIdentifier(base) {
		add(word)
	}
	for _, ent := range entities {
		if ent.Kind == EntityModule {
			continue
		}
		for _, word := range splitIdentifier(ent.Name) {
			add(word)
		}
	}

	keywords := make([]string, 0, len(seen))
	for word := range seen {
		keywords = append(keywords, word)
	}
	sort.Strings(keywords)
	return keywords
}

// splitIdentifier breaks camelCase, snake_case, and kebab-case names into
// words.
func splitIdentifier(name string) []string {
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			if i > 0 {
				flush()
			}
			current.WriteRune(unicode.ToLower(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

func inferDomain(relPath string, keywords []string) string {
	haystack := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		haystack[k] = true
	}
	dirWords := strings.Split(strings.ToLower(path.Dir(relPath)), "/")
	for _, w := range dirWords {
		haystack[w] = true
	}

	for _, signal := range domainSignals {
		for _, keyword := range signal.keywords {
			if haystack[keyword] {
				return signal.domain
			}
		}
	}
	return "general"
}

func inferRole(relPath string) string {
	base := strings.ToLower(strings.TrimSuffix(path.Base(relPath), path.Ext(relPath)))
	dir := strings.ToLower(path.Dir(relPath))
	dirParts := strings.Split(dir, "/")

	for _, rule := range roleRules {
		for _, suffix := range rule.suffixes {
			if base == suffix || strings.HasSuffix(base, suffix) || strings.HasSuffix(base, "_"+suffix) || strings.HasSuffix(base, "."+suffix) {
				return rule.role
			}
		}
		for _, d := range rule.dirs {
			for _, part := range dirParts {
				if part == d {
					return rule.role
				}
			}
		}
	}
	return "unknown"
}

// maintainabilityIndex scores a node 0..100 from size and complexity. A
// coarse proxy, not a calibrated metric.
func maintainabilityIndex(node *TreeNode) float64 {
	score := 100.0
	score -= float64(node.Size) / 200.0
	score -= float64(node.Complexity) * 1.5
	if score < 0 {
		return 0
	}
	return score
}
