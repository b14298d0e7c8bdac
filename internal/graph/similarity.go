package graph

import (
	"path"
	"sort"
)

// Similarity bonuses stacked on top of the keyword Jaccard score. Two
// files in the same directory sharing a domain and role get a meaningful
// boost even with disjoint vocabularies.
const (
	sameDirectoryBonus = 0.2
	sameDomainBonus    = 0.15
	sameRoleBonus      = 0.1
)

// ComputeSimilarity fills every file node's similar-node list with the ids
// of nodes whose pairwise similarity clears the threshold. Similarity is
// Jaccard overlap of the keyword sets plus same-directory, same-domain,
// and same-role bonuses, capped at 1.
func (t *DependencyTree) ComputeSimilarity(threshold float64) {
	var ids []string
	for id, node := range t.Nodes {
		if node.Type == NodeFile {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := t.Nodes[ids[i]], t.Nodes[ids[j]]
			if nodeSimilarity(a, b) >= threshold {
				a.Meta.SimilarNodes = appendUnique(a.Meta.SimilarNodes, b.ID)
				b.Meta.SimilarNodes = appendUnique(b.Meta.SimilarNodes, a.ID)
			}
		}
	}
}

func nodeSimilarity(a, b *TreeNode) float64 {
	score := jaccard(a.Meta.Keywords, b.Meta.Keywords)
	if path.Dir(a.Path) == path.Dir(b.Path) {
		score += sameDirectoryBonus
	}
	if a.Meta.Domain != "" && a.Meta.Domain == b.Meta.Domain && a.Meta.Domain != "general" {
		score += sameDomainBonus
	}
	if a.Meta.Role != "" && a.Meta.Role == b.Meta.Role && a.Meta.Role != "unknown" {
		score += sameRoleBonus
	}
	if score > 1 {
		score = 1
	}
	return score
}

// jaccard computes |A ∩ B| / |A ∪ B| over two keyword slices.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	var intersection int
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		if seen[s] {
			continue
		}
		seen[s] = true
		if set[s] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
