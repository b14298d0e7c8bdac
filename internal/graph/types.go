// Package graph defines the semantic code graph model and the analysis
// passes that run over it: cross-file resolution, dependency tree
// construction, cycle detection, and cluster analysis.
package graph

import "time"

// EntityKind identifies what sort of code construct an entity is.
type EntityKind string

const (
	EntityModule    EntityKind = "module"
	EntityClass     EntityKind = "class"
	EntityFunction  EntityKind = "function"
	EntityMethod    EntityKind = "method"
	EntityVariable  EntityKind = "variable"
	EntityInterface EntityKind = "interface"
	EntityType      EntityKind = "type"
)

// RelationshipKind identifies the semantics of a directed relationship.
type RelationshipKind string

const (
	RelImports    RelationshipKind = "IMPORTS"
	RelExtends    RelationshipKind = "EXTENDS"
	RelImplements RelationshipKind = "IMPLEMENTS"
	RelCalls      RelationshipKind = "CALLS"
	RelDefines    RelationshipKind = "DEFINES"
	RelUses       RelationshipKind = "USES"
	RelContains   RelationshipKind = "CONTAINS"
)

// Strategy names the extraction tier that produced a result.
type Strategy string

const (
	StrategyNative  Strategy = "native"
	StrategyAI      Strategy = "ai"
	StrategyGeneric Strategy = "generic"
)

// FileRecord describes one discovered source file handed to the engine.
// Paths use forward slashes; RelativePath is relative to the analysis root.
type FileRecord struct {
	Path         string    `json:"path"`
	RelativePath string    `json:"relative_path"`
	Language     string    `json:"language"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"` // "file" or "dir" entries from discovery
	ModTime      time.Time `json:"mod_time,omitempty"`
}

// EntityMeta carries extraction provenance for an entity.
type EntityMeta struct {
	Language   string   `json:"language,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Strategy   Strategy `json:"strategy,omitempty"`
	Reason     string   `json:"reason,omitempty"` // why a fallback produced this entity
}

// CodeEntity is a named code unit extracted from a source file.
// Entities are immutable once created.
type CodeEntity struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      EntityKind `json:"kind"`
	File      string     `json:"file"`
	StartLine int        `json:"start_line"`
	EndLine   int        `json:"end_line"`
	Signature string     `json:"signature,omitempty"`
	Modifiers []string   `json:"modifiers,omitempty"`
	Meta      EntityMeta `json:"meta"`
}

// RelationshipMeta carries extraction provenance for a relationship.
type RelationshipMeta struct {
	Language string   `json:"language,omitempty"`
	Strategy Strategy `json:"strategy,omitempty"`
}

// SemanticRelationship is a directed, typed link between two entities.
// TargetFile is empty until cross-file resolution fills it in (imports) or
// when the target never resolves to a file in the analyzed set.
type SemanticRelationship struct {
	ID           string           `json:"id"`
	SourceFile   string           `json:"source_file"`
	TargetFile   string           `json:"target_file,omitempty"`
	SourceEntity string           `json:"source_entity"`
	TargetEntity string           `json:"target_entity"`
	Kind         RelationshipKind `json:"kind"`
	Confidence   float64          `json:"confidence"`
	Line         int              `json:"line,omitempty"`
	Meta         RelationshipMeta `json:"meta"`
}

// StrategyBreakdown counts how many files each extraction tier handled.
type StrategyBreakdown struct {
	Native  int `json:"native"`
	AI      int `json:"ai"`
	Generic int `json:"generic"`
}

// QualityMetrics summarizes how trustworthy the extracted graph is.
type QualityMetrics struct {
	// AverageConfidence averages entities that carry a confidence value.
	AverageConfidence float64 `json:"average_confidence"`
	// HighConfidenceEntities counts entities at or above the configured cutoff.
	HighConfidenceEntities int `json:"high_confidence_entities"`
	// CrossFileRelationships counts relationships whose source and target
	// files differ.
	CrossFileRelationships int `json:"cross_file_relationships"`
	// LanguageStrategies records which tier produced each language's results.
	LanguageStrategies map[string]Strategy `json:"language_strategies,omitempty"`
}

// ProcessingStats aggregates counts over a merged extraction run.
type ProcessingStats struct {
	TotalFiles         int               `json:"total_files"`
	TotalEntities      int               `json:"total_entities"`
	TotalRelationships int               `json:"total_relationships"`
	FilesByLanguage    map[string]int    `json:"files_by_language,omitempty"`
	Strategy           StrategyBreakdown `json:"strategy"`
	Quality            QualityMetrics    `json:"quality"`
}

// SemanticGraphData is the merged output of all extraction tiers.
// FileNodes maps a relative file path to the tree node id it produced.
type SemanticGraphData struct {
	Entities      []CodeEntity           `json:"entities"`
	Relationships []SemanticRelationship `json:"relationships"`
	FileNodes     map[string]string      `json:"file_nodes"`
	Stats         ProcessingStats        `json:"stats"`
}

// NodeType classifies a dependency tree node.
type NodeType string

const (
	NodeFile     NodeType = "file"
	NodeModule   NodeType = "module"
	NodePackage  NodeType = "package"
	NodeExternal NodeType = "external"
	NodeVirtual  NodeType = "virtual"
)

// NodeMeta is the mutable metadata block attached to a tree node during
// tree construction and semantic enrichment.
type NodeMeta struct {
	Imports         []string  `json:"imports,omitempty"`
	Exports         []string  `json:"exports,omitempty"`
	LastModified    time.Time `json:"last_modified,omitempty"`
	Maintainability float64   `json:"maintainability"`
	IsEntryPoint    bool      `json:"is_entry_point"`
	IsLeaf          bool      `json:"is_leaf"`
	Keywords        []string  `json:"keywords,omitempty"`
	Domain          string    `json:"domain,omitempty"`
	Role            string    `json:"role,omitempty"`
	SimilarNodes    []string  `json:"similar_nodes,omitempty"`
}

// TreeNode is a file-level node in the dependency tree. The tree is a DAG:
// a node may have multiple parents. Children and Parents hold node ids, not
// pointers; the owning DependencyTree is the arena that resolves them.
type TreeNode struct {
	ID         string   `json:"id"`
	Path       string   `json:"path"`
	Name       string   `json:"name"`
	Type       NodeType `json:"type"`
	Language   string   `json:"language,omitempty"`
	Size       int64    `json:"size"`
	Complexity int      `json:"complexity"`
	Children   []string `json:"children"`
	Parents    []string `json:"parents"`
	Meta       NodeMeta `json:"meta"`
}

// DependencyEdge is a file-level dependency between two tree nodes.
type DependencyEdge struct {
	From     string           `json:"from"`
	To       string           `json:"to"`
	Kind     RelationshipKind `json:"kind"`
	Weight   int              `json:"weight"`
	Line     int              `json:"line,omitempty"`
	External bool             `json:"external"`
}

// DependencyTree is the arena of tree nodes plus the edge set over them.
type DependencyTree struct {
	Nodes  map[string]*TreeNode `json:"nodes"`
	Edges  []DependencyEdge     `json:"edges"`
	RootID string               `json:"root_id"`
}

// Node returns the node with the given id, or nil.
func (t *DependencyTree) Node(id string) *TreeNode {
	if t == nil || t.Nodes == nil {
		return nil
	}
	return t.Nodes[id]
}

// Severity grades how disruptive a circular dependency is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// CircularDependency is a closed path of node ids in the dependency tree.
type CircularDependency struct {
	Path        []string `json:"path"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ClusterKind distinguishes the grouping pass that produced a cluster.
type ClusterKind string

const (
	ClusterDirectory ClusterKind = "directory"
	ClusterDomain    ClusterKind = "domain"
	ClusterRole      ClusterKind = "role"
)

// ModuleCluster groups related tree nodes with cohesion/coupling scores.
type ModuleCluster struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Kind        ClusterKind `json:"kind"`
	Members     []string    `json:"members"`
	Cohesion    float64     `json:"cohesion"`
	Coupling    float64     `json:"coupling"`
	Description string      `json:"description,omitempty"`
}

// ResultMetadata describes one analysis run.
type ResultMetadata struct {
	Version     string    `json:"version"`
	AnalysisID  string    `json:"analysis_id"`
	GeneratedAt time.Time `json:"generated_at"`
	RootDir     string    `json:"root_dir,omitempty"`
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
	DurationMS  int64     `json:"duration_ms"`
}

// IntegratedResult is the complete output of a graph construction run:
// the merged semantic data, the dependency tree, and the analyses over it.
type IntegratedResult struct {
	Metadata ResultMetadata       `json:"metadata"`
	Graph    SemanticGraphData    `json:"graph"`
	Tree     *DependencyTree      `json:"tree"`
	Cycles   []CircularDependency `json:"cycles"`
	Clusters []ModuleCluster      `json:"clusters"`
}
