package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"semgraph/internal/graph"
)

// javaParser parses Java files.
type javaParser struct {
	*treeSitterParser
}

func newJavaParser() *javaParser {
	return &javaParser{
		treeSitterParser: newTreeSitterParser(sitter.NewLanguage(java.Language()), "java"),
	}
}

func (p *javaParser) parse(file graph.FileRecord, source []byte) (*FileResult, error) {
	tree, err := p.parseTree(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{File: file.RelativePath, Language: "java"}
	}

	emitter := newFileEmitter(file, "java", endLine(root))

	p.extractStructure(root, source, emitter)
	p.extractCalls(root, source, emitter)

	return emitter.result, nil
}

func (p *javaParser) extractStructure(root *sitter.Node, source []byte, e *fileEmitter) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_declaration":
			// The scoped identifier is the fully qualified import target.
			if scoped := findChildByType(n, "scoped_identifier"); scoped != nil {
				e.addImport(nodeText(scoped, source), startLine(n))
			}
		case "class_declaration":
			p.extractClass(n, source, e)
			return false
		case "interface_declaration":
			p.extractInterface(n, source, e)
			return false
		case "enum_declaration":
			e.addEntity(fieldText(n, "name", source), graph.EntityType, startLine(n), endLine(n), "", javaModifiers(n, source))
		}
		return true
	})
}

func (p *javaParser) extractClass(n *sitter.Node, source []byte, e *fileEmitter) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}
	e.addEntity(name, graph.EntityClass, startLine(n), endLine(n), "", javaModifiers(n, source))

	if super := n.ChildByFieldName("superclass"); super != nil {
		// superclass wraps the type: `extends Base`.
		if t := findChildByType(super, "type_identifier"); t != nil {
			e.addRelationship(name, nodeText(t, source), graph.RelExtends, startLine(super), nativeEntityConfidence)
		}
	}
	if ifaces := n.ChildByFieldName("interfaces"); ifaces != nil {
		for _, t := range javaTypeNames(ifaces, source) {
			e.addRelationship(name, t, graph.RelImplements, startLine(ifaces), nativeEntityConfidence)
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		for _, m := range findChildrenByType(body, "method_declaration") {
			p.extractMethod(m, source, e, name)
		}
		for _, f := range findChildrenByType(body, "field_declaration") {
			if decl := findChildByType(f, "variable_declarator"); decl != nil {
				e.addEntity(fieldText(decl, "name", source), graph.EntityVariable, startLine(f), endLine(f), "", javaModifiers(f, source))
			}
		}
	}
}

func (p *javaParser) extractInterface(n *sitter.Node, source []byte, e *fileEmitter) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}
	e.addEntity(name, graph.EntityInterface, startLine(n), endLine(n), "", javaModifiers(n, source))

	// `interface A extends B, C` lands in the extends_interfaces child.
	if ext := findChildByType(n, "extends_interfaces"); ext != nil {
		for _, t := range javaTypeNames(ext, source) {
			e.addRelationship(name, t, graph.RelExtends, startLine(ext), nativeEntityConfidence)
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		for _, m := range findChildrenByType(body, "method_declaration") {
			p.extractMethod(m, source, e, name)
		}
	}
}

func (p *javaParser) extractMethod(n *sitter.Node, source []byte, e *fileEmitter, owner string) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}
	sig := fieldText(n, "type", source) + " " + name + fieldText(n, "parameters", source)
	e.addEntity(name, graph.EntityMethod, startLine(n), endLine(n), sig, javaModifiers(n, source))
	e.addRelationship(owner, name, graph.RelContains, startLine(n), nativeEntityConfidence)
}

func (p *javaParser) extractCalls(root *sitter.Node, source []byte, e *fileEmitter) {
	walkTree(root, func(n *sitter.Node) bool {
		if n.Kind() != "method_invocation" {
			return true
		}
		// Bare calls and this.method() resolve locally; obj.method() does not.
		obj := n.ChildByFieldName("object")
		if obj != nil && obj.Kind() != "this" {
			return true
		}
		callee := fieldText(n, "name", source)
		e.addCall(enclosingJavaMethod(n, source, e.module), callee, startLine(n))
		return true
	})
}

func enclosingJavaMethod(n *sitter.Node, source []byte, module string) string {
	for parent := n.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Kind() == "method_declaration" || parent.Kind() == "constructor_declaration" {
			if name := fieldText(parent, "name", source); name != "" {
				return name
			}
		}
	}
	return module
}

func javaModifiers(n *sitter.Node, source []byte) []string {
	mods := findChildByType(n, "modifiers")
	if mods == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(mods.ChildCount()); i++ {
		child := mods.Child(uint(i))
		switch child.Kind() {
		case "public", "private", "protected", "static", "final", "abstract", "synchronized":
			out = append(out, child.Kind())
		}
	}
	return out
}

func javaTypeNames(n *sitter.Node, source []byte) []string {
	var names []string
	walkTree(n, func(child *sitter.Node) bool {
		if child.Kind() == "type_identifier" {
			names = append(names, nodeText(child, source))
			return false
		}
		return true
	})
	return names
}
