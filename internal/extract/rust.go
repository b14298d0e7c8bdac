package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"semgraph/internal/graph"
)

// rustParser parses Rust files.
type rustParser struct {
	*treeSitterParser
}

func newRustParser() *rustParser {
	return &rustParser{
		treeSitterParser: newTreeSitterParser(sitter.NewLanguage(rust.Language()), "rust"),
	}
}

func (p *rustParser) parse(file graph.FileRecord, source []byte) (*FileResult, error) {
	tree, err := p.parseTree(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{File: file.RelativePath, Language: "rust"}
	}

	emitter := newFileEmitter(file, "rust", endLine(root))

	p.extractStructure(root, source, emitter)
	p.extractCalls(root, source, emitter)

	return emitter.result, nil
}

func (p *rustParser) extractStructure(root *sitter.Node, source []byte, e *fileEmitter) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "use_declaration":
			p.extractUse(n, source, e)
		case "struct_item":
			e.addEntity(fieldText(n, "name", source), graph.EntityClass, startLine(n), endLine(n), "", rustModifiers(n))
		case "enum_item":
			e.addEntity(fieldText(n, "name", source), graph.EntityType, startLine(n), endLine(n), "", rustModifiers(n))
		case "trait_item":
			e.addEntity(fieldText(n, "name", source), graph.EntityInterface, startLine(n), endLine(n), "", rustModifiers(n))
		case "function_item":
			p.extractFunction(n, source, e, "")
			return false
		case "impl_item":
			p.extractImpl(n, source, e)
			return false
		case "const_item", "static_item":
			e.addEntity(fieldText(n, "name", source), graph.EntityVariable, startLine(n), endLine(n), "", append(rustModifiers(n), "constant"))
		case "type_item":
			e.addEntity(fieldText(n, "name", source), graph.EntityType, startLine(n), endLine(n), "", rustModifiers(n))
		}
		return true
	})
}

// extractUse records the use path root. `use crate::foo::bar` keeps the
// full path; grouped imports record each leaf path.
func (p *rustParser) extractUse(n *sitter.Node, source []byte, e *fileEmitter) {
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(uint(i))
			if child.Kind() == "scoped_identifier" || child.Kind() == "use_wildcard" || child.Kind() == "identifier" || child.Kind() == "scoped_use_list" {
				arg = child
				break
			}
		}
	}
	if arg == nil {
		return
	}
	text := nodeText(arg, source)
	// Trim grouped or aliased tails to the stable path prefix.
	if i := strings.IndexAny(text, "{ "); i > 0 {
		text = strings.TrimSuffix(strings.TrimSpace(text[:i]), "::")
	}
	if text != "" {
		e.addImport(text, startLine(n))
	}
}

func (p *rustParser) extractFunction(n *sitter.Node, source []byte, e *fileEmitter, owner string) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}
	sig := "fn " + name + fieldText(n, "parameters", source)
	if ret := fieldText(n, "return_type", source); ret != "" {
		sig += " -> " + ret
	}
	kind := graph.EntityFunction
	if owner != "" {
		kind = graph.EntityMethod
	}
	e.addEntity(name, kind, startLine(n), endLine(n), sig, rustModifiers(n))
	if owner != "" {
		e.addRelationship(owner, name, graph.RelContains, startLine(n), nativeEntityConfidence)
	}
}

// extractImpl walks an impl block: `impl Type` methods attach to the type,
// `impl Trait for Type` additionally records IMPLEMENTS.
func (p *rustParser) extractImpl(n *sitter.Node, source []byte, e *fileEmitter) {
	typeName := fieldText(n, "type", source)
	if traitName := fieldText(n, "trait", source); traitName != "" && typeName != "" {
		e.addRelationship(typeName, traitName, graph.RelImplements, startLine(n), nativeEntityConfidence)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for _, fn := range findChildrenByType(body, "function_item") {
			p.extractFunction(fn, source, e, typeName)
		}
	}
}

func (p *rustParser) extractCalls(root *sitter.Node, source []byte, e *fileEmitter) {
	walkTree(root, func(n *sitter.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return true
		}
		var callee string
		switch fn.Kind() {
		case "identifier":
			callee = nodeText(fn, source)
		case "field_expression":
			if val := fn.ChildByFieldName("value"); val != nil && nodeText(val, source) == "self" {
				callee = fieldText(fn, "field", source)
			}
		}
		e.addCall(enclosingRustFn(n, source, e.module), callee, startLine(n))
		return true
	})
}

func enclosingRustFn(n *sitter.Node, source []byte, module string) string {
	for parent := n.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Kind() == "function_item" {
			if name := fieldText(parent, "name", source); name != "" {
				return name
			}
		}
	}
	return module
}

func rustModifiers(n *sitter.Node) []string {
	if findChildByType(n, "visibility_modifier") != nil {
		return []string{"pub"}
	}
	return nil
}
