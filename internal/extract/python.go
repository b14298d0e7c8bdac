package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"semgraph/internal/graph"
)

// pythonParser parses Python files.
type pythonParser struct {
	*treeSitterParser
}

func newPythonParser() *pythonParser {
	return &pythonParser{
		treeSitterParser: newTreeSitterParser(sitter.NewLanguage(python.Language()), "python"),
	}
}

func (p *pythonParser) parse(file graph.FileRecord, source []byte) (*FileResult, error) {
	tree, err := p.parseTree(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{File: file.RelativePath, Language: "python"}
	}

	emitter := newFileEmitter(file, "python", endLine(root))

	p.extractStructure(root, source, emitter)
	p.extractCalls(root, source, emitter)

	return emitter.result, nil
}

func (p *pythonParser) extractStructure(root *sitter.Node, source []byte, e *fileEmitter) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement", "import_from_statement":
			p.extractImport(n, source, e)
		case "class_definition":
			p.extractClass(n, source, e)
			return false
		case "function_definition":
			if isPyTopLevel(n) {
				p.extractFunction(n, source, e, "")
			}
		case "assignment":
			if isPyTopLevel(n) {
				p.extractAssignment(n, source, e)
			}
		}
		return true
	})
}

// extractImport records the dotted module path as a raw IMPORTS target.
// `from x import y` keeps only the module x; the imported names resolve
// during cross-file resolution if x maps to a local file.
func (p *pythonParser) extractImport(n *sitter.Node, source []byte, e *fileEmitter) {
	if n.Kind() == "import_from_statement" {
		if mod := fieldText(n, "module_name", source); mod != "" {
			e.addImport(mod, startLine(n))
		}
		return
	}
	for _, name := range findChildrenByType(n, "dotted_name") {
		e.addImport(nodeText(name, source), startLine(n))
	}
	for _, alias := range findChildrenByType(n, "aliased_import") {
		if name := fieldText(alias, "name", source); name != "" {
			e.addImport(name, startLine(n))
		}
	}
}

func (p *pythonParser) extractClass(n *sitter.Node, source []byte, e *fileEmitter) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}
	e.addEntity(name, graph.EntityClass, startLine(n), endLine(n), "", nil)

	// Superclasses sit in the argument list: `class A(B, C):`.
	if supers := findChildByType(n, "argument_list"); supers != nil {
		for i := 0; i < int(supers.ChildCount()); i++ {
			child := supers.Child(uint(i))
			if child.Kind() == "identifier" || child.Kind() == "attribute" {
				e.addRelationship(name, nodeText(child, source), graph.RelExtends, startLine(n), nativeEntityConfidence)
			}
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(uint(i))
			if child.Kind() == "function_definition" {
				p.extractFunction(child, source, e, name)
			} else if child.Kind() == "decorated_definition" {
				if def := findChildByType(child, "function_definition"); def != nil {
					p.extractFunction(def, source, e, name)
				}
			}
		}
	}
}

func (p *pythonParser) extractFunction(n *sitter.Node, source []byte, e *fileEmitter, className string) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}

	kind := graph.EntityFunction
	if className != "" {
		kind = graph.EntityMethod
	}
	e.addEntity(name, kind, startLine(n), endLine(n), buildPySignature(n, source, className), pyModifiers(n, name))
	if className != "" {
		e.addRelationship(className, name, graph.RelContains, startLine(n), nativeEntityConfidence)
	}
}

func buildPySignature(n *sitter.Node, source []byte, className string) string {
	sig := ""
	if className != "" {
		sig = className + "."
	}
	sig += fieldText(n, "name", source)
	if params := fieldText(n, "parameters", source); params != "" {
		sig += params
	} else {
		sig += "()"
	}
	if ret := fieldText(n, "return_type", source); ret != "" {
		sig += " -> " + ret
	}
	return sig
}

func pyModifiers(n *sitter.Node, name string) []string {
	var mods []string
	if parent := n.Parent(); parent != nil && parent.Kind() == "decorated_definition" {
		mods = append(mods, "decorated")
	}
	if strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__") {
		mods = append(mods, "private")
	}
	if findChildByType(n, "async") != nil {
		mods = append(mods, "async")
	}
	return mods
}

// extractAssignment records module-level assignments. ALL_CAPS names follow
// the Python constant convention and keep a "constant" modifier.
func (p *pythonParser) extractAssignment(n *sitter.Node, source []byte, e *fileEmitter) {
	left := n.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	name := nodeText(left, source)
	var mods []string
	if isPyConstantName(name) {
		mods = []string{"constant"}
	}
	e.addEntity(name, graph.EntityVariable, startLine(n), endLine(n), "", mods)
}

func (p *pythonParser) extractCalls(root *sitter.Node, source []byte, e *fileEmitter) {
	walkTree(root, func(n *sitter.Node) bool {
		if n.Kind() != "call" {
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
		case "attribute":
			// self.method() resolves against the local symbol set.
			if obj := fn.ChildByFieldName("object"); obj != nil && nodeText(obj, source) == "self" {
				callee = fieldText(fn, "attribute", source)
			}
		}
		e.addCall(enclosingPyCallable(n, source, e.module), callee, startLine(n))
		return true
	})
}

func enclosingPyCallable(n *sitter.Node, source []byte, module string) string {
	for parent := n.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Kind() == "function_definition" {
			if name := fieldText(parent, "name", source); name != "" {
				return name
			}
		}
	}
	return module
}

func isPyTopLevel(n *sitter.Node) bool {
	for parent := n.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Kind() {
		case "class_definition", "function_definition":
			return false
		case "module":
			return true
		}
	}
	return true
}

// isPyConstantName reports the ALL_CAPS constant convention.
func isPyConstantName(name string) bool {
	if name == "" {
		return false
	}
	for _, ch := range name {
		if ch >= 'a' && ch <= 'z' {
			return false
		}
	}
	return true
}
