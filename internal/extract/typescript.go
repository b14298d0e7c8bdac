package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"semgraph/internal/graph"
)

// typeScriptParser handles TypeScript and JavaScript. JSX dialects parse
// with the TSX grammar, which is a superset of the TypeScript one.
type typeScriptParser struct {
	ts  *treeSitterParser
	tsx *treeSitterParser
}

func newTypeScriptParser() *typeScriptParser {
	return &typeScriptParser{
		ts:  newTreeSitterParser(sitter.NewLanguage(typescript.LanguageTypescript()), "typescript"),
		tsx: newTreeSitterParser(sitter.NewLanguage(typescript.LanguageTSX()), "typescript"),
	}
}

func (p *typeScriptParser) grammarFor(relPath string) *treeSitterParser {
	lower := strings.ToLower(relPath)
	if strings.HasSuffix(lower, ".tsx") || strings.HasSuffix(lower, ".jsx") {
		return p.tsx
	}
	return p.ts
}

func (p *typeScriptParser) parse(file graph.FileRecord, source []byte) (*FileResult, error) {
	grammar := p.grammarFor(file.RelativePath)
	tree, err := grammar.parseTree(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{File: file.RelativePath, Language: "typescript"}
	}

	language := file.Language
	if language == "" {
		language = DetectLanguage(file.RelativePath)
	}
	emitter := newFileEmitter(file, language, endLine(root))

	p.extractStructure(root, source, emitter)
	p.extractCalls(root, source, emitter)

	return emitter.result, nil
}

func (p *typeScriptParser) extractStructure(root *sitter.Node, source []byte, e *fileEmitter) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			p.extractImport(n, source, e)
		case "export_statement":
			// Re-exports (`export { x } from './y'`) pull the target in
			// exactly like an import.
			if src := importSource(n, source); src != "" {
				e.addImport(src, startLine(n))
			}
		case "class_declaration", "abstract_class_declaration":
			p.extractClass(n, source, e)
			return false
		case "interface_declaration":
			p.extractInterface(n, source, e)
		case "type_alias_declaration":
			e.addEntity(fieldText(n, "name", source), graph.EntityType, startLine(n), endLine(n), "", p.modifiers(n, source))
		case "enum_declaration":
			e.addEntity(fieldText(n, "name", source), graph.EntityType, startLine(n), endLine(n), "", p.modifiers(n, source))
		case "function_declaration", "generator_function_declaration":
			p.extractFunction(n, source, e)
		case "lexical_declaration", "variable_declaration":
			if isTopLevelDeclaration(n) {
				p.extractVariables(n, source, e)
			}
		}
		return true
	})
}

// extractImport records the import specifier as a raw IMPORTS target.
func (p *typeScriptParser) extractImport(n *sitter.Node, source []byte, e *fileEmitter) {
	if src := importSource(n, source); src != "" {
		e.addImport(src, startLine(n))
	}
}

func importSource(n *sitter.Node, source []byte) string {
	return trimStringLiteral(fieldText(n, "source", source))
}

func trimStringLiteral(s string) string {
	return strings.Trim(s, "'\"`")
}

func (p *typeScriptParser) extractClass(n *sitter.Node, source []byte, e *fileEmitter) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}
	e.addEntity(name, graph.EntityClass, startLine(n), endLine(n), "", p.modifiers(n, source))

	if heritage := findChildByType(n, "class_heritage"); heritage != nil {
		if ext := findChildByType(heritage, "extends_clause"); ext != nil {
			if super := fieldText(ext, "value", source); super != "" {
				e.addRelationship(name, super, graph.RelExtends, startLine(ext), nativeEntityConfidence)
			}
		}
		if impl := findChildByType(heritage, "implements_clause"); impl != nil {
			for _, t := range typeIdentifiers(impl, source) {
				e.addRelationship(name, t, graph.RelImplements, startLine(impl), nativeEntityConfidence)
			}
		}
	}

	if body := findChildByType(n, "class_body"); body != nil {
		for _, m := range findChildrenByType(body, "method_definition") {
			p.extractMethod(m, source, e, name)
		}
	}
}

func (p *typeScriptParser) extractMethod(n *sitter.Node, source []byte, e *fileEmitter, className string) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}
	signature := buildTSSignature(n, source)
	e.addEntity(name, graph.EntityMethod, startLine(n), endLine(n), signature, p.modifiers(n, source))
	e.addRelationship(className, name, graph.RelContains, startLine(n), nativeEntityConfidence)
}

func (p *typeScriptParser) extractInterface(n *sitter.Node, source []byte, e *fileEmitter) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}
	e.addEntity(name, graph.EntityInterface, startLine(n), endLine(n), "", p.modifiers(n, source))

	// `interface A extends B` uses its own clause kind, distinct from the
	// class heritage one.
	if ext := findChildByType(n, "extends_type_clause"); ext != nil {
		for _, t := range typeIdentifiers(ext, source) {
			e.addRelationship(name, t, graph.RelExtends, startLine(ext), nativeEntityConfidence)
		}
	}
}

func (p *typeScriptParser) extractFunction(n *sitter.Node, source []byte, e *fileEmitter) {
	name := fieldText(n, "name", source)
	if name == "" {
		return
	}
	e.addEntity(name, graph.EntityFunction, startLine(n), endLine(n), buildTSSignature(n, source), p.modifiers(n, source))
}

// extractVariables walks const/let/var declarators. Arrow functions and
// function expressions assigned to a name are functions, not variables.
func (p *typeScriptParser) extractVariables(n *sitter.Node, source []byte, e *fileEmitter) {
	for _, decl := range findChildrenByType(n, "variable_declarator") {
		name := fieldText(decl, "name", source)
		if name == "" {
			continue
		}
		value := decl.ChildByFieldName("value")
		if value != nil && (value.Kind() == "arrow_function" || value.Kind() == "function_expression" || value.Kind() == "function") {
			signature := name + fieldText(value, "parameters", source)
			if ret := fieldText(value, "return_type", source); ret != "" {
				signature += ret
			}
			e.addEntity(name, graph.EntityFunction, startLine(decl), endLine(decl), signature, p.modifiers(n, source))
			continue
		}
		e.addEntity(name, graph.EntityVariable, startLine(decl), endLine(decl), "", p.modifiers(n, source))
	}
}

// extractCalls runs after structure extraction so forward references
// resolve against the full local symbol set.
func (p *typeScriptParser) extractCalls(root *sitter.Node, source []byte, e *fileEmitter) {
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "call_expression":
			callee := calleeName(n, source)
			e.addCall(enclosingCallable(n, source, e.module), callee, startLine(n))
		case "new_expression":
			if ctor := fieldText(n, "constructor", source); ctor != "" && e.isLocal(ctor) {
				e.addRelationship(enclosingCallable(n, source, e.module), ctor, graph.RelUses, startLine(n), nativeCallConfidence)
			}
		}
		return true
	})
}

// calleeName resolves the called identifier: plain calls use the
// identifier, `this.method()` calls use the property name.
func calleeName(call *sitter.Node, source []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "identifier":
		return nodeText(fn, source)
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		if obj != nil && obj.Kind() == "this" {
			return fieldText(fn, "property", source)
		}
	}
	return ""
}

// enclosingCallable climbs to the nearest named function, method, or
// declarator; falls back to the module entity for top-level calls.
func enclosingCallable(n *sitter.Node, source []byte, module string) string {
	for parent := n.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Kind() {
		case "function_declaration", "generator_function_declaration", "method_definition":
			if name := fieldText(parent, "name", source); name != "" {
				return name
			}
		case "variable_declarator":
			if name := fieldText(parent, "name", source); name != "" {
				return name
			}
		}
	}
	return module
}

// modifiers collects export status plus declaration-level keywords.
func (p *typeScriptParser) modifiers(n *sitter.Node, source []byte) []string {
	var mods []string
	if isExported(n) {
		mods = append(mods, "export")
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		switch child.Kind() {
		case "accessibility_modifier":
			mods = append(mods, nodeText(child, source))
		case "static", "async", "abstract", "readonly":
			mods = append(mods, child.Kind())
		}
	}
	return mods
}

func isExported(n *sitter.Node) bool {
	for parent := n.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Kind() {
		case "export_statement":
			return true
		case "statement_block", "class_body":
			return false
		}
	}
	return false
}

// isTopLevelDeclaration reports whether a declaration sits at module scope
// (optionally wrapped in an export statement).
func isTopLevelDeclaration(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return true
	}
	if parent.Kind() == "export_statement" {
		parent = parent.Parent()
	}
	return parent == nil || parent.Kind() == "program"
}

// typeIdentifiers collects identifier-like children of a heritage clause.
func typeIdentifiers(n *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		switch child.Kind() {
		case "type_identifier", "identifier":
			names = append(names, nodeText(child, source))
		case "generic_type":
			if name := fieldText(child, "name", source); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func buildTSSignature(n *sitter.Node, source []byte) string {
	name := fieldText(n, "name", source)
	sig := name
	if params := fieldText(n, "parameters", source); params != "" {
		sig += params
	} else {
		sig += "()"
	}
	if ret := fieldText(n, "return_type", source); ret != "" {
		sig += ret
	}
	return sig
}
