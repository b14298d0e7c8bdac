package extract

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"semgraph/internal/graph"
)

// goParser parses Go files with the standard library AST. Tree-sitter
// grammars cover the other native languages; Go ships its own parser and
// gives exact positions and signatures for free.
type goParser struct{}

func newGoParser() *goParser { return &goParser{} }

func (p *goParser) parse(file graph.FileRecord, source []byte) (*FileResult, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, file.RelativePath, source, parser.ParseComments)
	if err != nil {
		return nil, &ParseError{File: file.RelativePath, Language: "go", Detail: err.Error()}
	}

	emitter := newFileEmitter(file, "go", countLines(source))

	for _, imp := range node.Imports {
		emitter.addImport(strings.Trim(imp.Path.Value, `"`), fset.Position(imp.Pos()).Line)
	}

	ast.Inspect(node, func(n ast.Node) bool {
		switch decl := n.(type) {
		case *ast.GenDecl:
			p.extractGenDecl(decl, fset, emitter)
		case *ast.FuncDecl:
			p.extractFunc(decl, fset, emitter)
			return false
		}
		return true
	})

	// Calls resolve after all declarations are registered so forward
	// references within the file still count.
	ast.Inspect(node, func(n ast.Node) bool {
		if decl, ok := n.(*ast.FuncDecl); ok && decl.Body != nil {
			p.extractCalls(decl, fset, emitter)
			return false
		}
		return true
	})

	return emitter.result, nil
}

func (p *goParser) extractGenDecl(decl *ast.GenDecl, fset *token.FileSet, e *fileEmitter) {
	switch decl.Tok {
	case token.TYPE:
		for _, spec := range decl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			name := typeSpec.Name.Name
			start := fset.Position(typeSpec.Pos()).Line
			end := fset.Position(typeSpec.End()).Line
			switch typeSpec.Type.(type) {
			case *ast.InterfaceType:
				e.addEntity(name, graph.EntityInterface, start, end, "", goModifiers(name))
			case *ast.StructType:
				e.addEntity(name, graph.EntityClass, start, end, "", goModifiers(name))
			default:
				e.addEntity(name, graph.EntityType, start, end, "", goModifiers(name))
			}
		}
	case token.CONST, token.VAR:
		for _, spec := range decl.Specs {
			valueSpec, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, ident := range valueSpec.Names {
				if ident.Name == "_" {
					continue
				}
				mods := goModifiers(ident.Name)
				if decl.Tok == token.CONST {
					mods = append(mods, "constant")
				}
				e.addEntity(ident.Name, graph.EntityVariable,
					fset.Position(ident.Pos()).Line, fset.Position(valueSpec.End()).Line, "", mods)
			}
		}
	}
}

func (p *goParser) extractFunc(decl *ast.FuncDecl, fset *token.FileSet, e *fileEmitter) {
	name := decl.Name.Name
	start := fset.Position(decl.Pos()).Line
	end := fset.Position(decl.End()).Line

	kind := graph.EntityFunction
	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		kind = graph.EntityMethod
	}
	e.addEntity(name, kind, start, end, goSignature(decl), goModifiers(name))

	if kind == graph.EntityMethod {
		if recv := receiverTypeName(decl.Recv.List[0].Type); recv != "" {
			e.addRelationship(recv, name, graph.RelContains, start, nativeEntityConfidence)
		}
	}
}

func (p *goParser) extractCalls(decl *ast.FuncDecl, fset *token.FileSet, e *fileEmitter) {
	caller := decl.Name.Name
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if ident, ok := call.Fun.(*ast.Ident); ok {
			e.addCall(caller, ident.Name, fset.Position(call.Pos()).Line)
		}
		return true
	})
}

// goSignature renders the declaration head without the body.
func goSignature(decl *ast.FuncDecl) string {
	var sb strings.Builder
	sb.WriteString("func ")
	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		sb.WriteString("(" + receiverTypeName(decl.Recv.List[0].Type) + ") ")
	}
	sb.WriteString(decl.Name.Name)
	sb.WriteString(fieldListString(decl.Type.Params, true))
	if decl.Type.Results != nil {
		results := fieldListString(decl.Type.Results, len(decl.Type.Results.List) > 1)
		sb.WriteString(" " + results)
	}
	return sb.String()
}

func fieldListString(fl *ast.FieldList, parens bool) string {
	if fl == nil {
		if parens {
			return "()"
		}
		return ""
	}
	var parts []string
	for _, field := range fl.List {
		t := typeString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, t)
			continue
		}
		for _, name := range field.Names {
			parts = append(parts, name.Name+" "+t)
		}
	}
	joined := strings.Join(parts, ", ")
	if parens {
		return "(" + joined + ")"
	}
	return joined
}

func typeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeString(t.X)
	case *ast.SelectorExpr:
		return typeString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		return "[]" + typeString(t.Elt)
	case *ast.MapType:
		return "map[" + typeString(t.Key) + "]" + typeString(t.Value)
	case *ast.Ellipsis:
		return "..." + typeString(t.Elt)
	case *ast.FuncType:
		return "func"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.ChanType:
		return "chan " + typeString(t.Value)
	default:
		return ""
	}
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	}
	return ""
}

// goModifiers records Go's capitalization-based visibility.
func goModifiers(name string) []string {
	if name == "" {
		return nil
	}
	if name[0] >= 'A' && name[0] <= 'Z' {
		return []string{"exported"}
	}
	return nil
}
