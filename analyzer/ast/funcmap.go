package ast

import (
	goast "go/ast"
	"go/token"
	"go/types"
	"path"
	"strings"
)

// extractFunction extracts a helper registration from an expr.Function call.
//
// Example: expr.Function("upper", upper, new(func(string) string))
// Extracts: name="upper", definition site of upper, declared signature
func extractFunction(
	call *goast.CallExpr,
	info *types.Info,
	config AnalysisConfig,
	filesMap map[string]*goast.File,
	fset *token.FileSet,
) *FuncInfo {
	if !isFunctionOption(call, info, config) || len(call.Args) < 2 {
		return nil
	}

	name, _, ok := extractString(call.Args[0])
	if !ok || name == "" {
		return nil
	}

	fn := call.Args[1]
	fInfo := FuncInfo{Name: name}
	fInfo.DefFile, fInfo.DefLine, fInfo.DefCol = resolveFuncDefLocation(fn, info, fset)
	fInfo.Doc = resolveFuncDoc(fn, info, filesMap)

	// Declared signatures follow the function: new(func(string) string)
	if info != nil && len(call.Args) > 2 {
		if tv, ok := info.Types[call.Args[2]]; ok && tv.Type != nil {
			fInfo.Params, fInfo.Returns = extractSignatureFromType(tv.Type)
		}
	}

	return &fInfo
}

// isFunctionOption checks whether call invokes the configured expr option.
// Without type information it falls back to the selector's package name.
func isFunctionOption(call *goast.CallExpr, info *types.Info, config AnalysisConfig) bool {
	sel, ok := call.Fun.(*goast.SelectorExpr)
	if !ok || sel.Sel.Name != config.FunctionOptionName {
		return false
	}

	if info != nil {
		if obj := info.ObjectOf(sel.Sel); obj != nil && obj.Pkg() != nil {
			return obj.Pkg().Path() == config.FunctionOptionPackage
		}
	}

	x, ok := sel.X.(*goast.Ident)
	return ok && x.Name == path.Base(config.FunctionOptionPackage)
}

// resolveFuncDefLocation finds the definition location of a function value.
// For named functions, resolves to declaration site.
// For literals, returns literal position.
func resolveFuncDefLocation(expr goast.Expr, info *types.Info, fset *token.FileSet) (file string, line, col int) {
	if fset == nil {
		return
	}

	var id *goast.Ident
	switch e := expr.(type) {
	case *goast.Ident:
		id = e
	case *goast.SelectorExpr:
		id = e.Sel
	}
	if id != nil && info != nil {
		if obj := info.ObjectOf(id); obj != nil && obj.Pos().IsValid() {
			pos := fset.Position(obj.Pos())
			return pos.Filename, pos.Line, pos.Column
		}
	}

	// Fallback: expression position
	pos := fset.Position(expr.Pos())
	return pos.Filename, pos.Line, pos.Column
}

// resolveFuncDoc attempts to extract documentation for a function value.
// Only works for named functions, not anonymous literals.
func resolveFuncDoc(expr goast.Expr, info *types.Info, filesMap map[string]*goast.File) string {
	if info == nil {
		return ""
	}

	var obj types.Object
	switch e := expr.(type) {
	case *goast.Ident:
		obj = info.ObjectOf(e)
	case *goast.SelectorExpr:
		obj = info.ObjectOf(e.Sel)
	default:
		return ""
	}

	if obj == nil || !obj.Pos().IsValid() {
		return ""
	}

	// Search for function declaration in AST
	for _, file := range filesMap {
		for _, decl := range file.Decls {
			fd, ok := decl.(*goast.FuncDecl)
			if !ok || info.Defs[fd.Name] != obj {
				continue
			}
			if fd.Doc != nil {
				return strings.TrimSpace(fd.Doc.Text())
			}
			return ""
		}
	}

	return ""
}

// extractSignatureFromType extracts signature info from a type.
// Handles both direct signatures and pointer-to-signature.
func extractSignatureFromType(t types.Type) (params, returns []ParamInfo) {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	sig, ok := t.Underlying().(*types.Signature)
	if !ok {
		return nil, nil
	}

	params = make([]ParamInfo, sig.Params().Len())
	for i := range sig.Params().Len() {
		p := sig.Params().At(i)
		params[i] = ParamInfo{Name: p.Name(), TypeStr: normalizeTypeStr(p.Type())}
	}

	returns = make([]ParamInfo, sig.Results().Len())
	for i := range sig.Results().Len() {
		r := sig.Results().At(i)
		returns[i] = ParamInfo{Name: r.Name(), TypeStr: normalizeTypeStr(r.Type())}
	}

	return params, returns
}

// normalizeTypeStr makes type strings more readable by removing package paths.
// Example: "github.com/user/pkg.Page[github.com/user/pkg.User]" → "Page[User]"
func normalizeTypeStr(t types.Type) string {
	if t == nil {
		return ""
	}
	return types.TypeString(t, func(*types.Package) string {
		return ""
	})
}
