// Package introspect parses a project's Go source and produces the metadata
// artifact the documentation pipeline consumes: handler comments, declared
// payload types, and model schemas.
package introspect

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/mod/modfile"

	"github.com/harborstack/apidocs/logger"
	"github.com/harborstack/apidocs/metadata"
)

const registryImportPath = "github.com/harborstack/apidocs/registry"

// Config controls what the analyzer extracts.
type Config struct {
	ProjectRoot            string
	DTOFileSuffixes        []string
	ControllerFileSuffixes []string
	IntrospectComments     bool
	ValidateTagConstraints bool
}

// Analyzer walks a project tree and extracts controller and model metadata.
type Analyzer struct {
	cfg       Config
	log       logger.Logger
	fileSet   *token.FileSet
	constants map[string]string
}

// New creates an analyzer for the given project root.
func New(cfg Config, log logger.Logger) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		log:       log,
		fileSet:   token.NewFileSet(),
		constants: make(map[string]string),
	}
}

// Run analyzes the project and returns the metadata artifact. Packages that
// fail to parse are skipped and reported through the returned error; the
// artifact still carries everything that could be analyzed, so callers may
// write it out before treating the error as fatal.
func (a *Analyzer) Run() (*metadata.Artifact, error) {
	artifact := &metadata.Artifact{
		GeneratedAt: time.Now().UTC(),
	}

	if err := a.readModuleInfo(artifact); err != nil {
		return nil, err
	}

	dirs, err := a.packageDirs()
	if err != nil {
		return nil, fmt.Errorf("failed to walk project: %w", err)
	}

	var parseErrs []error
	for _, dir := range dirs {
		pkgs, err := parser.ParseDir(a.fileSet, dir, func(info fs.FileInfo) bool {
			name := info.Name()
			return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
		}, parser.ParseComments)
		if err != nil {
			a.log.Debug().Err(err).Str("dir", dir).Msg("skipping unparseable package")
			parseErrs = append(parseErrs, fmt.Errorf("%s: %w", dir, err))
			continue
		}

		for _, pkg := range pkgs {
			a.analyzePackage(artifact, dir, pkg)
		}
	}

	if artifact.Controllers == nil {
		artifact.Controllers = []metadata.Controller{}
	}
	if artifact.Models == nil {
		artifact.Models = []metadata.Model{}
	}

	return artifact, errors.Join(parseErrs...)
}

// readModuleInfo fills in module path and toolchain version from go.mod.
func (a *Analyzer) readModuleInfo(artifact *metadata.Artifact) error {
	goModPath := filepath.Join(a.cfg.ProjectRoot, "go.mod")
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", goModPath, err)
	}

	f, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return fmt.Errorf("failed to parse go.mod: %w", err)
	}

	if f.Module == nil || f.Module.Mod.Path == "" {
		return fmt.Errorf("go.mod has no module declaration")
	}
	artifact.Module = f.Module.Mod.Path
	if f.Go != nil {
		artifact.GoVersion = f.Go.Version
	}
	return nil
}

// packageDirs returns every directory under the project root containing Go
// source, skipping vendor trees and hidden directories.
func (a *Analyzer) packageDirs() ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string

	err := filepath.WalkDir(a.cfg.ProjectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Keep walking past unreadable entries
		}
		if d.IsDir() && shouldSkipDir(d.Name()) && path != a.cfg.ProjectRoot {
			return filepath.SkipDir
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
		return nil
	})

	slices.Sort(dirs)
	return dirs, err
}

func shouldSkipDir(name string) bool {
	return name == "vendor" || name == "testdata" || name == "node_modules" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// analyzePackage extracts both controller and model metadata from one package.
func (a *Analyzer) analyzePackage(artifact *metadata.Artifact, dir string, pkg *ast.Package) {
	// Constants are package scoped; reset so values never leak across packages.
	a.constants = make(map[string]string)
	for _, file := range pkg.Files {
		a.extractConstants(file)
	}

	a.collectControllers(artifact, pkg)
	a.collectModels(artifact, dir, pkg)
}

// collectControllers finds module structs and their documented routes.
func (a *Analyzer) collectControllers(artifact *metadata.Artifact, pkg *ast.Package) {
	for path, file := range pkg.Files {
		if !a.matchesSuffix(path, a.cfg.ControllerFileSuffixes) {
			continue
		}

		aliases := importAliases(file, registryImportPath)
		for _, structName := range moduleStructs(file, pkg, aliases) {
			controller := metadata.Controller{
				Name:    a.moduleName(pkg, structName),
				Package: file.Name.Name,
				Methods: a.extractMethods(pkg, structName, aliases),
			}
			if len(controller.Methods) > 0 {
				artifact.Controllers = append(artifact.Controllers, controller)
			}
		}
	}

	slices.SortFunc(artifact.Controllers, func(x, y metadata.Controller) int {
		return strings.Compare(x.Name, y.Name)
	})
}

// moduleStructs returns struct names in file that satisfy the module contract:
// a Name() string method and a RegisterRoutes(*registry.Group) method.
func moduleStructs(file *ast.File, pkg *ast.Package, registryAliases map[string]struct{}) []string {
	var names []string

	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if _, ok := typeSpec.Type.(*ast.StructType); !ok {
				continue
			}
			if hasModuleMethods(pkg, typeSpec.Name.Name, registryAliases) {
				names = append(names, typeSpec.Name.Name)
			}
		}
	}

	return names
}

func hasModuleMethods(pkg *ast.Package, structName string, registryAliases map[string]struct{}) bool {
	var hasName, hasRegister bool

	for _, file := range pkg.Files {
		for _, decl := range file.Decls {
			funcDecl, ok := decl.(*ast.FuncDecl)
			if !ok || !isMethodOnStruct(funcDecl.Recv, structName) {
				continue
			}
			switch funcDecl.Name.Name {
			case "Name":
				hasName = isNameSignature(funcDecl)
			case "RegisterRoutes":
				hasRegister = isRegisterRoutesSignature(funcDecl, registryAliases)
			}
		}
	}

	return hasName && hasRegister
}

func isNameSignature(funcDecl *ast.FuncDecl) bool {
	if funcDecl.Type.Params != nil && len(funcDecl.Type.Params.List) > 0 {
		return false
	}
	if funcDecl.Type.Results == nil || len(funcDecl.Type.Results.List) != 1 {
		return false
	}
	ident, ok := funcDecl.Type.Results.List[0].Type.(*ast.Ident)
	return ok && ident.Name == "string"
}

func isRegisterRoutesSignature(funcDecl *ast.FuncDecl, registryAliases map[string]struct{}) bool {
	if funcDecl.Type.Params == nil || len(funcDecl.Type.Params.List) != 1 {
		return false
	}

	star, ok := funcDecl.Type.Params.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	sel, ok := star.X.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkgIdent, ok := sel.X.(*ast.Ident)
	if !ok || !aliasMatches(registryAliases, pkgIdent.Name) {
		return false
	}

	return sel.Sel.Name == "Group"
}

func isMethodOnStruct(recv *ast.FieldList, structName string) bool {
	if recv == nil || len(recv.List) == 0 {
		return false
	}

	switch t := recv.List[0].Type.(type) {
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name == structName
		}
	case *ast.Ident:
		return t.Name == structName
	}
	return false
}

// moduleName returns the string literal the module's Name method returns,
// falling back to the struct name.
func (a *Analyzer) moduleName(pkg *ast.Package, structName string) string {
	for _, file := range pkg.Files {
		for _, decl := range file.Decls {
			funcDecl, ok := decl.(*ast.FuncDecl)
			if !ok || funcDecl.Name.Name != "Name" || !isMethodOnStruct(funcDecl.Recv, structName) {
				continue
			}
			if funcDecl.Body == nil {
				continue
			}
			for _, stmt := range funcDecl.Body.List {
				ret, ok := stmt.(*ast.ReturnStmt)
				if !ok || len(ret.Results) != 1 {
					continue
				}
				if lit, ok := ret.Results[0].(*ast.BasicLit); ok && lit.Kind == token.STRING {
					return strings.Trim(lit.Value, `"`)
				}
			}
		}
	}
	return structName
}

// extractMethods walks RegisterRoutes bodies collecting the documented routes.
func (a *Analyzer) extractMethods(pkg *ast.Package, structName string, registryAliases map[string]struct{}) []metadata.Method {
	var methods []metadata.Method

	for _, file := range pkg.Files {
		for _, decl := range file.Decls {
			funcDecl, ok := decl.(*ast.FuncDecl)
			if !ok || funcDecl.Name.Name != "RegisterRoutes" || funcDecl.Body == nil {
				continue
			}
			if !isMethodOnStruct(funcDecl.Recv, structName) {
				continue
			}
			if !isRegisterRoutesSignature(funcDecl, registryAliases) {
				continue
			}

			groupParam := funcDecl.Type.Params.List[0]
			if len(groupParam.Names) == 0 {
				continue
			}

			walker := &routeWalker{
				analyzer:   a,
				pkg:        pkg,
				structName: structName,
				aliases:    registryAliases,
				prefixes:   map[string]string{groupParam.Names[0].Name: ""},
			}
			methods = append(methods, walker.walk(funcDecl.Body)...)
		}
	}

	slices.SortFunc(methods, func(x, y metadata.Method) int {
		return strings.Compare(x.Name, y.Name)
	})
	return methods
}

// routeWalker tracks nested group variables while extracting route calls.
type routeWalker struct {
	analyzer   *Analyzer
	pkg        *ast.Package
	structName string
	aliases    map[string]struct{}
	prefixes   map[string]string
}

var httpMethodNames = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

func (w *routeWalker) walk(body *ast.BlockStmt) []metadata.Method {
	var methods []metadata.Method

	for _, stmt := range body.List {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			w.trackGroup(s)
		case *ast.ExprStmt:
			if m := w.routeFromCall(s.X); m != nil {
				methods = append(methods, *m)
			}
		}
	}

	return methods
}

// trackGroup records `sub := g.Group("/v1")` so nested paths resolve fully.
func (w *routeWalker) trackGroup(assign *ast.AssignStmt) {
	if len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
		return
	}
	target, ok := assign.Lhs[0].(*ast.Ident)
	if !ok {
		return
	}
	call, ok := assign.Rhs[0].(*ast.CallExpr)
	if !ok || len(call.Args) < 1 {
		return
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Group" {
		return
	}
	recv, ok := sel.X.(*ast.Ident)
	if !ok {
		return
	}
	base, known := w.prefixes[recv.Name]
	if !known {
		return
	}
	w.prefixes[target.Name] = base + w.analyzer.pathFromArg(call.Args[0])
}

func (w *routeWalker) routeFromCall(expr ast.Expr) *metadata.Method {
	call, ok := expr.(*ast.CallExpr)
	if !ok || len(call.Args) < 2 {
		return nil
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || !slices.Contains(httpMethodNames, sel.Sel.Name) {
		return nil
	}
	recv, ok := sel.X.(*ast.Ident)
	if !ok {
		return nil
	}
	prefix, known := w.prefixes[recv.Name]
	if !known {
		return nil
	}

	method := &metadata.Method{
		HTTPMethod: sel.Sel.Name,
		Path:       prefix + w.analyzer.pathFromArg(call.Args[0]),
		Name:       handlerNameFromArg(call.Args[1]),
	}
	if method.Name == "" {
		return nil
	}

	if w.analyzer.cfg.IntrospectComments {
		method.Comment = w.analyzer.handlerComment(w.pkg, w.structName, method.Name)
	}

	for _, arg := range call.Args[2:] {
		w.applyRouteOption(method, arg)
	}

	return method
}

// applyRouteOption reads registry.WithResponse and friends off a route call.
func (w *routeWalker) applyRouteOption(method *metadata.Method, arg ast.Expr) {
	call, ok := arg.(*ast.CallExpr)
	if !ok || len(call.Args) == 0 {
		return
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return
	}
	pkgIdent, ok := sel.X.(*ast.Ident)
	if !ok || !aliasMatches(w.aliases, pkgIdent.Name) {
		return
	}

	if sel.Sel.Name == "WithResponse" {
		method.ReturnType = typeRefFromExpr(call.Args[0])
	}
}

// handlerComment returns the doc comment of the named handler method,
// joined into a single line.
func (a *Analyzer) handlerComment(pkg *ast.Package, structName, handlerName string) string {
	for _, file := range pkg.Files {
		for _, decl := range file.Decls {
			funcDecl, ok := decl.(*ast.FuncDecl)
			if !ok || funcDecl.Name.Name != handlerName {
				continue
			}
			if !isMethodOnStruct(funcDecl.Recv, structName) {
				continue
			}
			return joinCommentGroup(funcDecl.Doc)
		}
	}
	return ""
}

func joinCommentGroup(group *ast.CommentGroup) string {
	if group == nil {
		return ""
	}

	var lines []string
	for _, comment := range group.List {
		text := strings.TrimPrefix(comment.Text, "//")
		text = strings.TrimPrefix(text, "/*")
		text = strings.TrimSuffix(text, "*/")
		text = strings.TrimSpace(text)
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, " ")
}

// typeRefFromExpr converts the argument of WithResponse into a TypeRef.
// Composite literals carry the declared type: UserDto{}, []UserDto{},
// &UserDto{}, map[string]any{}.
func typeRefFromExpr(expr ast.Expr) *metadata.TypeRef {
	switch e := expr.(type) {
	case *ast.UnaryExpr:
		return typeRefFromExpr(e.X)
	case *ast.CompositeLit:
		return typeRefFromType(e.Type)
	}
	return nil
}

func typeRefFromType(expr ast.Expr) *metadata.TypeRef {
	switch t := expr.(type) {
	case *ast.Ident:
		if t.Name == "any" {
			return &metadata.TypeRef{Name: t.Name, IsGeneric: true}
		}
		return &metadata.TypeRef{Name: t.Name}
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			return &metadata.TypeRef{Name: t.Sel.Name, Package: pkg.Name}
		}
	case *ast.StarExpr:
		return typeRefFromType(t.X)
	case *ast.ArrayType:
		ref := typeRefFromType(t.Elt)
		if ref == nil {
			return nil
		}
		ref.IsArray = true
		return ref
	case *ast.MapType, *ast.InterfaceType:
		return &metadata.TypeRef{Name: "object", IsGeneric: true}
	}
	return nil
}

func handlerNameFromArg(arg ast.Expr) string {
	switch e := arg.(type) {
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.Ident:
		return e.Name
	}
	return ""
}

// pathFromArg resolves a path argument, following package constants.
func (a *Analyzer) pathFromArg(arg ast.Expr) string {
	switch expr := arg.(type) {
	case *ast.BasicLit:
		if expr.Kind == token.STRING {
			return strings.Trim(expr.Value, `"`)
		}
	case *ast.Ident:
		if value, exists := a.constants[expr.Name]; exists {
			return value
		}
		return expr.Name
	}
	return ""
}

// extractConstants records string constants for route path resolution.
func (a *Analyzer) extractConstants(file *ast.File) {
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.CONST {
			continue
		}
		for _, spec := range genDecl.Specs {
			valueSpec, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range valueSpec.Names {
				if i >= len(valueSpec.Values) {
					continue
				}
				if lit, ok := valueSpec.Values[i].(*ast.BasicLit); ok && lit.Kind == token.STRING {
					a.constants[name.Name] = strings.Trim(lit.Value, `"`)
				}
			}
		}
	}
}

func (a *Analyzer) matchesSuffix(path string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, suffix := range suffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// importAliases returns the aliases a file uses for the given import path.
func importAliases(file *ast.File, importPath string) map[string]struct{} {
	aliases := make(map[string]struct{})

	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		if path != importPath {
			continue
		}
		if imp.Name != nil && imp.Name.Name != "" && imp.Name.Name != "_" && imp.Name.Name != "." {
			aliases[imp.Name.Name] = struct{}{}
			continue
		}
		aliases[filepath.Base(importPath)] = struct{}{}
	}

	return aliases
}

func aliasMatches(aliases map[string]struct{}, name string) bool {
	if len(aliases) == 0 {
		return name == "registry"
	}
	_, ok := aliases[name]
	return ok
}
