package metadata

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// javaLangTypes are resolved without an import.
var javaLangTypes = map[string]bool{
	"Object": true, "String": true, "Class": true, "Enum": true, "Record": true,
	"Integer": true, "Long": true, "Short": true, "Byte": true, "Character": true,
	"Boolean": true, "Double": true, "Float": true, "Number": true, "Void": true,
	"Math": true, "System": true, "Thread": true, "Runnable": true, "Iterable": true,
	"Comparable": true, "CharSequence": true, "Cloneable": true, "AutoCloseable": true,
	"StringBuilder": true, "Throwable": true, "Exception": true, "Error": true,
	"RuntimeException": true, "IllegalArgumentException": true, "IllegalStateException": true,
	"Override": true, "Deprecated": true, "SuppressWarnings": true,
	"FunctionalInterface": true, "SafeVarargs": true,
}

var primitiveTypes = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}

// JavaSourceExtractor parses .java files with tree-sitter.
//
// Names are resolved from the file alone: types declared in the file,
// single-type imports, java.lang, and otherwise the file's own package.
// Type variables erase to their first bound or java.lang.Object.
type JavaSourceExtractor struct {
	parsers sync.Pool
}

// NewJavaSourceExtractor creates a Java source extractor.
func NewJavaSourceExtractor() *JavaSourceExtractor {
	x := &JavaSourceExtractor{}
	x.parsers.New = func() any {
		p := sitter.NewParser()
		p.SetLanguage(java.GetLanguage())
		return p
	}
	return x
}

// AcceptsInput implements Extractor.
func (x *JavaSourceExtractor) AcceptsInput(path string) bool {
	return hasSuffixFold(path, ".java") && !strings.HasSuffix(path, "module-info.java")
}

// Extract implements Extractor.
func (x *JavaSourceExtractor) Extract(entry vfs.Entry) (*Unit, error) {
	data, err := readEntry(entry)
	if err != nil {
		return nil, err
	}
	types, err := x.Parse(context.Background(), data)
	if err != nil {
		return nil, errors.New(errors.ErrCodeExtractFailed, "parse java source "+entry.RelativePath(), err)
	}
	return &Unit{Path: entry.RelativePath(), Types: types}, nil
}

// Parse extracts every top-level and member type declared in source.
func (x *JavaSourceExtractor) Parse(ctx context.Context, source []byte) ([]*Type, error) {
	p := x.parsers.Get().(*sitter.Parser)
	defer x.parsers.Put(p)

	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("failed to parse source: nil tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	f := &javaFile{src: source, imports: map[string]string{}, local: map[string]string{}}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_declaration":
			if id := firstNamed(n, "scoped_identifier", "identifier"); id != nil {
				f.pkg = f.text(id)
			}
		case "import_declaration":
			f.addImport(n)
		}
	}

	// Collect declared names first so members can reference later types.
	for i := 0; i < int(root.NamedChildCount()); i++ {
		f.declare(root.NamedChild(i), "")
	}

	var out []*Type
	for i := 0; i < int(root.NamedChildCount()); i++ {
		out = append(out, f.typeDecl(root.NamedChild(i), "", nil)...)
	}
	return out, nil
}

type javaFile struct {
	src     []byte
	pkg     string
	imports map[string]string // simple name -> qualified name
	local   map[string]string // simple name -> binary name
}

func (f *javaFile) text(n *sitter.Node) string {
	return n.Content(f.src)
}

func (f *javaFile) addImport(n *sitter.Node) {
	raw := strings.TrimSpace(f.text(n))
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "import"), ";")
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "static ") || strings.HasSuffix(raw, "*") {
		return
	}
	raw = strings.Join(strings.Fields(raw), "")
	if i := strings.LastIndexByte(raw, '.'); i > 0 {
		f.imports[raw[i+1:]] = raw
	}
}

func isTypeDecl(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"annotation_type_declaration", "record_declaration":
		return true
	}
	return false
}

func (f *javaFile) binaryName(outer, simple string) string {
	if outer != "" {
		return outer + "$" + simple
	}
	if f.pkg == "" {
		return simple
	}
	return f.pkg + "." + simple
}

// declare records n and its member types in f.local.
func (f *javaFile) declare(n *sitter.Node, outer string) {
	if !isTypeDecl(n.Type()) {
		return
	}
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := f.binaryName(outer, f.text(nameNode))
	simple := f.text(nameNode)
	if _, taken := f.local[simple]; !taken {
		f.local[simple] = name
	}
	if body := n.ChildByFieldName("body"); body != nil {
		forEachMember(body, func(m *sitter.Node) { f.declare(m, name) })
	}
}

// forEachMember visits the declarations of a type body, including those
// inside an enum body's declaration section.
func forEachMember(body *sitter.Node, fn func(*sitter.Node)) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		if m.Type() == "enum_body_declarations" {
			forEachMember(m, fn)
			continue
		}
		fn(m)
	}
}

// typeDecl extracts n (if it is a type declaration) and its member types.
// typeVars carries the erasures of enclosing type parameters.
func (f *javaFile) typeDecl(n *sitter.Node, outer string, typeVars map[string]string) []*Type {
	if !isTypeDecl(n.Type()) {
		return nil
	}
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	t := &Type{Name: f.binaryName(outer, f.text(nameNode))}
	vars := f.typeParams(n, typeVars)
	t.Tags = f.tags(n, vars)

	switch n.Type() {
	case "class_declaration":
		t.Kind = KindClass
		t.Superclass = ObjectType
		if sc := childOfType(n, "superclass"); sc != nil {
			if tn := firstTypeNode(sc); tn != nil {
				t.Superclass = f.resolve(f.text(tn), vars)
			}
		}
		t.Interfaces = f.typeList(childOfType(n, "super_interfaces"), vars)
	case "interface_declaration":
		t.Kind = KindInterface
		t.Superclass = ObjectType
		t.Interfaces = f.typeList(childOfType(n, "extends_interfaces"), vars)
	case "enum_declaration":
		t.Kind = KindEnum
		t.Superclass = "java.lang.Enum"
		t.Interfaces = f.typeList(childOfType(n, "super_interfaces"), vars)
	case "annotation_type_declaration":
		t.Kind = KindAnnotation
		t.Superclass = ObjectType
		t.Interfaces = []string{"java.lang.annotation.Annotation"}
	case "record_declaration":
		t.Kind = KindRecord
		t.Superclass = "java.lang.Record"
		t.Interfaces = f.typeList(childOfType(n, "super_interfaces"), vars)
		if params := n.ChildByFieldName("parameters"); params != nil {
			ctor := Method{Name: ConstructorName, Constructor: true, Params: f.params(params, vars)}
			for _, p := range ctor.Params {
				t.Fields = append(t.Fields, Field{Name: p.Name, Type: p.Type, Tags: p.Tags})
			}
			t.Methods = append(t.Methods, ctor)
		}
	}

	out := []*Type{t}
	body := n.ChildByFieldName("body")
	if body == nil {
		return out
	}

	forEachMember(body, func(m *sitter.Node) {
		switch m.Type() {
		case "field_declaration", "constant_declaration":
			typ := f.typeOf(m.ChildByFieldName("type"), vars)
			tags := f.tags(m, vars)
			for i := 0; i < int(m.NamedChildCount()); i++ {
				d := m.NamedChild(i)
				if d.Type() != "variable_declarator" {
					continue
				}
				if nn := d.ChildByFieldName("name"); nn != nil {
					t.Fields = append(t.Fields, Field{Name: f.text(nn), Type: typ, Tags: tags})
				}
			}
		case "enum_constant":
			if nn := m.ChildByFieldName("name"); nn != nil {
				t.Fields = append(t.Fields, Field{Name: f.text(nn), Type: t.Name, Tags: f.tags(m, vars)})
			}
		case "method_declaration", "annotation_type_element_declaration":
			mvars := f.typeParams(m, vars)
			nn := m.ChildByFieldName("name")
			if nn == nil {
				return
			}
			meth := Method{
				Name:   f.text(nn),
				Return: f.typeOf(m.ChildByFieldName("type"), mvars),
				Tags:   f.tags(m, mvars),
			}
			if dims := m.ChildByFieldName("dimensions"); dims != nil {
				meth.Return += strings.Repeat("[]", strings.Count(f.text(dims), "["))
			}
			if params := m.ChildByFieldName("parameters"); params != nil {
				meth.Params = f.params(params, mvars)
			}
			t.Methods = append(t.Methods, meth)
		case "constructor_declaration", "compact_constructor_declaration":
			mvars := f.typeParams(m, vars)
			meth := Method{Name: ConstructorName, Constructor: true, Tags: f.tags(m, mvars)}
			if params := m.ChildByFieldName("parameters"); params != nil {
				meth.Params = f.params(params, mvars)
			} else if m.Type() == "compact_constructor_declaration" && len(t.Methods) > 0 && t.Methods[0].Constructor {
				// A compact constructor replaces the canonical one.
				t.Methods[0].Tags = append(t.Methods[0].Tags, meth.Tags...)
				return
			}
			t.Methods = append(t.Methods, meth)
		default:
			if isTypeDecl(m.Type()) {
				out = append(out, f.typeDecl(m, t.Name, vars)...)
			}
		}
	})

	return out
}

// typeParams returns outer extended with the erasures of n's type parameters.
func (f *javaFile) typeParams(n *sitter.Node, outer map[string]string) map[string]string {
	tp := n.ChildByFieldName("type_parameters")
	if tp == nil {
		tp = childOfType(n, "type_parameters")
	}
	if tp == nil {
		return outer
	}

	vars := make(map[string]string, len(outer)+1)
	for k, v := range outer {
		vars[k] = v
	}
	for i := 0; i < int(tp.NamedChildCount()); i++ {
		p := tp.NamedChild(i)
		if p.Type() != "type_parameter" {
			continue
		}
		id := firstNamed(p, "type_identifier", "identifier")
		if id == nil {
			continue
		}
		erasure := ObjectType
		if bound := childOfType(p, "type_bound"); bound != nil {
			if tn := firstTypeNode(bound); tn != nil {
				erasure = f.resolve(f.text(tn), vars)
			}
		}
		vars[f.text(id)] = erasure
	}
	return vars
}

func (f *javaFile) params(list *sitter.Node, vars map[string]string) []Param {
	var out []Param
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "formal_parameter":
			param := Param{Type: f.typeOf(p.ChildByFieldName("type"), vars), Tags: f.tags(p, vars)}
			if nn := p.ChildByFieldName("name"); nn != nil {
				param.Name = f.text(nn)
			}
			if dims := p.ChildByFieldName("dimensions"); dims != nil {
				param.Type += strings.Repeat("[]", strings.Count(f.text(dims), "["))
			}
			out = append(out, param)
		case "spread_parameter":
			param := Param{Type: f.typeOf(firstTypeNode(p), vars) + "[]", Tags: f.tags(p, vars)}
			if d := childOfType(p, "variable_declarator"); d != nil {
				if nn := d.ChildByFieldName("name"); nn != nil {
					param.Name = f.text(nn)
				}
			}
			out = append(out, param)
		}
	}
	return out
}

func (f *javaFile) typeList(n *sitter.Node, vars map[string]string) []string {
	if n == nil {
		return nil
	}
	if tl := childOfType(n, "type_list"); tl != nil {
		n = tl
	}
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if isTypeNode(c.Type()) {
			out = append(out, f.resolve(f.text(c), vars))
		}
	}
	return out
}

// tags resolves the annotations in n's modifiers.
func (f *javaFile) tags(n *sitter.Node, vars map[string]string) []string {
	mods := childOfType(n, "modifiers")
	if mods == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(mods.NamedChildCount()); i++ {
		a := mods.NamedChild(i)
		if a.Type() != "marker_annotation" && a.Type() != "annotation" {
			continue
		}
		if nn := a.ChildByFieldName("name"); nn != nil {
			out = append(out, f.resolve(f.text(nn), vars))
		}
	}
	return out
}

func (f *javaFile) typeOf(n *sitter.Node, vars map[string]string) string {
	if n == nil {
		return ""
	}
	return f.resolve(f.text(n), vars)
}

// resolve turns a source type expression into a binary name.
func (f *javaFile) resolve(expr string, vars map[string]string) string {
	expr = stripAnnotations(strings.TrimSpace(expr))
	expr = stripTypeArgs(strings.Join(strings.Fields(expr), ""))

	dims := ""
	for strings.HasSuffix(expr, "[]") {
		dims += "[]"
		expr = strings.TrimSuffix(expr, "[]")
	}
	if strings.HasSuffix(expr, "...") {
		dims += "[]"
		expr = strings.TrimSuffix(expr, "...")
	}

	if primitiveTypes[expr] {
		return expr + dims
	}
	if v, ok := vars[expr]; ok {
		return v + dims
	}

	head, rest, qualified := strings.Cut(expr, ".")
	if qualified {
		if b, ok := f.local[head]; ok {
			return b + "$" + strings.ReplaceAll(rest, ".", "$") + dims
		}
		if q, ok := f.imports[head]; ok {
			return q + "$" + strings.ReplaceAll(rest, ".", "$") + dims
		}
		return expr + dims
	}

	if b, ok := f.local[expr]; ok {
		return b + dims
	}
	if q, ok := f.imports[expr]; ok {
		return q + dims
	}
	if javaLangTypes[expr] {
		return "java.lang." + expr + dims
	}
	if f.pkg == "" {
		return expr + dims
	}
	return f.pkg + "." + expr + dims
}

// stripTypeArgs removes every <...> group, nested or not.
func stripTypeArgs(s string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// stripAnnotations drops leading type-use annotations such as @NonNull or
// @Size(max = 3).
func stripAnnotations(s string) string {
	for strings.HasPrefix(s, "@") {
		end := 1
		for end < len(s) && isNameByte(s[end]) {
			end++
		}
		if end < len(s) && s[end] == '(' {
			depth := 0
			for ; end < len(s); end++ {
				if s[end] == '(' {
					depth++
				} else if s[end] == ')' {
					depth--
					if depth == 0 {
						end++
						break
					}
				}
			}
		}
		s = strings.TrimSpace(s[end:])
	}
	return s
}

func isNameByte(b byte) bool {
	return b == '.' || b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isTypeNode(kind string) bool {
	switch kind {
	case "type_identifier", "scoped_type_identifier", "generic_type", "array_type", "annotated_type",
		"integral_type", "floating_point_type", "boolean_type", "void_type":
		return true
	}
	return false
}

func firstTypeNode(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); isTypeNode(c.Type()) {
			return c
		}
	}
	return nil
}

func childOfType(n *sitter.Node, kind string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == kind {
			return c
		}
	}
	return nil
}

func firstNamed(n *sitter.Node, kinds ...string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		for _, k := range kinds {
			if c.Type() == k {
				return c
			}
		}
	}
	return nil
}
