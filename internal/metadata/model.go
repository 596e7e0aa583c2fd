// Package metadata models the structural facts scanners index: types with
// their supertypes, tags (annotations), fields and methods.
//
// Names are fully qualified binary names: packages separated by dots,
// nested types by '$' (com.acme.Outer$Inner). Primitive and array types
// are written as in source (int, java.lang.String[]).
package metadata

// Kind is the declaration kind of a type.
type Kind string

const (
	KindClass      Kind = "class"
	KindInterface  Kind = "interface"
	KindEnum       Kind = "enum"
	KindAnnotation Kind = "annotation"
	KindRecord     Kind = "record"
)

// ObjectType is the root of the class hierarchy.
const ObjectType = "java.lang.Object"

// InheritedTag marks tags that propagate from a class to its subclasses.
const InheritedTag = "java.lang.annotation.Inherited"

// ConstructorName is the method name used for constructors.
const ConstructorName = "<init>"

// Unit is everything extracted from one entry. Source files can declare
// several types; class files declare exactly one.
type Unit struct {
	Path  string
	Types []*Type
}

// Type is one declared type.
type Type struct {
	Name       string
	Kind       Kind
	Superclass string
	Interfaces []string
	Tags       []string
	Fields     []Field
	Methods    []Method
}

// IsInterface reports whether t is an interface or annotation type.
func (t *Type) IsInterface() bool {
	return t.Kind == KindInterface || t.Kind == KindAnnotation
}

// Supertypes returns the superclass (if any) followed by the interfaces.
func (t *Type) Supertypes() []string {
	out := make([]string, 0, len(t.Interfaces)+1)
	if t.Superclass != "" {
		out = append(out, t.Superclass)
	}
	return append(out, t.Interfaces...)
}

// Field is a declared field.
type Field struct {
	Name string
	Type string
	Tags []string
}

// Param is one formal parameter.
type Param struct {
	Type string
	Name string
	Tags []string
}

// Method is a declared method or constructor.
type Method struct {
	Name        string
	Params      []Param
	Return      string
	Tags        []string
	Constructor bool
}

// ParamTypes returns the parameter types in declaration order.
func (m Method) ParamTypes() []string {
	out := make([]string, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.Type
	}
	return out
}

// Key returns the member key of m declared in owner.
func (m Method) Key(owner string) string {
	name := m.Name
	if m.Constructor {
		name = ConstructorName
	}
	return MethodKey(owner, name, m.ParamTypes())
}

// Key returns the member key of f declared in owner.
func (f Field) Key(owner string) string {
	return FieldKey(owner, f.Name)
}
