package metadata

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

const classMagic = 0xCAFEBABE

// Access flags used to derive the kind and skip members.
const (
	accInterface  = 0x0200
	accSynthetic  = 0x1000
	accAnnotation = 0x2000
	accEnum       = 0x4000
	accModule     = 0x8000
	accBridge     = 0x0040
)

// Constant pool tags.
const (
	cpUtf8               = 1
	cpInteger            = 3
	cpFloat              = 4
	cpLong               = 5
	cpDouble             = 6
	cpClass              = 7
	cpString             = 8
	cpFieldref           = 9
	cpMethodref          = 10
	cpInterfaceMethodref = 11
	cpNameAndType        = 12
	cpMethodHandle       = 15
	cpMethodType         = 16
	cpDynamic            = 17
	cpInvokeDynamic      = 18
	cpModule             = 19
	cpPackage            = 20
)

// ClassFileExtractor reads compiled JVM class files.
type ClassFileExtractor struct {
	// IncludeSynthetic keeps compiler-generated members.
	IncludeSynthetic bool
}

// NewClassFileExtractor creates a class file extractor.
func NewClassFileExtractor() *ClassFileExtractor {
	return &ClassFileExtractor{}
}

// AcceptsInput implements Extractor.
func (x *ClassFileExtractor) AcceptsInput(path string) bool {
	return hasSuffixFold(path, ".class") && !strings.HasSuffix(path, "module-info.class")
}

// Extract implements Extractor.
func (x *ClassFileExtractor) Extract(entry vfs.Entry) (*Unit, error) {
	data, err := readEntry(entry)
	if err != nil {
		return nil, err
	}
	t, err := x.Parse(data)
	if err != nil {
		return nil, errors.New(errors.ErrCodeExtractFailed, "parse class file "+entry.RelativePath(), err)
	}
	if t == nil {
		return &Unit{Path: entry.RelativePath()}, nil
	}
	return &Unit{Path: entry.RelativePath(), Types: []*Type{t}}, nil
}

// Parse decodes a class file. Module descriptors yield a nil type.
func (x *ClassFileExtractor) Parse(data []byte) (*Type, error) {
	r := &classReader{buf: data}

	if r.u4() != classMagic {
		return nil, fmt.Errorf("bad magic")
	}
	r.skip(4) // minor, major

	pool := r.constantPool()
	access := r.u2()
	if r.err != nil {
		return nil, r.err
	}
	if access&accModule != 0 {
		return nil, nil
	}

	t := &Type{
		Name:       pool.className(r.u2()),
		Superclass: pool.className(r.u2()),
	}
	switch {
	case access&accAnnotation != 0:
		t.Kind = KindAnnotation
	case access&accInterface != 0:
		t.Kind = KindInterface
	case access&accEnum != 0:
		t.Kind = KindEnum
	case t.Superclass == "java.lang.Record":
		t.Kind = KindRecord
	default:
		t.Kind = KindClass
	}

	for n := r.u2(); n > 0 && r.err == nil; n-- {
		t.Interfaces = append(t.Interfaces, pool.className(r.u2()))
	}

	for n := r.u2(); n > 0 && r.err == nil; n-- {
		flags, name, desc := r.u2(), pool.utf8(r.u2()), pool.utf8(r.u2())
		attrs := r.attributes(pool)
		if flags&accSynthetic != 0 && !x.IncludeSynthetic {
			continue
		}
		t.Fields = append(t.Fields, Field{Name: name, Type: fieldType(desc), Tags: attrs.tags})
	}

	for n := r.u2(); n > 0 && r.err == nil; n-- {
		flags, name, desc := r.u2(), pool.utf8(r.u2()), pool.utf8(r.u2())
		attrs := r.attributes(pool)
		if name == "<clinit>" {
			continue
		}
		if flags&(accSynthetic|accBridge) != 0 && !x.IncludeSynthetic {
			continue
		}

		paramTypes, ret := methodTypes(desc)
		m := Method{
			Name:        name,
			Return:      ret,
			Tags:        attrs.tags,
			Constructor: name == ConstructorName,
		}
		if m.Constructor {
			m.Return = ""
		}
		// Parameter annotations skip synthetic leading parameters.
		offset := len(paramTypes) - len(attrs.paramTags)
		for i, pt := range paramTypes {
			p := Param{Type: pt, Name: fmt.Sprintf("arg%d", i)}
			if i < len(attrs.paramNames) && attrs.paramNames[i] != "" {
				p.Name = attrs.paramNames[i]
			}
			if j := i - offset; offset >= 0 && j >= 0 && j < len(attrs.paramTags) {
				p.Tags = attrs.paramTags[j]
			}
			m.Params = append(m.Params, p)
		}
		t.Methods = append(t.Methods, m)
	}

	t.Tags = r.attributes(pool).tags
	if r.err != nil {
		return nil, r.err
	}
	return t, nil
}

// classReader is a big-endian cursor that latches the first error.
type classReader struct {
	buf []byte
	pos int
	err error
}

func (r *classReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("truncated class file at offset %d", r.pos)
		return false
	}
	return true
}

func (r *classReader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *classReader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *classReader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *classReader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *classReader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

// constantPool holds the entries needed for names: utf8 strings and class refs.
type constantPool struct {
	utf8s   map[uint16]string
	classes map[uint16]uint16
}

func (p *constantPool) utf8(i uint16) string {
	return p.utf8s[i]
}

func (p *constantPool) className(i uint16) string {
	if i == 0 {
		return ""
	}
	return strings.ReplaceAll(p.utf8s[p.classes[i]], "/", ".")
}

func (r *classReader) constantPool() *constantPool {
	pool := &constantPool{utf8s: map[uint16]string{}, classes: map[uint16]uint16{}}
	count := r.u2()
	for i := uint16(1); i < count && r.err == nil; i++ {
		switch tag := r.u1(); tag {
		case cpUtf8:
			pool.utf8s[i] = string(r.bytes(int(r.u2())))
		case cpClass:
			pool.classes[i] = r.u2()
		case cpString, cpMethodType, cpModule, cpPackage:
			r.skip(2)
		case cpMethodHandle:
			r.skip(3)
		case cpInteger, cpFloat, cpFieldref, cpMethodref, cpInterfaceMethodref,
			cpNameAndType, cpDynamic, cpInvokeDynamic:
			r.skip(4)
		case cpLong, cpDouble:
			r.skip(8)
			i++ // takes two slots
		default:
			r.err = fmt.Errorf("unknown constant pool tag %d at index %d", tag, i)
		}
	}
	return pool
}

// memberAttrs are the attributes typemap reads from a class, field or method.
type memberAttrs struct {
	tags       []string
	paramTags  [][]string
	paramNames []string
}

func (r *classReader) attributes(pool *constantPool) memberAttrs {
	var out memberAttrs
	for n := r.u2(); n > 0 && r.err == nil; n-- {
		name := pool.utf8(r.u2())
		length := int(r.u4())
		if !r.need(length) {
			break
		}
		sub := &classReader{buf: r.buf[r.pos : r.pos+length]}
		r.pos += length

		switch name {
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			out.tags = append(out.tags, sub.annotations(pool)...)
		case "RuntimeVisibleParameterAnnotations", "RuntimeInvisibleParameterAnnotations":
			count := int(sub.u1())
			if len(out.paramTags) < count {
				grown := make([][]string, count)
				copy(grown, out.paramTags)
				out.paramTags = grown
			}
			for i := 0; i < count && sub.err == nil; i++ {
				out.paramTags[i] = append(out.paramTags[i], sub.annotations(pool)...)
			}
		case "MethodParameters":
			count := int(sub.u1())
			for i := 0; i < count && sub.err == nil; i++ {
				out.paramNames = append(out.paramNames, pool.utf8(sub.u2()))
				sub.skip(2) // access flags
			}
		}
		if sub.err != nil {
			r.err = fmt.Errorf("attribute %s: %w", name, sub.err)
		}
	}
	return out
}

// annotations reads a num_annotations-prefixed list and returns type names.
func (r *classReader) annotations(pool *constantPool) []string {
	var out []string
	for n := r.u2(); n > 0 && r.err == nil; n-- {
		out = append(out, r.annotation(pool))
	}
	return out
}

func (r *classReader) annotation(pool *constantPool) string {
	name := fieldType(pool.utf8(r.u2()))
	for n := r.u2(); n > 0 && r.err == nil; n-- {
		r.skip(2) // element name
		r.elementValue(pool)
	}
	return name
}

func (r *classReader) elementValue(pool *constantPool) {
	switch tag := r.u1(); tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		r.skip(2)
	case 'e':
		r.skip(4)
	case '@':
		r.annotation(pool)
	case '[':
		for n := r.u2(); n > 0 && r.err == nil; n-- {
			r.elementValue(pool)
		}
	default:
		if r.err == nil {
			r.err = fmt.Errorf("unknown element value tag %q", tag)
		}
	}
}

// fieldType converts a field descriptor to a source-style type name.
func fieldType(desc string) string {
	t, _ := parseDescriptor(desc)
	return t
}

// methodTypes converts a method descriptor to parameter and return types.
func methodTypes(desc string) ([]string, string) {
	if !strings.HasPrefix(desc, "(") {
		return nil, ""
	}
	rest := desc[1:]
	var params []string
	for rest != "" && rest[0] != ')' {
		t, n := parseDescriptor(rest)
		if n == 0 {
			return params, ""
		}
		params = append(params, t)
		rest = rest[n:]
	}
	if rest == "" {
		return params, ""
	}
	ret, _ := parseDescriptor(rest[1:])
	return params, ret
}

// parseDescriptor decodes one type at the start of desc and returns it with
// the number of bytes consumed.
func parseDescriptor(desc string) (string, int) {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	if dims == len(desc) {
		return "", 0
	}

	var base string
	n := dims + 1
	switch desc[dims] {
	case 'B':
		base = "byte"
	case 'C':
		base = "char"
	case 'D':
		base = "double"
	case 'F':
		base = "float"
	case 'I':
		base = "int"
	case 'J':
		base = "long"
	case 'S':
		base = "short"
	case 'Z':
		base = "boolean"
	case 'V':
		base = "void"
	case 'L':
		end := strings.IndexByte(desc[dims:], ';')
		if end < 0 {
			return "", 0
		}
		base = strings.ReplaceAll(desc[dims+1:dims+end], "/", ".")
		n = dims + end + 1
	default:
		return "", 0
	}
	return base + strings.Repeat("[]", dims), n
}
