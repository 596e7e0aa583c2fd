package metadata

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// classBuilder assembles minimal class files for tests.
type classBuilder struct {
	pool  bytes.Buffer
	next  uint16
	utf8s map[string]uint16

	access     uint16
	this       uint16
	super      uint16
	interfaces []uint16
	fields     [][]byte
	methods    [][]byte
	attrs      [][]byte
}

func newClass(name, super string, access uint16) *classBuilder {
	b := &classBuilder{next: 1, utf8s: map[string]uint16{}, access: access}
	b.this = b.class(name)
	if super != "" {
		b.super = b.class(super)
	}
	return b
}

func (b *classBuilder) utf8(s string) uint16 {
	if i, ok := b.utf8s[s]; ok {
		return i
	}
	b.pool.WriteByte(cpUtf8)
	_ = binary.Write(&b.pool, binary.BigEndian, uint16(len(s)))
	b.pool.WriteString(s)
	i := b.next
	b.next++
	b.utf8s[s] = i
	return i
}

func (b *classBuilder) class(name string) uint16 {
	u := b.utf8(name)
	b.pool.WriteByte(cpClass)
	_ = binary.Write(&b.pool, binary.BigEndian, u)
	i := b.next
	b.next++
	return i
}

// long adds a two-slot constant.
func (b *classBuilder) long(v int64) {
	b.pool.WriteByte(cpLong)
	_ = binary.Write(&b.pool, binary.BigEndian, v)
	b.next += 2
}

func (b *classBuilder) implements(names ...string) *classBuilder {
	for _, n := range names {
		b.interfaces = append(b.interfaces, b.class(n))
	}
	return b
}

func (b *classBuilder) attr(name string, body []byte) []byte {
	var out bytes.Buffer
	_ = binary.Write(&out, binary.BigEndian, b.utf8(name))
	_ = binary.Write(&out, binary.BigEndian, uint32(len(body)))
	out.Write(body)
	return out.Bytes()
}

// annotationList encodes annotations; each gets one string-valued element.
func (b *classBuilder) annotationList(descs ...string) []byte {
	var out bytes.Buffer
	_ = binary.Write(&out, binary.BigEndian, uint16(len(descs)))
	for _, d := range descs {
		_ = binary.Write(&out, binary.BigEndian, b.utf8(d))
		_ = binary.Write(&out, binary.BigEndian, uint16(1))
		_ = binary.Write(&out, binary.BigEndian, b.utf8("value"))
		out.WriteByte('s')
		_ = binary.Write(&out, binary.BigEndian, b.utf8("x"))
	}
	return out.Bytes()
}

func (b *classBuilder) annotations(descs ...string) []byte {
	return b.attr("RuntimeVisibleAnnotations", b.annotationList(descs...))
}

func (b *classBuilder) paramAnnotations(perParam ...[]string) []byte {
	body := []byte{byte(len(perParam))}
	for _, descs := range perParam {
		body = append(body, b.annotationList(descs...)...)
	}
	return b.attr("RuntimeVisibleParameterAnnotations", body)
}

func (b *classBuilder) paramNames(names ...string) []byte {
	body := []byte{byte(len(names))}
	for _, n := range names {
		body = binary.BigEndian.AppendUint16(body, b.utf8(n))
		body = binary.BigEndian.AppendUint16(body, 0)
	}
	return b.attr("MethodParameters", body)
}

func (b *classBuilder) member(access uint16, name, desc string, attrs ...[]byte) []byte {
	var out bytes.Buffer
	_ = binary.Write(&out, binary.BigEndian, access)
	_ = binary.Write(&out, binary.BigEndian, b.utf8(name))
	_ = binary.Write(&out, binary.BigEndian, b.utf8(desc))
	_ = binary.Write(&out, binary.BigEndian, uint16(len(attrs)))
	for _, a := range attrs {
		out.Write(a)
	}
	return out.Bytes()
}

func (b *classBuilder) field(access uint16, name, desc string, attrs ...[]byte) *classBuilder {
	b.fields = append(b.fields, b.member(access, name, desc, attrs...))
	return b
}

func (b *classBuilder) method(access uint16, name, desc string, attrs ...[]byte) *classBuilder {
	b.methods = append(b.methods, b.member(access, name, desc, attrs...))
	return b
}

func (b *classBuilder) tagged(descs ...string) *classBuilder {
	b.attrs = append(b.attrs, b.annotations(descs...))
	return b
}

func (b *classBuilder) bytes() []byte {
	var out bytes.Buffer
	w := func(v any) { _ = binary.Write(&out, binary.BigEndian, v) }
	w(uint32(classMagic))
	w(uint16(0))
	w(uint16(61))
	w(b.next)
	out.Write(b.pool.Bytes())
	w(b.access)
	w(b.this)
	w(b.super)
	w(uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		w(i)
	}
	for _, group := range [][][]byte{b.fields, b.methods} {
		w(uint16(len(group)))
		for _, m := range group {
			out.Write(m)
		}
	}
	w(uint16(len(b.attrs)))
	for _, a := range b.attrs {
		out.Write(a)
	}
	return out.Bytes()
}

func TestClassFile_Parse(t *testing.T) {
	// Given: a tagged class with fields, a constructor and an annotated method
	b := newClass("com/acme/Svc", "com/acme/Base", 0x0021)
	b.long(42)
	b.implements("com/acme/Api", "java/io/Serializable")
	b.field(0x0002, "repo", "Lcom/acme/Repo;", b.annotations("Lcom/acme/Inject;"))
	b.field(0x0002, "counts", "[[I")
	b.field(accSynthetic, "this$0", "Lcom/acme/Outer;")
	b.method(0x0001, "<init>", "(Lcom/acme/Repo;I)V",
		b.paramAnnotations([]string{"Lcom/acme/Named;"}, nil),
		b.paramNames("repo", "size"))
	b.method(0x0001, "find", "(Ljava/lang/String;[J)Ljava/util/List;",
		b.annotations("Lcom/acme/Tag;", "Ljava/lang/Deprecated;"))
	b.method(0x0008, "<clinit>", "()V")
	b.method(accBridge|accSynthetic, "compareTo", "(Ljava/lang/Object;)I")
	b.tagged("Lcom/acme/Tag;")

	// When: parsing it
	ty, err := NewClassFileExtractor().Parse(b.bytes())

	// Then: names, members and tags are decoded
	require.NoError(t, err)
	assert.Equal(t, "com.acme.Svc", ty.Name)
	assert.Equal(t, KindClass, ty.Kind)
	assert.Equal(t, "com.acme.Base", ty.Superclass)
	assert.Equal(t, []string{"com.acme.Api", "java.io.Serializable"}, ty.Interfaces)
	assert.Equal(t, []string{"com.acme.Tag"}, ty.Tags)

	require.Len(t, ty.Fields, 2)
	assert.Equal(t, Field{Name: "repo", Type: "com.acme.Repo", Tags: []string{"com.acme.Inject"}}, ty.Fields[0])
	assert.Equal(t, "int[][]", ty.Fields[1].Type)

	require.Len(t, ty.Methods, 2)
	ctor := ty.Methods[0]
	assert.True(t, ctor.Constructor)
	assert.Empty(t, ctor.Return)
	assert.Equal(t, "com.acme.Svc.<init>(com.acme.Repo, int)", ctor.Key(ty.Name))
	assert.Equal(t, "repo", ctor.Params[0].Name)
	assert.Equal(t, []string{"com.acme.Named"}, ctor.Params[0].Tags)
	assert.Equal(t, "size", ctor.Params[1].Name)
	assert.Empty(t, ctor.Params[1].Tags)

	find := ty.Methods[1]
	assert.Equal(t, "com.acme.Svc.find(java.lang.String, long[])", find.Key(ty.Name))
	assert.Equal(t, "java.util.List", find.Return)
	assert.Equal(t, []string{"com.acme.Tag", "java.lang.Deprecated"}, find.Tags)
	assert.Equal(t, "arg0", find.Params[0].Name)
}

func TestClassFile_IncludeSynthetic(t *testing.T) {
	b := newClass("a/B", "java/lang/Object", 0x0021)
	b.method(accBridge|accSynthetic, "compareTo", "(Ljava/lang/Object;)I")

	ty, err := (&ClassFileExtractor{IncludeSynthetic: true}).Parse(b.bytes())
	require.NoError(t, err)
	require.Len(t, ty.Methods, 1)
	assert.Equal(t, "int", ty.Methods[0].Return)
}

func TestClassFile_Kinds(t *testing.T) {
	tests := []struct {
		name   string
		access uint16
		super  string
		want   Kind
	}{
		{"interface", accInterface | 0x0400, "java/lang/Object", KindInterface},
		{"annotation", accAnnotation | accInterface | 0x0400, "java/lang/Object", KindAnnotation},
		{"enum", accEnum | 0x0010, "java/lang/Enum", KindEnum},
		{"record", 0x0010, "java/lang/Record", KindRecord},
		{"class", 0x0001, "java/lang/Object", KindClass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ty, err := NewClassFileExtractor().Parse(newClass("a/X", tt.super, tt.access).bytes())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ty.Kind)
		})
	}
}

func TestClassFile_ObjectHasNoSuperclass(t *testing.T) {
	ty, err := NewClassFileExtractor().Parse(newClass("java/lang/Object", "", 0x0021).bytes())
	require.NoError(t, err)
	assert.Empty(t, ty.Superclass)
	assert.Empty(t, ty.Supertypes())
}

func TestClassFile_ModuleInfo(t *testing.T) {
	ty, err := NewClassFileExtractor().Parse(newClass("module-info", "", accModule).bytes())
	require.NoError(t, err)
	assert.Nil(t, ty)
}

func TestClassFile_Malformed(t *testing.T) {
	valid := newClass("a/B", "java/lang/Object", 0x0021).bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 61}},
		{"truncated", valid[:len(valid)-3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClassFileExtractor().Parse(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestClassFile_Extract(t *testing.T) {
	x := NewClassFileExtractor()
	assert.True(t, x.AcceptsInput("com/acme/A.class"))
	assert.True(t, x.AcceptsInput("com/acme/A.CLASS"))
	assert.False(t, x.AcceptsInput("module-info.class"))
	assert.False(t, x.AcceptsInput("com/acme/A.java"))

	unit, err := x.Extract(vfs.BytesEntry("com/acme/A.class", newClass("com/acme/A", "java/lang/Object", 0x21).bytes()))
	require.NoError(t, err)
	require.Len(t, unit.Types, 1)
	assert.Equal(t, "com.acme.A", unit.Types[0].Name)

	_, err = x.Extract(vfs.BytesEntry("com/acme/B.class", []byte("nope")))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExtractFailed, errors.GetCode(err))
}

func TestDescriptors(t *testing.T) {
	params, ret := methodTypes("(IJ[Ljava/lang/String;Lcom/acme/Outer$Inner;)[[Z")
	assert.Equal(t, []string{"int", "long", "java.lang.String[]", "com.acme.Outer$Inner"}, params)
	assert.Equal(t, "boolean[][]", ret)

	params, ret = methodTypes("()V")
	assert.Empty(t, params)
	assert.Equal(t, "void", ret)

	assert.Equal(t, "", fieldType("Lbroken"))
	assert.Equal(t, "", fieldType("Q"))
}
