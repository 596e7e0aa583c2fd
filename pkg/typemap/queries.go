package typemap

import (
	"regexp"
	"slices"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/filter"
	"github.com/Aman-CERP/typemap/internal/metadata"
)

// SubTypesOf returns every type below typeName in the hierarchy, not
// including typeName itself.
func (m *Map) SubTypesOf(typeName string) ([]string, error) {
	return m.st.GetAll(SubTypesIndex, typeName)
}

// DirectSubTypesOf returns the types that directly extend or implement
// typeName.
func (m *Map) DirectSubTypesOf(typeName string) ([]string, error) {
	return m.st.Get(SubTypesIndex, typeName)
}

// TypesTaggedWith returns the types carrying tag.
//
// When honorInherited is false, tags on tags count (a type tagged with a
// tag that is itself tagged with tag qualifies) and every subtype of a
// qualifying type qualifies.
//
// When honorInherited is true, only tags themselves tagged
// java.lang.annotation.Inherited propagate, and only from classes to
// their subtypes; tags on interfaces do not propagate.
func (m *Map) TypesTaggedWith(tag string, honorInherited bool) ([]string, error) {
	tagged, err := m.st.Get(TypeTagsIndex, tag)
	if err != nil {
		return nil, err
	}

	var expanded []string
	if honorInherited {
		inherited, err := m.isInherited(tag)
		if err != nil {
			return nil, err
		}
		if !inherited {
			return tagged, nil
		}
		classes, err := m.withoutInterfaces(tagged)
		if err != nil {
			return nil, err
		}
		subs, err := m.st.Get(SubTypesIndex, classes...)
		if err != nil {
			return nil, err
		}
		expanded, err = m.st.GetAllIncluding(SubTypesIndex, subs...)
		if err != nil {
			return nil, err
		}
	} else {
		viaTags, err := m.st.GetAllIncluding(TypeTagsIndex, tagged...)
		if err != nil {
			return nil, err
		}
		expanded, err = m.st.GetAllIncluding(SubTypesIndex, viaTags...)
		if err != nil {
			return nil, err
		}
	}
	return union(tagged, expanded), nil
}

func (m *Map) isInherited(tag string) (bool, error) {
	marked, err := m.st.Get(TypeTagsIndex, metadata.InheritedTag)
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearch(marked, tag)
	return found, nil
}

// withoutInterfaces drops interfaces and annotation types. Without a type
// kinds index every type is treated as a class.
func (m *Map) withoutInterfaces(types []string) ([]string, error) {
	if !m.st.Has(TypeKindsIndex) {
		return types, nil
	}
	ifaces, err := m.st.Get(TypeKindsIndex, string(metadata.KindInterface), string(metadata.KindAnnotation))
	if err != nil {
		return nil, err
	}
	out := types[:0:0]
	for _, t := range types {
		if _, isIface := slices.BinarySearch(ifaces, t); !isIface {
			out = append(out, t)
		}
	}
	return out, nil
}

// TypesOfKind returns the types declared with kind.
func (m *Map) TypesOfKind(kind metadata.Kind) ([]string, error) {
	return m.st.Get(TypeKindsIndex, string(kind))
}

// MethodsTaggedWith returns the keys of methods (not constructors) carrying tag.
func (m *Map) MethodsTaggedWith(tag string) ([]string, error) {
	return m.members(MethodTagsIndex, tag, false)
}

// ConstructorsTaggedWith returns the keys of constructors carrying tag.
func (m *Map) ConstructorsTaggedWith(tag string) ([]string, error) {
	return m.members(MethodTagsIndex, tag, true)
}

// FieldsTaggedWith returns the keys of fields carrying tag.
func (m *Map) FieldsTaggedWith(tag string) ([]string, error) {
	return m.st.Get(FieldTagsIndex, tag)
}

// MethodsMatchParams returns methods whose parameter types are exactly params.
func (m *Map) MethodsMatchParams(params ...string) ([]string, error) {
	return m.members(MethodParameterIndex, metadata.ParamsKey(params), false)
}

// ConstructorsMatchParams returns constructors whose parameter types are
// exactly params.
func (m *Map) ConstructorsMatchParams(params ...string) ([]string, error) {
	return m.members(MethodParameterIndex, metadata.ParamsKey(params), true)
}

// MethodsReturn returns methods returning typeName. Methods with a
// parameter tagged typeName share the key and are included too.
func (m *Map) MethodsReturn(typeName string) ([]string, error) {
	return m.members(MethodParameterIndex, typeName, false)
}

// MethodsWithAnyParamTagged returns methods with at least one parameter
// carrying tag.
func (m *Map) MethodsWithAnyParamTagged(tag string) ([]string, error) {
	return m.members(MethodParameterIndex, tag, false)
}

// ConstructorsWithAnyParamTagged returns constructors with at least one
// parameter carrying tag.
func (m *Map) ConstructorsWithAnyParamTagged(tag string) ([]string, error) {
	return m.members(MethodParameterIndex, tag, true)
}

func (m *Map) members(index, key string, constructors bool) ([]string, error) {
	keys, err := m.st.Get(index, key)
	if err != nil {
		return nil, err
	}
	out := keys[:0:0]
	for _, k := range keys {
		if metadata.IsConstructorKey(k) == constructors {
			out = append(out, k)
		}
	}
	return out, nil
}

// Resources returns the relative paths of resources whose base name
// satisfies match.
func (m *Map) Resources(match filter.Predicate) ([]string, error) {
	names, err := m.st.Keys(ResourcesIndex)
	if err != nil {
		return nil, err
	}
	var hits []string
	for _, n := range names {
		if match == nil || match(n) {
			hits = append(hits, n)
		}
	}
	return m.st.Get(ResourcesIndex, hits...)
}

// ResourcesMatching returns resources whose whole base name matches pattern.
func (m *Map) ResourcesMatching(pattern string) ([]string, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidFilter, "invalid resource pattern "+pattern, err)
	}
	return m.Resources(re.MatchString)
}

// AllTypes returns every scanned type. It needs a subtype index that
// keeps java.lang.Object.
func (m *Map) AllTypes() ([]string, error) {
	all, err := m.st.GetAll(SubTypesIndex, metadata.ObjectType)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.ConfigError("could not find subtypes of "+metadata.ObjectType, nil).
			WithSuggestion("set subtypes.exclude_object: false so the subtype scanner keeps java.lang.Object")
	}
	return all, nil
}

// Supertypes returns the direct supertypes of typeName known to the map.
func (m *Map) Supertypes(typeName string) ([]string, error) {
	keys, err := m.st.Keys(SubTypesIndex)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range keys {
		subs, err := m.st.Get(SubTypesIndex, k)
		if err != nil {
			return nil, err
		}
		if _, found := slices.BinarySearch(subs, typeName); found {
			out = append(out, k)
		}
	}
	return out, nil
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}
