package metadata

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/typemap/internal/errors"
)

// MethodKey formats owner.name(p1, p2). Constructors use ConstructorName.
func MethodKey(owner, name string, params []string) string {
	return owner + "." + name + "(" + strings.Join(params, ", ") + ")"
}

// FieldKey formats owner.field.
func FieldKey(owner, field string) string {
	return owner + "." + field
}

// ParamsKey formats a parameter type list as [p1, p2]; the empty list is [].
func ParamsKey(params []string) string {
	return "[" + strings.Join(params, ", ") + "]"
}

// IsConstructorKey reports whether key names a constructor.
func IsConstructorKey(key string) bool {
	i := strings.IndexByte(key, '(')
	return i > 0 && strings.HasSuffix(key[:i], "."+ConstructorName)
}

// ParseMethodKey splits a method key into owner, name and parameter types.
func ParseMethodKey(key string) (owner, name string, params []string, err error) {
	open := strings.IndexByte(key, '(')
	if open < 0 || !strings.HasSuffix(key, ")") {
		return "", "", nil, invalidKey("method", key)
	}

	head := key[:open]
	dot := strings.LastIndexByte(head, '.')
	if dot <= 0 || dot == len(head)-1 {
		return "", "", nil, invalidKey("method", key)
	}

	owner, name = head[:dot], head[dot+1:]
	if list := strings.TrimSpace(key[open+1 : len(key)-1]); list != "" {
		for _, p := range strings.Split(list, ",") {
			params = append(params, strings.TrimSpace(p))
		}
	}
	return owner, name, params, nil
}

// ParseFieldKey splits a field key into owner and field name.
func ParseFieldKey(key string) (owner, field string, err error) {
	dot := strings.LastIndexByte(key, '.')
	if dot <= 0 || dot == len(key)-1 || strings.ContainsAny(key, "()") {
		return "", "", invalidKey("field", key)
	}
	return key[:dot], key[dot+1:], nil
}

func invalidKey(kind, key string) error {
	return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("invalid %s key %q", kind, key), nil)
}
