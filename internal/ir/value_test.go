package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"aA": IRInt(4),
		"Aa": IRInt(5),
		"AA": IRInt(6),
	}

	// 'A' = 65, 'a' = 97
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		value IRValue
		want  string
	}{
		{"string", IRString("foo"), "'foo'"},
		{"quoted string", IRString("it's"), "'it''s'"},
		{"int", IRInt(-7), "-7"},
		{"bool", IRBool(true), "true"},
		{"null", IRNull{}, "null"},
		{"array", IRArray{IRInt(1), IRString("x")}, "(1, 'x')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.value))
		})
	}
}

func TestToParam(t *testing.T) {
	p, err := ToParam(IRString("foo%bar"))
	require.NoError(t, err)
	assert.Equal(t, "foo%bar", p)

	p, err = ToParam(IRInt(311))
	require.NoError(t, err)
	assert.Equal(t, int64(311), p)

	p, err = ToParam(IRBool(false))
	require.NoError(t, err)
	assert.Equal(t, false, p)

	_, err = ToParam(IRArray{IRInt(1)})
	assert.Error(t, err)

	_, err = ToParam(IRObject{})
	assert.Error(t, err)
}

func TestFromAny(t *testing.T) {
	v, err := FromAny([]any{"a", 1, true, nil})
	require.NoError(t, err)
	assert.Equal(t, IRArray{IRString("a"), IRInt(1), IRBool(true), IRNull{}}, v)

	v, err = FromAny(float64(3))
	require.NoError(t, err)
	assert.Equal(t, IRInt(3), v)

	_, err = FromAny(3.5)
	assert.Error(t, err)

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestIRObjectMarshalJSONSorted(t *testing.T) {
	data, err := IRObject{"b": IRInt(1), "a": IRArray{IRNull{}}}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":[null],"b":1}`, string(data))
}
