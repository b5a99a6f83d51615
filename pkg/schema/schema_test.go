package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustString(t *testing.T, s string) *StringValue {
	t.Helper()
	v, err := NewStringValue(s)
	require.NoError(t, err)
	return v
}

func mustEmail(t *testing.T, s string) *EmailValue {
	t.Helper()
	v, err := NewEmailValue(s)
	require.NoError(t, err)
	return v
}

func TestValueConstruction(t *testing.T) {
	t.Run("empty string rejected", func(t *testing.T) {
		_, err := NewStringValue("")
		assert.ErrorIs(t, err, ErrEmpty)
	})
	t.Run("bad email rejected", func(t *testing.T) {
		_, err := NewEmailValue("not an email")
		assert.ErrorIs(t, err, ErrBadFormat)
	})
	t.Run("email accepted", func(t *testing.T) {
		v := mustEmail(t, "ada@example.com")
		assert.Equal(t, KindString, v.Kind())
		assert.Equal(t, "ada@example.com", v.String())
	})
	t.Run("uri keeps parsed form", func(t *testing.T) {
		v, err := NewURIValue("/signup/identity?x=1")
		require.NoError(t, err)
		assert.Equal(t, "/signup/identity", v.URL().Path)
	})
}

func TestValueEqualityIsTypeStrict(t *testing.T) {
	s := mustString(t, "ada@example.com")
	e := mustEmail(t, "ada@example.com")

	assert.True(t, s.Equal(mustString(t, "ada@example.com")))
	assert.False(t, s.Equal(e))
	assert.False(t, e.Equal(s))
	assert.True(t, NewTrueValue().Equal(NewTrueValue()))
	assert.False(t, NewTrueValue().Equal(NewBoolValue(true)))
}

func TestNarrowing(t *testing.T) {
	var v Value = NewFloatValue(2.5)

	assert.True(t, Is[*FloatValue](v))
	assert.False(t, Is[*BoolValue](v))

	f, ok := As[*FloatValue](v)
	require.True(t, ok)
	assert.Equal(t, 2.5, f.Val())

	b, ok := As[*BoolValue](v)
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestVarParsing(t *testing.T) {
	cases := []struct {
		name string
		v    Var
		in   string
		want string
		ok   bool
	}{
		{"string", NewStringVar(1), "hi", "hi", true},
		{"string empty", NewStringVar(1), "", "", false},
		{"bool", NewBoolVar(2), "true", "true", true},
		{"bool junk", NewBoolVar(2), "maybe", "", false},
		{"float", NewFloatVar(3), "2.5", "2.5", true},
		{"time", NewTimeVar(4), "2026-01-02T15:04:05Z", "2026-01-02T15:04:05Z", true},
		{"time junk", NewTimeVar(4), "yesterday", "", false},
		{"email", NewEmailVar(5), "ada@example.com", "ada@example.com", true},
		{"true", NewTrueVar(6), "TRUE", "true", true},
		{"true rejects false", NewTrueVar(6), "false", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			val, err := tc.v.ValueFromString(tc.in)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, val.String())
			assert.NoError(t, tc.v.Validate(val))
		})
	}
}

func TestVarValidateTypeStrict(t *testing.T) {
	// the text would pass the email validator, the type still does not
	err := NewEmailVar(1).Validate(mustString(t, "ada@example.com"))
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestStringVarRefinementsRunInOrder(t *testing.T) {
	errShort := errors.New("too short")
	errVowel := errors.New("no vowels")
	v := NewStringVar(1,
		Predicate{Name: "min_len", Check: func(val Value) error {
			if len(val.String()) < 3 {
				return errShort
			}
			return nil
		}},
		Predicate{Name: "has_vowel", Check: func(val Value) error {
			return errVowel
		}},
	)

	// first failing predicate wins
	assert.ErrorIs(t, v.Validate(mustString(t, "ab")), errShort)
	assert.ErrorIs(t, v.Validate(mustString(t, "abc")), errVowel)
}

func TestOneOfVar(t *testing.T) {
	v := NewOneOfVar(1, "starter", "team")

	assert.NoError(t, v.Validate(mustString(t, "team")))
	assert.ErrorIs(t, v.Validate(mustString(t, "enterprise")), ErrWrongValue)
	assert.Equal(t, []string{"starter", "team"}, v.Options())
}

func TestValidVal(t *testing.T) {
	v := NewOneOfVar(7, "a", "b")

	vv, err := NewValidVal(mustString(t, "a"), v)
	require.NoError(t, err)
	assert.Equal(t, VarID(7), vv.ValidatedBy())

	_, err = NewValidVal(mustString(t, "z"), v)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, VarID(7), verr.Var)

	other, err := NewValidVal(mustString(t, "a"), NewStringVar(8))
	require.NoError(t, err)
	// same text, different validating var
	assert.False(t, vv.Equal(other))
}

func TestStateData(t *testing.T) {
	name := NewStringVar(1)
	email := NewEmailVar(2)
	d := NewStateData()

	require.NoError(t, d.Insert(name, mustString(t, "Ada")))
	assert.Error(t, d.Insert(email, mustString(t, "ada@example.com")))
	require.NoError(t, d.Insert(email, mustEmail(t, "ada@example.com")))

	assert.True(t, d.Contains(1))
	assert.False(t, d.Contains(3))
	assert.True(t, d.ContainsOnly([]VarID{1, 2}))
	assert.False(t, d.ContainsOnly([]VarID{1}))

	t.Run("replacement revalidates", func(t *testing.T) {
		require.NoError(t, d.Insert(name, mustString(t, "Grace")))
		vv, ok := d.Get(1)
		require.True(t, ok)
		assert.Equal(t, "Grace", vv.Value().String())
	})

	t.Run("merge", func(t *testing.T) {
		src := NewStateData()
		plan := NewOneOfVar(3, "starter", "team")
		require.NoError(t, src.Insert(plan, mustString(t, "team")))

		d.MergeFrom(src)
		assert.True(t, d.Contains(3))
		assert.Equal(t, 3, d.Len())
	})
}

func TestFromValuesCollectsAllFailures(t *testing.T) {
	name := NewStringVar(1)
	plan := NewOneOfVar(2, "starter", "team")

	_, err := FromValues([]VarValue{
		{Var: name, Value: mustString(t, "Ada")},
		{Var: plan, Value: mustString(t, "enterprise")},
	})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Len(t, fields, 1)
	assert.ErrorIs(t, fields[2], ErrWrongValue)

	d, err := FromValues([]VarValue{
		{Var: name, Value: mustString(t, "Ada")},
		{Var: plan, Value: mustString(t, "team")},
	})
	require.NoError(t, err)
	assert.True(t, d.ContainsOnly([]VarID{1, 2}))
}

func TestFilteredData(t *testing.T) {
	name := NewStringVar(1)
	secret := NewStringVar(2)
	d := NewStateData()
	require.NoError(t, d.Insert(name, mustString(t, "Ada")))
	require.NoError(t, d.Insert(secret, mustString(t, "hunter2")))

	f := NewFilteredData(d, []VarID{1})

	vv, ok := f.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Ada", vv.Value().String())

	_, ok = f.Get(2)
	assert.False(t, ok)
	assert.False(t, f.Contains(2))
}
