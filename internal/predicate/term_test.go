package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnd3Simplification(t *testing.T) {
	x := Eql(Const{Value: int64(1)}, Const{Value: int64(1)})

	assert.Equal(t, True, And3(nil))
	assert.Equal(t, False, And3([]Term{x, False, True}))
	assert.Equal(t, x, And3([]Term{True, x, True}))

	multi := And3([]Term{x, x, x})
	_, ok := multi.(And)
	assert.True(t, ok, "And3 of several non-constant terms folds into And nodes")
}

func TestOr3Simplification(t *testing.T) {
	x := Eql(Const{Value: int64(1)}, Const{Value: int64(2)})

	assert.Equal(t, False, Or3(nil))
	assert.Equal(t, True, Or3([]Term{x, True, False}))
	assert.Equal(t, x, Or3([]Term{False, x, False}))

	multi := Or3([]Term{x, x, x})
	_, ok := multi.(Or)
	assert.True(t, ok, "Or3 of several non-constant terms folds into Or nodes")
}

func TestFromEqlsRewritesToIn(t *testing.T) {
	path := UniquePath{Path: []string{"countryCode"}}
	eqls := []Term{
		Eql(path, Const{Value: "NLD"}),
		Eql(path, Const{Value: "AFG"}),
	}

	got, ok := FromEqls(eqls)
	assert.True(t, ok)
	in, ok := got.(In)
	assert.True(t, ok)
	assert.Equal(t, path, in.Term)
	assert.Equal(t, []any{"NLD", "AFG"}, in.Values)
}

func TestFromEqlsRejectsMismatchedLeftHandSides(t *testing.T) {
	eqls := []Term{
		Eql(UniquePath{Path: []string{"countryCode"}}, Const{Value: "NLD"}),
		Eql(UniquePath{Path: []string{"name"}}, Const{Value: "Amsterdam"}),
	}

	_, ok := FromEqls(eqls)
	assert.False(t, ok)
}

func TestFromEqlsRejectsNonConstantRightHandSide(t *testing.T) {
	path := UniquePath{Path: []string{"countryCode"}}
	eqls := []Term{Eql(path, path)}

	_, ok := FromEqls(eqls)
	assert.False(t, ok)
}

func TestFromEqlsRejectsEmptyInput(t *testing.T) {
	_, ok := FromEqls(nil)
	assert.False(t, ok)
}
