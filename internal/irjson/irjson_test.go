package irjson_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recondition/internal/ir"
	"recondition/internal/irjson"
)

const diamondJSON = `{
  "name": "mod",
  "functions": [{
    "name": "diamond",
    "params": [{"name": "cond", "type": "bool"}],
    "returnType": "void",
    "blocks": [
      {"id": 0, "label": "entry", "terminator": {"kind": "condbr", "cond": "cond", "true": "left", "false": "right"}},
      {"id": 1, "label": "left", "terminator": {"kind": "jump", "target": "join"}},
      {"id": 2, "label": "right", "terminator": {"kind": "jump", "target": "join"}},
      {"id": 3, "label": "join", "terminator": {"kind": "ret"}}
    ]
  }]
}`

func TestDecodeBuildsFunctionGraph(t *testing.T) {
	mod, err := irjson.Decode(strings.NewReader(diamondJSON))
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)

	fn := mod.Functions[0]
	assert.Equal(t, "diamond", fn.Name)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "cond", fn.Params[0].Name)
	_, ok := fn.Params[0].Type.(*ir.BoolType)
	assert.True(t, ok)

	require.Len(t, fn.Blocks, 4)
	entry := fn.Blocks[0]
	cb, ok := entry.Terminator.(*ir.CondBranchTerm)
	require.True(t, ok)
	assert.Equal(t, "left", cb.True.Label)
	assert.Equal(t, "right", cb.False.Label)

	join := fn.Blocks[3]
	assert.Len(t, join.Preds, 2)
}

func TestDecodeResolvesPhiInputsAcrossBlocks(t *testing.T) {
	src := `{
	  "name": "mod",
	  "functions": [{
	    "name": "withphi",
	    "returnType": "i32",
	    "blocks": [
	      {"id": 0, "label": "entry", "instructions": [
	        {"op": "const", "res": "a", "type": "i32", "value": 1}
	      ], "terminator": {"kind": "jump", "target": "j"}},
	      {"id": 1, "label": "j", "instructions": [
	        {"op": "phi", "res": "p", "type": "i32", "inputs": [{"from": "entry", "val": "a"}]}
	      ], "terminator": {"kind": "ret", "value": "p"}}
	    ]
	  }]
	}`
	mod, err := irjson.Decode(strings.NewReader(src))
	require.NoError(t, err)
	fn := mod.Functions[0]
	j := fn.Blocks[1]
	phi, ok := j.Instructions[0].(*ir.PhiInstr)
	require.True(t, ok)
	require.Len(t, phi.Inputs, 1)
	for from, v := range phi.Inputs {
		assert.Equal(t, "entry", from.Label)
		assert.Equal(t, "a", v.Name)
	}
}

func TestDecodeRejectsUnknownBlockReference(t *testing.T) {
	src := `{"name":"mod","functions":[{"name":"bad","blocks":[
	  {"id":0,"label":"entry","terminator":{"kind":"jump","target":"nope"}}
	]}]}`
	_, err := irjson.Decode(strings.NewReader(src))
	assert.Error(t, err)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := irjson.Decode(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestDecodeDefaultsMissingReturnTypeToVoid(t *testing.T) {
	src := `{"name":"mod","functions":[{"name":"f","blocks":[
	  {"id":0,"label":"entry","terminator":{"kind":"ret"}}
	]}]}`
	mod, err := irjson.Decode(strings.NewReader(src))
	require.NoError(t, err)
	_, ok := mod.Functions[0].ReturnType.(*ir.VoidType)
	assert.True(t, ok)
}
