// Package irjson is a placeholder loader that decodes a JSON
// description of a function's CFG into internal/ir structures. The
// real upstream lifter (reading bitcode, a disassembler's IL, or
// whatever compiled artifact the binary came from) is explicitly out
// of scope; this package exists only so cmd/reconstructor has
// something runnable to demonstrate the pipeline end to end, and so
// the pipeline's tests can build fixtures without hand-constructing
// ir.Function graphs node by node.
package irjson

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"recondition/internal/ir"
)

type moduleJSON struct {
	Name      string         `json:"name"`
	Functions []functionJSON `json:"functions"`
}

type functionJSON struct {
	Name       string      `json:"name"`
	Params     []paramJSON `json:"params"`
	ReturnType string      `json:"returnType"`
	Blocks     []blockJSON `json:"blocks"`
}

type paramJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type blockJSON struct {
	ID           int           `json:"id"`
	Label        string        `json:"label"`
	Instructions []instrJSON   `json:"instructions"`
	Terminator   terminatorJSON `json:"terminator"`
}

type instrJSON struct {
	Op     string        `json:"op"` // "phi" | "const" | "unary" | "binary" | "load" | "store" | "call"
	Res    string        `json:"res,omitempty"`
	Type   string        `json:"type,omitempty"`
	Value  interface{}   `json:"value,omitempty"` // const
	UnOp   string        `json:"unop,omitempty"`
	BinOp  string        `json:"binop,omitempty"`
	X      string        `json:"x,omitempty"`
	L      string        `json:"l,omitempty"`
	R      string        `json:"r,omitempty"`
	Addr   string        `json:"addr,omitempty"`
	Val    string        `json:"val,omitempty"`
	Callee string        `json:"callee,omitempty"`
	Args   []string      `json:"args,omitempty"`
	Inputs []phiInputJSON `json:"inputs,omitempty"` // phi
}

type phiInputJSON struct {
	From string `json:"from"` // predecessor block label
	Val  string `json:"val"`
}

type terminatorJSON struct {
	Kind    string       `json:"kind"` // "ret" | "jump" | "condbr" | "switch" | "unreachable"
	Value   string       `json:"value,omitempty"`
	Target  string       `json:"target,omitempty"`
	Cond    string       `json:"cond,omitempty"`
	True    string       `json:"true,omitempty"`
	False   string       `json:"false,omitempty"`
	Scrut   string       `json:"scrut,omitempty"`
	Cases   []caseJSON   `json:"cases,omitempty"`
	Default string       `json:"default,omitempty"`
}

type caseJSON struct {
	Value  interface{} `json:"value"`
	Target string      `json:"target"`
}

// Decode reads a JSON-encoded module from r and builds its ir.Module.
func Decode(r io.Reader) (*ir.Module, error) {
	var mj moduleJSON
	if err := json.NewDecoder(r).Decode(&mj); err != nil {
		return nil, fmt.Errorf("irjson: decode: %w", err)
	}

	mod := &ir.Module{Name: mj.Name}
	for _, fj := range mj.Functions {
		fn, err := buildFunction(fj)
		if err != nil {
			return nil, fmt.Errorf("irjson: function %q: %w", fj.Name, err)
		}
		mod.Functions = append(mod.Functions, fn)
	}
	return mod, nil
}

// builder tracks the id counters and the named-value/label scopes
// needed to resolve forward references (a block's terminator may name
// a block defined later in the file; a phi may name a value from a
// predecessor).
type builder struct {
	nextValID int
	nextInsID int
	values    map[string]*ir.Value
	blocks    map[string]*ir.BasicBlock
}

func buildFunction(fj functionJSON) (*ir.Function, error) {
	b := &builder{values: map[string]*ir.Value{}, blocks: map[string]*ir.BasicBlock{}}

	fn := &ir.Function{Name: fj.Name}
	for _, pj := range fj.Params {
		t, err := parseType(pj.Type)
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, &ir.Param{Name: pj.Name, Type: t})
		b.values[pj.Name] = &ir.Value{ID: b.freshValID(), Name: pj.Name, Type: t}
	}
	if fj.ReturnType != "" {
		rt, err := parseType(fj.ReturnType)
		if err != nil {
			return nil, err
		}
		fn.ReturnType = rt
	} else {
		fn.ReturnType = &ir.VoidType{}
	}

	// First pass: allocate blocks and every instruction's result value,
	// so forward references (later blocks, phi inputs from blocks not
	// yet walked) always resolve.
	for _, bj := range fj.Blocks {
		blk := &ir.BasicBlock{ID: bj.ID, Label: bj.Label}
		b.blocks[bj.Label] = blk
		fn.Blocks = append(fn.Blocks, blk)
	}
	for _, bj := range fj.Blocks {
		for _, ij := range bj.Instructions {
			if ij.Res == "" {
				continue
			}
			t, err := parseType(ij.Type)
			if err != nil {
				return nil, err
			}
			b.values[ij.Res] = &ir.Value{ID: b.freshValID(), Name: ij.Res, Type: t}
		}
	}

	// Second pass: build instructions and terminators with resolved
	// operand pointers, and wire Preds/Succs from each terminator.
	for _, bj := range fj.Blocks {
		blk := b.blocks[bj.Label]
		for _, ij := range bj.Instructions {
			instr, err := b.buildInstr(ij, blk)
			if err != nil {
				return nil, fmt.Errorf("block %q: %w", bj.Label, err)
			}
			blk.Instructions = append(blk.Instructions, instr)
		}
		term, err := b.buildTerminator(bj.Terminator, blk)
		if err != nil {
			return nil, fmt.Errorf("block %q: terminator: %w", bj.Label, err)
		}
		blk.Terminator = term
	}
	for _, blk := range fn.Blocks {
		for _, succ := range blk.Terminator.Successors() {
			blk.Succs = append(blk.Succs, succ)
			succ.Preds = append(succ.Preds, blk)
		}
	}

	return fn, nil
}

func (b *builder) freshValID() int {
	b.nextValID++
	return b.nextValID
}

func (b *builder) freshInsID() int {
	b.nextInsID++
	return b.nextInsID
}

func (b *builder) val(name string) (*ir.Value, error) {
	if name == "" {
		return nil, nil
	}
	v, ok := b.values[name]
	if !ok {
		return nil, fmt.Errorf("undefined value %q", name)
	}
	return v, nil
}

func (b *builder) block(label string) (*ir.BasicBlock, error) {
	if label == "" {
		return nil, nil
	}
	blk, ok := b.blocks[label]
	if !ok {
		return nil, fmt.Errorf("undefined block %q", label)
	}
	return blk, nil
}

func (b *builder) buildInstr(ij instrJSON, blk *ir.BasicBlock) (ir.Instruction, error) {
	res, err := b.val(ij.Res)
	if err != nil {
		return nil, err
	}

	switch ij.Op {
	case "phi":
		inputs := map[*ir.BasicBlock]*ir.Value{}
		for _, in := range ij.Inputs {
			pred, err := b.block(in.From)
			if err != nil {
				return nil, err
			}
			v, err := b.val(in.Val)
			if err != nil {
				return nil, err
			}
			inputs[pred] = v
		}
		p := &ir.PhiInstr{IDVal: b.freshInsID(), Res: res, Blk: blk, Inputs: inputs}
		res.Def = p
		return p, nil
	case "const":
		c := &ir.ConstInstr{IDVal: b.freshInsID(), Res: res, Blk: blk, Value: ij.Value}
		res.Def = c
		return c, nil
	case "unary":
		x, err := b.val(ij.X)
		if err != nil {
			return nil, err
		}
		u := &ir.UnaryInstr{IDVal: b.freshInsID(), Res: res, Blk: blk, Op: ir.UnaryOp(ij.UnOp), X: x}
		res.Def = u
		return u, nil
	case "binary":
		l, err := b.val(ij.L)
		if err != nil {
			return nil, err
		}
		r, err := b.val(ij.R)
		if err != nil {
			return nil, err
		}
		bi := &ir.BinaryInstr{IDVal: b.freshInsID(), Res: res, Blk: blk, Op: ir.BinaryOp(ij.BinOp), L: l, R: r}
		res.Def = bi
		return bi, nil
	case "load":
		addr, err := b.val(ij.Addr)
		if err != nil {
			return nil, err
		}
		l := &ir.LoadInstr{IDVal: b.freshInsID(), Res: res, Blk: blk, Addr: addr}
		res.Def = l
		return l, nil
	case "store":
		addr, err := b.val(ij.Addr)
		if err != nil {
			return nil, err
		}
		val, err := b.val(ij.Val)
		if err != nil {
			return nil, err
		}
		return &ir.StoreInstr{IDVal: b.freshInsID(), Blk: blk, Addr: addr, Val: val}, nil
	case "call":
		var args []*ir.Value
		for _, a := range ij.Args {
			v, err := b.val(a)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		c := &ir.CallInstr{IDVal: b.freshInsID(), Res: res, Blk: blk, Callee: ij.Callee, Args: args}
		if res != nil {
			res.Def = c
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown instruction op %q", ij.Op)
	}
}

func (b *builder) buildTerminator(tj terminatorJSON, blk *ir.BasicBlock) (ir.Terminator, error) {
	switch tj.Kind {
	case "ret":
		v, err := b.val(tj.Value)
		if err != nil {
			return nil, err
		}
		return &ir.RetTerm{IDVal: b.freshInsID(), Blk: blk, Value: v}, nil
	case "jump":
		tgt, err := b.block(tj.Target)
		if err != nil {
			return nil, err
		}
		return &ir.JumpTerm{IDVal: b.freshInsID(), Blk: blk, Target: tgt}, nil
	case "condbr":
		cond, err := b.val(tj.Cond)
		if err != nil {
			return nil, err
		}
		t, err := b.block(tj.True)
		if err != nil {
			return nil, err
		}
		f, err := b.block(tj.False)
		if err != nil {
			return nil, err
		}
		return &ir.CondBranchTerm{IDVal: b.freshInsID(), Blk: blk, Cond: cond, True: t, False: f}, nil
	case "switch":
		scrut, err := b.val(tj.Scrut)
		if err != nil {
			return nil, err
		}
		var cases []ir.SwitchCase
		for _, cj := range tj.Cases {
			tgt, err := b.block(cj.Target)
			if err != nil {
				return nil, err
			}
			cases = append(cases, ir.SwitchCase{Value: cj.Value, Target: tgt})
		}
		def, err := b.block(tj.Default)
		if err != nil {
			return nil, err
		}
		return &ir.SwitchTerm{IDVal: b.freshInsID(), Blk: blk, Scrut: scrut, Cases: cases, Default: def}, nil
	case "unreachable":
		return &ir.UnreachableTerm{IDVal: b.freshInsID(), Blk: blk}, nil
	default:
		return nil, fmt.Errorf("unknown terminator kind %q", tj.Kind)
	}
}

// parseType parses the small surface syntax irjson fixtures use for
// types: "bool", "void", "iN"/"uN" for N-bit signed/unsigned integers,
// a trailing "*" for pointers, and a trailing "[N]" or "[]" for arrays.
func parseType(s string) (ir.Type, error) {
	if s == "" {
		return &ir.VoidType{}, nil
	}
	switch s {
	case "bool":
		return &ir.BoolType{}, nil
	case "void":
		return &ir.VoidType{}, nil
	}
	if strings.HasSuffix(s, "*") {
		elem, err := parseType(strings.TrimSuffix(s, "*"))
		if err != nil {
			return nil, err
		}
		return &ir.PointerType{Elem: elem}, nil
	}
	if idx := strings.IndexByte(s, '['); idx >= 0 && strings.HasSuffix(s, "]") {
		elem, err := parseType(s[:idx])
		if err != nil {
			return nil, err
		}
		inner := s[idx+1 : len(s)-1]
		if inner == "" {
			return &ir.ArrayType{Elem: elem, Len: -1}, nil
		}
		n, err := strconv.Atoi(inner)
		if err != nil {
			return nil, fmt.Errorf("bad array length in type %q: %w", s, err)
		}
		return &ir.ArrayType{Elem: elem, Len: n}, nil
	}
	if len(s) >= 2 && (s[0] == 'i' || s[0] == 'u') {
		bits, err := strconv.Atoi(s[1:])
		if err == nil {
			return &ir.IntType{Bits: bits, Signed: s[0] == 'i'}, nil
		}
	}
	return &ir.StructType{Name: s}, nil
}
