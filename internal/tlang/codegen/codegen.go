package codegen

import (
	"fmt"
	"strings"

	"github.com/travis-heavener/tpu2-sub000/internal/tlang/ast"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/scope"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/types"
)

// Error is a codegen-phase error.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

type funcMeta struct {
	label  string
	ret    types.Type
	params []types.Type
}

// Generator walks a parsed ast.Tree and emits TPU assembly text.
type Generator struct {
	tree *ast.Tree
	ctx  *Context

	text strings.Builder
	data strings.Builder

	funcs map[string]funcMeta

	scope        *scope.Scope
	bodyBaseSize int
	returnType   types.Type
	isMain       bool

	dataSeq int
}

// Generate lowers tree to a complete `.tpu` source text: a `.data`
// section (string-literal constants collected during lowering)
// followed by the `.text` section (one label per function).
func Generate(tree *ast.Tree) (string, error) {
	g := &Generator{tree: tree, ctx: NewContext(), funcs: map[string]funcMeta{}}

	prog := tree.Get(tree.Root)
	for _, ref := range prog.Children {
		fn := tree.Get(ref)
		label := fn.Name
		if label != "main" {
			label = g.ctx.NextFuncLabel()
		}
		var params []types.Type
		for _, pref := range fn.Children[:fn.NumParams] {
			params = append(params, tree.Get(pref).Type)
		}
		g.funcs[fn.Name] = funcMeta{label: label, ret: fn.Type, params: params}
	}

	for _, ref := range prog.Children {
		fn := tree.Get(ref)
		if err := g.genFunction(fn); err != nil {
			return "", err
		}
	}

	var out strings.Builder
	out.WriteString("section .data\n")
	out.WriteString(g.data.String())
	out.WriteString("section .text\n")
	out.WriteString(g.text.String())
	return out.String(), nil
}

func (g *Generator) emit(format string, args ...interface{}) {
	fmt.Fprintf(&g.text, "  "+format+"\n", args...)
}

func (g *Generator) label(name string) {
	fmt.Fprintf(&g.text, "%s:\n", name)
}

// newStringConstant records a string literal in the .data section and
// returns its label.
func (g *Generator) newStringConstant(s string) string {
	label := fmt.Sprintf("__S%d", g.dataSeq)
	g.dataSeq++
	fmt.Fprintf(&g.data, "%s strz %q\n", label, s)
	return label
}


func (g *Generator) genFunction(fn *ast.Node) error {
	meta := g.funcs[fn.Name]
	g.scope = scope.New()
	g.returnType = fn.Type
	g.isMain = fn.Name == "main"

	if !g.isMain && !fn.Type.IsVoidNonPtr() {
		if _, err := g.scope.Declare(fn.Type, scope.ReturnSlotName); err != nil {
			return &Error{Msg: err.Error()}
		}
	}
	for _, pref := range fn.Children[:fn.NumParams] {
		p := g.tree.Get(pref)
		if _, err := g.scope.Declare(p.Type, p.Name); err != nil {
			return &Error{Msg: err.Error()}
		}
	}
	if !g.isMain {
		// CALL pushed the 2-byte return address above the arguments.
		g.scope.AddPlaceholder(2)
	}
	g.bodyBaseSize = g.scope.Size()

	g.label(meta.label)
	if err := g.genBlock(g.tree.Get(fn.Body)); err != nil {
		return err
	}

	// Fallthrough exit: an implicit `return;` / `return 0;` at the end
	// of the function body.
	if g.isMain {
		g.emit("movw BX, 0")
		g.emit("movw AX, 3")
		g.emit("syscall")
		g.emit("hlt")
	} else {
		g.emit("ret")
	}
	return nil
}

// genBlock emits a `{ ... }` body, popping any locals it declared
// once every statement has run.
func (g *Generator) genBlock(block *ast.Node) error {
	sizeBefore := g.scope.Size()
	for _, ref := range block.Children {
		if err := g.genStatement(g.tree.Get(ref)); err != nil {
			return err
		}
	}
	localBytes := g.scope.Size() - sizeBefore
	for i := 0; i < localBytes; i++ {
		g.emit("pop")
	}
	g.scope.PopN(localBytes)
	return nil
}

func (g *Generator) genStatement(n *ast.Node) error {
	switch n.Kind {
	case ast.KindBlock:
		return g.genBlock(n)
	case ast.KindVarDecl:
		return g.genVarDecl(n)
	case ast.KindReturn:
		return g.genReturn(n)
	case ast.KindIf:
		return g.genIf(n)
	case ast.KindWhile:
		return g.genWhile(n)
	case ast.KindFor:
		return g.genFor(n)
	case ast.KindExprStmt:
		size, err := g.genExpr(g.tree.Get(n.Init))
		if err != nil {
			return err
		}
		g.discard(size)
		return nil
	}
	return &Error{Msg: fmt.Sprintf("codegen: unsupported statement kind %d", n.Kind)}
}

// discard pops size bytes left on the stack by an expression used in a
// void context (an expression statement, or a for-loop clause).
func (g *Generator) discard(size int) {
	for i := 0; i < size; i++ {
		g.emit("pop")
	}
	g.scope.PopN(size)
}

func (g *Generator) genVarDecl(n *ast.Node) error {
	size := n.Type.SizeBytes()
	if n.Init.Valid() {
		initSize, err := g.genExpr(g.tree.Get(n.Init))
		if err != nil {
			return err
		}
		g.reconcileWidth(initSize, size)
		// genExpr tracked the just-pushed bytes as anonymous
		// placeholders; Declare below re-adds them as a named slot, so
		// drop the anonymous bookkeeping first (the physical bytes
		// already on the real stack are untouched).
		g.scope.PopN(size)
	} else {
		g.pushZero(size)
	}
	if _, err := g.scope.Declare(n.Type, n.Name); err != nil {
		return &Error{Msg: err.Error()}
	}
	return nil
}

// pushZero pushes size zero bytes (an uninitialized declaration, or a
// caller-side return-slot reservation) without touching scope
// bookkeeping -- the caller is responsible for recording the slot.
func (g *Generator) pushZero(size int) {
	switch size {
	case 1:
		g.emit("push 0")
	case 2:
		g.emit("pushw 0")
	default:
		for i := 0; i < size; i++ {
			g.emit("push 0")
		}
	}
}

// reconcileWidth widens (push 0) or narrows (pop) a just-evaluated
// expression of width `have` to width `want`, per the size
// reconciliation rule.
func (g *Generator) reconcileWidth(have, want int) {
	if have == want {
		return
	}
	if have < want {
		for i := 0; i < want-have; i++ {
			g.emit("push 0")
			g.scope.AddPlaceholder(1)
		}
		return
	}
	for i := 0; i < have-want; i++ {
		g.emit("pop")
		g.scope.PopN(1)
	}
}

func (g *Generator) genReturn(n *ast.Node) error {
	if g.isMain {
		if n.Init.Valid() {
			size, err := g.genExpr(g.tree.Get(n.Init))
			if err != nil {
				return err
			}
			g.reconcileWidth(size, 2)
			g.emit("popw BX")
			g.scope.PopN(2)
		} else {
			g.emit("movw BX, 0")
		}
		g.unwindToBase()
		g.emit("movw AX, 3")
		g.emit("syscall")
		g.emit("hlt")
		return nil
	}

	if n.Init.Valid() {
		retSize := g.returnType.SizeBytes()
		size, err := g.genExpr(g.tree.Get(n.Init))
		if err != nil {
			return err
		}
		g.reconcileWidth(size, retSize)
		g.storeTopInto(scope.ReturnSlotName, retSize)
	}
	g.unwindToBase()
	g.emit("ret")
	return nil
}

// unwindToBase emits real pop instructions to restore SP to the level
// it held at function entry (past params/return slot), for an early
// return reached from inside nested blocks. It does not mutate scope:
// the non-taken continuation of the enclosing block still models those
// locals as live.
func (g *Generator) unwindToBase() {
	extra := g.scope.Size() - g.bodyBaseSize
	for i := 0; i < extra; i++ {
		g.emit("pop")
	}
}

// storeTopInto pops the `size` bytes currently on top of the stack into
// AL/AX, then writes them into the named variable's slot via byte-wise
// MOV through base+offset addressing (the ISA's only register-relative
// store form -- see SPEC_FULL.md §4.1). The pop must happen before the
// destination offset is computed: scope.Offset counts every live byte
// above the named slot, so computing it while the popped value is
// still modeled as live would count those bytes too and land short of
// the slot's real position.
func (g *Generator) storeTopInto(name string, size int) {
	switch size {
	case 1:
		g.emit("pop AL")
		g.scope.PopN(1)
	default:
		g.emit("popw AX")
		g.scope.PopN(2)
	}

	offset, _ := g.scope.Offset(name)
	switch size {
	case 1:
		g.emit("mov [SP-%d], AL", offset)
	default:
		g.emit("mov [SP-%d], AL", offset)
		g.emit("mov [SP-%d], AH", offset-1)
	}
}

func (g *Generator) genIf(n *ast.Node) error {
	mergeLabel := g.ctx.NextLabel()
	if err := g.genIfChain(n, mergeLabel); err != nil {
		return err
	}
	g.label(mergeLabel)
	return nil
}

// genIfChain emits one if/else-if branch and recurses down n.Next,
// sharing a single merge label across the whole chain.
func (g *Generator) genIfChain(n *ast.Node, mergeLabel string) error {
	switch n.Kind {
	case ast.KindIf, ast.KindElseIf:
		size, err := g.genExpr(g.tree.Get(n.Cond))
		if err != nil {
			return err
		}
		g.reconcileWidth(size, 1)
		g.emit("pop AL")
		g.scope.PopN(1)
		g.emit("buf AL")
		nextLabel := g.ctx.NextLabel()
		g.emit("jz %s", nextLabel)
		if err := g.genStatement(g.tree.Get(n.Body)); err != nil {
			return err
		}
		g.emit("jmp %s", mergeLabel)
		g.label(nextLabel)
		if n.Next.Valid() {
			return g.genIfChain(g.tree.Get(n.Next), mergeLabel)
		}
		return nil
	case ast.KindElse:
		return g.genStatement(g.tree.Get(n.Body))
	}
	return &Error{Msg: "codegen: malformed conditional chain"}
}

func (g *Generator) genWhile(n *ast.Node) error {
	start := g.ctx.NextLabel()
	merge := g.ctx.NextLabel()
	g.label(start)
	size, err := g.genExpr(g.tree.Get(n.Cond))
	if err != nil {
		return err
	}
	g.reconcileWidth(size, 1)
	g.emit("pop AL")
	g.scope.PopN(1)
	g.emit("buf AL")
	g.emit("jz %s", merge)
	if err := g.genStatement(g.tree.Get(n.Body)); err != nil {
		return err
	}
	g.emit("jmp %s", start)
	g.label(merge)
	return nil
}

func (g *Generator) genFor(n *ast.Node) error {
	sizeBefore := g.scope.Size()
	if n.Init.Valid() {
		init := g.tree.Get(n.Init)
		if init.Kind == ast.KindVarDecl {
			if err := g.genVarDecl(init); err != nil {
				return err
			}
		} else {
			size, err := g.genExpr(init)
			if err != nil {
				return err
			}
			g.discard(size)
		}
	}

	start := g.ctx.NextLabel()
	merge := g.ctx.NextLabel()
	g.label(start)
	if n.Cond.Valid() {
		size, err := g.genExpr(g.tree.Get(n.Cond))
		if err != nil {
			return err
		}
		g.reconcileWidth(size, 1)
		g.emit("pop AL")
		g.scope.PopN(1)
		g.emit("buf AL")
		g.emit("jz %s", merge)
	}
	if err := g.genStatement(g.tree.Get(n.Body)); err != nil {
		return err
	}
	if n.Update.Valid() {
		size, err := g.genExpr(g.tree.Get(n.Update))
		if err != nil {
			return err
		}
		g.discard(size)
	}
	g.emit("jmp %s", start)
	g.label(merge)

	localBytes := g.scope.Size() - sizeBefore
	for i := 0; i < localBytes; i++ {
		g.emit("pop")
	}
	g.scope.PopN(localBytes)
	return nil
}
