package inline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/callgraph"
	"github.com/roach88/extcheck/internal/diag"
	tu "github.com/roach88/extcheck/internal/testutil"
)

func expand(t *testing.T, u *ast.Unit) (*Expansion, *diag.Collector) {
	t.Helper()
	b := callgraph.NewBuilder()
	for _, fn := range u.Funcs {
		b.AddFunction(fn)
	}
	g, err := b.Build()
	require.NoError(t, err)

	diags := diag.NewCollector()
	before := ast.Sprint(u)
	exp := Expand(u, g, diags)
	require.Equal(t, before, ast.Sprint(u), "input unit must not be modified")
	return exp, diags
}

func TestExpand_ReturnsAddressOfLocal(t *testing.T) {
	// the use-after-scope is not diagnosed; the local just gets a fresh name
	u := tu.Unit("ub", nil,
		tu.Always("int*", "bar", nil,
			tu.Decl("int", "local", tu.Int(42)),
			tu.Return(tu.Addr(tu.Id("local"))),
		),
		tu.Plain("int", "foo", nil,
			tu.Decl("int*", "p", tu.Call("bar")),
			tu.Return(tu.Int(0)),
		),
	)
	exp, diags := expand(t, u)
	assert.Zero(t, diags.Len())
	assert.Equal(t, 1, exp.Splices)

	want := `// unit ub

int foo() {
  int* p = __splice(bar @ 9:5, bar.exit.1) {
    int bar.local.1 = 42;
    int* bar.return.1 = &bar.local.1;
  } -> bar.return.1;
  return 0;
}
`
	assert.Equal(t, want, ast.Sprint(exp.Unit))
	require.Len(t, exp.Always, 1)
	assert.Equal(t, "bar", exp.Always[0].Name)
}

func TestExpand_StructuredReturns(t *testing.T) {
	u := tu.Unit("ret", nil,
		tu.Always("int", "clamp", tu.P("int", "v"),
			tu.If(tu.Bin("<", tu.Id("v"), tu.Int(0)), tu.Block(tu.Return(tu.Int(0))), nil),
			tu.Return(tu.Id("v")),
		),
		tu.Plain("void", "use", tu.P("int", "a"),
			tu.Do(tu.Call("clamp", tu.Id("a"))),
			tu.Decl("int", "r", tu.Call("clamp", tu.Bin("+", tu.Id("a"), tu.Int(1)))),
		),
	)
	exp, diags := expand(t, u)
	assert.Zero(t, diags.Len())

	want := `// unit ret

void use(int a) {
  __splice(clamp @ 11:3, clamp.exit.1) {
    int clamp.v.1 = a;
    if (clamp.v.1 < 0) {
      0;
      __leave clamp.exit.1;
    }
    clamp.v.1;
    __leave clamp.exit.1;
  };
  int r = __splice(clamp @ 12:5, clamp.exit.2) {
    int clamp.v.2 = a + 1;
    int clamp.return.2;
    if (clamp.v.2 < 0) {
      clamp.return.2 = 0;
      __leave clamp.exit.2;
    }
    clamp.return.2 = clamp.v.2;
    __leave clamp.exit.2;
  } -> clamp.return.2;
}
`
	assert.Equal(t, want, ast.Sprint(exp.Unit))
}

func TestExpand_ArgumentsInOrder(t *testing.T) {
	u := tu.Unit("args", nil,
		tu.Always("int", "sub", tu.P("int", "a", "int", "b"), tu.Return(tu.Bin("-", tu.Id("a"), tu.Id("b")))),
		tu.Plain("int", "main", nil, tu.Return(tu.Call("sub", tu.Call("f"), tu.Call("g")))),
	)
	exp, _ := expand(t, u)

	want := `// unit args

int main() {
  return __splice(sub @ 8:4, sub.exit.1) {
    int sub.a.1 = f();
    int sub.b.1 = g();
    int sub.return.1 = sub.a.1 - sub.b.1;
  } -> sub.return.1;
}
`
	assert.Equal(t, want, ast.Sprint(exp.Unit))
}

func TestExpand_NestedSourceLocation(t *testing.T) {
	u := tu.Unit("nest", nil,
		tu.Always("int", "where", nil, tu.Return(tu.Here())),
		tu.Always("int", "outer", nil, tu.Return(tu.Call("where"))),
		tu.Plain("int", "main", nil, tu.Return(tu.Call("outer"))),
	)
	exp, diags := expand(t, u)
	assert.Zero(t, diags.Len())
	assert.Equal(t, 2, exp.Splices)

	want := `// unit nest

int main() {
  return __splice(outer @ 12:4, outer.exit.2) {
    int outer.return.2 = __splice(where @ 8:4, where.exit.1) {
      int where.return.1 = __source_location(12:4);
    } -> where.return.1;
  } -> outer.return.2;
}
`
	assert.Equal(t, want, ast.Sprint(exp.Unit))

	var locs []*ast.SourceLocExpr
	ast.Inspect(exp.Unit.Funcs[0], func(n ast.Node) bool {
		if loc, ok := n.(*ast.SourceLocExpr); ok {
			locs = append(locs, loc)
		}
		return true
	})
	require.Len(t, locs, 1)
	assert.Equal(t, 4, locs[0].Pos.Line, "original definition site is kept")
	require.Len(t, locs[0].Chain, 2)
	assert.Equal(t, 8, locs[0].Chain[0].Line, "innermost splice first")
	assert.Equal(t, 12, locs[0].Chain[1].Line)

	// the always bodies are expanded too, for validation
	require.Len(t, exp.Always, 2)
	assert.Contains(t, ast.Sprint(&ast.Unit{Funcs: exp.Always[1:]}), "__source_location(8:4)")
}

func TestExpand_NoResidualCalls(t *testing.T) {
	u := tu.Unit("residual", nil,
		tu.Always("int", "a", tu.P("int", "x"), tu.Return(tu.Bin("+", tu.Call("b", tu.Id("x")), tu.Call("b", tu.Int(1))))),
		tu.Always("int", "b", tu.P("int", "y"), tu.Return(tu.Bin("*", tu.Id("y"), tu.Int(2)))),
		tu.Plain("int", "main", nil,
			tu.Decl("int", "x", tu.Call("a", tu.Int(3))),
			tu.While(tu.Id("x"), tu.Block(tu.Set(tu.Id("x"), tu.Call("a", tu.Id("x"))))),
			tu.Return(tu.Call("b", tu.Id("x"))),
		),
	)
	exp, diags := expand(t, u)
	assert.Zero(t, diags.Len())
	assert.Equal(t, 5, exp.Splices)

	require.Len(t, exp.Unit.Funcs, 1)
	ast.Inspect(exp.Unit.Funcs[0], func(n ast.Node) bool {
		if c, ok := n.(*ast.CallExpr); ok {
			id, _ := c.Callee()
			assert.NotContains(t, []string{"a", "b"}, id.Name, "residual call at %s", c.Pos)
		}
		return true
	})
	assert.Nil(t, exp.Unit.Func("a"))
	assert.Nil(t, exp.Unit.Func("b"))
}

func TestExpand_FreeReferencesAreQualified(t *testing.T) {
	u := tu.Unit("capture", []*ast.GlobalDecl{tu.Global("int", "g", tu.Int(1))},
		tu.Always("int", "get", nil, tu.Return(tu.Id("g"))),
		tu.Plain("int", "main", nil,
			tu.Decl("int", "g", tu.Int(5)),
			tu.Return(tu.Call("get")),
		),
	)
	exp, _ := expand(t, u)
	assert.Contains(t, ast.Sprint(exp.Unit), "int get.return.1 = ::g;")
}

func TestExpand_ShadowAndUndeclareInsideCallee(t *testing.T) {
	u := tu.Unit("scoped", nil,
		tu.Always("int", "twice", tu.P("int", "x"),
			tu.Shadow("int", "x", tu.Bin("*", tu.Id("x"), tu.Int(2))),
			tu.Decl("int", "t", tu.Id("x")),
			tu.Undeclare("x"),
			tu.Return(tu.Id("t")),
		),
		tu.Plain("int", "main", nil, tu.Return(tu.Call("twice", tu.Int(4)))),
	)
	exp, _ := expand(t, u)

	out := ast.Sprint(exp.Unit)
	assert.Contains(t, out, "int twice.x.1 = 4;")
	assert.Contains(t, out, "__shadow int twice.x.1 = twice.x.1 * 2;")
	assert.Contains(t, out, "int twice.t.1 = twice.x.1;")
	assert.Contains(t, out, "__undeclare twice.x.1;")
	assert.Contains(t, out, "int twice.return.1 = twice.t.1;")
}

func TestExpand_MixedShadowIsSplit(t *testing.T) {
	u := tu.Unit("mixed", []*ast.GlobalDecl{tu.Global("int", "g", tu.Int(7))},
		tu.Always("int", "f", tu.P("int", "a"),
			tu.ShadowN("int", tu.V("a", tu.Bin("+", tu.Id("a"), tu.Int(1))), tu.V("g", tu.Int(2))),
			tu.Return(tu.Bin("+", tu.Id("a"), tu.Id("g"))),
		),
		tu.Plain("int", "main", nil, tu.Return(tu.Call("f", tu.Int(3)))),
	)
	exp, diags := expand(t, u)
	assert.Zero(t, diags.Len())

	out := ast.Sprint(exp.Unit)
	assert.Contains(t, out, "int f.a.1 = 3;")
	assert.Contains(t, out, "__shadow int f.a.1 = f.a.1 + 1;\n")
	assert.Contains(t, out, "\n    int f.g.1 = 2;\n")
	assert.Contains(t, out, "int f.return.1 = f.a.1 + f.g.1;")
	assert.NotContains(t, out, "int f.a.1 = f.a.1 + 1")
}

func TestExpand_UndeclaredLocalHidesAlwaysFunction(t *testing.T) {
	u := tu.Unit("hidden", nil,
		tu.Always("int", "f", nil, tu.Return(tu.Int(1))),
		tu.Plain("int", "main", nil,
			tu.Decl("int", "f", tu.Int(0)),
			tu.Undeclare("f"),
			tu.Do(tu.Id("f")),
			tu.Return(tu.Call("f")),
		),
	)
	exp, diags := expand(t, u)
	assert.Zero(t, diags.Len(), "the undeclared slot is not the always-inline function")
	assert.Zero(t, exp.Splices)
	assert.Contains(t, ast.Sprint(exp.Unit), "return f();")
}

func TestExpand_AddressOfAlwaysFunction(t *testing.T) {
	u := tu.Unit("addr", []*ast.GlobalDecl{tu.Global("fnptr", "gp", tu.Id("f"))},
		tu.Always("void", "f", nil),
		tu.Plain("void", "g", nil,
			tu.Decl("fnptr", "p", tu.Addr(tu.Id("f"))),
			tu.Do(tu.Call("h", tu.Id("f"))),
			tu.Do(tu.Call("f")),
		),
		tu.Plain("void", "k", tu.P("fnptr", "f"), tu.Do(tu.Call("f")), tu.Do(tu.Id("f"))),
	)
	exp, diags := expand(t, u)

	errs := diags.Errors()
	require.Len(t, errs, 3)
	for _, d := range errs {
		assert.Equal(t, diag.AddressOfInlineAlways, d.Kind)
		require.Len(t, d.Related, 1)
		assert.Equal(t, u.Funcs[0].Pos, d.Related[0].Pos)
	}
	assert.Equal(t, 2, errs[0].Pos.Line, "global initializer")
	assert.Equal(t, 8, errs[1].Pos.Line)
	assert.Equal(t, 9, errs[2].Pos.Line)

	// the parameter f of k is a local, so k is untouched
	assert.Contains(t, ast.Sprint(exp.Unit), "void k(fnptr f) {\n  f();\n  f;\n}")
}

func TestExpand_InvalidCall(t *testing.T) {
	u := tu.Unit("arity", nil,
		tu.Always("int", "one", tu.P("int", "a"), tu.Return(tu.Id("a"))),
		tu.Plain("int", "main", nil, tu.Return(tu.Call("one"))),
	)
	_, diags := expand(t, u)

	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diag.InvalidCall, errs[0].Kind)
	assert.Contains(t, errs[0].Message, "has 0 arguments, want 1")
}

func TestExpand_VoidCallee(t *testing.T) {
	u := tu.Unit("void", nil,
		tu.Always("void", "tick", nil, tu.Do(tu.Call("log")), tu.Return(nil)),
		tu.Plain("void", "main", nil, tu.Do(tu.Call("tick"))),
	)
	exp, _ := expand(t, u)

	want := `// unit void

void main() {
  __splice(tick @ 9:3, tick.exit.1) {
    ::log();
  };
}
`
	assert.Equal(t, want, ast.Sprint(exp.Unit))
}
