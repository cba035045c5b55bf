package compiler

import (
	"testing"

	"github.com/ascwasm/ascc/ast"
)

func TestCommonType(t *testing.T) {
	cases := []struct {
		name     string
		a, b     *ast.Type
		wantKind ast.Kind
		wantOk   bool
	}{
		{"same kind", ast.I32, ast.I32, ast.KindI32, true},
		{"widen i8 to i32", ast.I8, ast.I32, ast.KindI32, true},
		{"widen i32 to i64", ast.I32, ast.I64, ast.KindI64, true},
		{"int and float promotes to float", ast.I32, ast.F32, ast.KindF32, true},
		{"f32 and f64 widens to f64", ast.F32, ast.F64, ast.KindF64, true},
		{"bool and i32 widens to i32", ast.Bool, ast.I32, ast.KindI32, true},
		{"void has no common type", ast.I32, ast.Void, 0, false},
		{"class has no common type", &ast.Type{Kind: ast.KindClass}, ast.I32, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := commonType(c.a, c.b)
			if ok != c.wantOk {
				t.Fatalf("commonType(%v, %v) ok = %v, want %v", c.a, c.b, ok, c.wantOk)
			}
			if ok && got.Kind != c.wantKind {
				t.Fatalf("commonType(%v, %v) = %v, want kind %v", c.a, c.b, got, c.wantKind)
			}
		})
	}
}

func TestIntegerRank(t *testing.T) {
	if integerRank(ast.I8) >= integerRank(ast.I32) {
		t.Fatalf("expected i8 to rank below i32")
	}
	if integerRank(ast.I32) >= integerRank(ast.I64) {
		t.Fatalf("expected i32 to rank below i64")
	}
	if integerRank(ast.Bool) >= integerRank(ast.I8) {
		t.Fatalf("expected bool to rank below i8")
	}
}

func TestConvertSameNativeRepresentationIsNoop(t *testing.T) {
	c := &Compiler{target: &ast.Target{PointerBits: 32}}
	out := c.convert(ast.I32, ast.U32, true, nil)
	if len(out) != 0 {
		t.Fatalf("expected no instructions converting between same-width integer kinds, got %d", len(out))
	}
}
