package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ilpatch/internal/patch/patchtest"
	"ilpatch/internal/ui/colorize"
)

const (
	mscorlibInt = "System.Int32, mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089"
	genericList = "System.Collections.Generic.List`1[[System.Int32, mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089]], mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		raw  bool
		want string
	}{
		{"plain", mscorlibInt, false, "System.Int32"},
		{"plain raw", mscorlibInt, true, "System.Int32, mscorlib"},
		{"generic", genericList, false, "System.Collections.Generic.List`1[[System.Int32, mscorlib]]"},
		{"generic raw", genericList, true, "System.Collections.Generic.List`1[[System.Int32, mscorlib]], mscorlib"},
		{"null token", "Game.Player, Assembly-CSharp, Version=0.0.0.0, Culture=neutral, PublicKeyToken=null", false, "Game.Player"},
		{"hyphenated culture", "A.B, lib, Culture=zh-CN", true, "A.B, lib"},
		{"array without assembly", "System.Byte[]", false, "System.Byte[]"},
		{"bare name", "Foo", false, "Foo"},
		{"padded", "  Foo  , bar", false, "Foo"},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		mscorlibInt,
		genericList,
		"X, Ver, Version=1.0sion=2.0",
		"Outer`1[[Inner`1[[A, a]], b]], c, PublicKeyToken=abc",
		", , ,",
		"]],[",
	}
	for _, in := range inputs {
		for _, raw := range []bool{false, true} {
			once := Normalize(in, raw)
			assert.Equal(t, once, Normalize(once, raw), "input %q raw=%v", in, raw)
		}
	}
}

func TestResolver_Names(t *testing.T) {
	r := New(patchtest.Sample(), Options{Palette: colorize.Plain()})

	assert.Equal(t, "Game.Player", r.TypeName(3))
	assert.Equal(t, "UnknownType(99)", r.TypeName(99))
	assert.Equal(t, "UnknownType(-1)", r.TypeName(-1))
	assert.Equal(t, "System.Int32, System.String", r.TypeList([]int32{1, 2}))
	assert.Equal(t, "", r.TypeList(nil))

	assert.Equal(t, "Game.Player::get_Hp", r.MethodRef(0, 0))
	assert.Equal(t, "System.Collections.Generic.List`1[[System.Int32, mscorlib]]::Add<System.Int32>", r.MethodRef(2, 2))
	assert.Equal(t, "method_8 (args=2)", r.MethodRef(8, 2))
	assert.Equal(t, "method_-3 (args=0)", r.MethodRef(-3, 0))

	assert.Equal(t, "Game.Player::shield", r.FieldRef(1))
	assert.Equal(t, "field_5", r.FieldRef(5))

	assert.Equal(t, `"hello patch"`, r.StringLiteral(0))
	assert.Equal(t, `"str_3"`, r.StringLiteral(3))
}

func TestResolver_RawKeepsAssembly(t *testing.T) {
	r := New(patchtest.Sample(), Options{Raw: true})
	assert.True(t, r.Raw())
	assert.Equal(t, "Game.Player, Assembly-CSharp", r.TypeName(3))
}

func TestResolver_PatchTarget(t *testing.T) {
	r := New(patchtest.Sample(), Options{})

	name, ok := r.PatchTarget(1)
	assert.True(t, ok)
	assert.Equal(t, "Game.Player::Greet", name)

	_, ok = r.PatchTarget(7)
	assert.False(t, ok)
}

func TestResolver_Colored(t *testing.T) {
	r := New(patchtest.Sample(), Options{Palette: colorize.NewPalette(true)})
	got := r.FieldRef(0)
	assert.Equal(t, "Game.Player::hp", colorize.StripANSI(got))
}
