package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftdcunwind/errs"
)

func nested() Document {
	return NewDocument(
		F("host", String("db1")),
		F("a", Doc(NewDocument(
			F("before", Int64(1)),
			F("b", Doc(NewDocument(F("c", String("chunk"))))),
			F("after", Int64(2)),
		))),
		F("list", Array(
			Doc(NewDocument(F("x", Int64(10)))),
			Doc(NewDocument(F("x", Int64(20)))),
		)),
	)
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("a.b.c")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, p.Segments())
	require.Equal(t, "a.b.c", p.String())
	require.Equal(t, 3, p.Len())

	for _, bad := range []string{"", ".", "a..b", "a."} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParsePath(bad)
			require.ErrorIs(t, err, errs.ErrInvalidPath)
		})
	}

	require.Panics(t, func() { MustParsePath("") })
	require.True(t, Path{}.IsZero())
}

func TestLookup(t *testing.T) {
	d := nested()

	tests := []struct {
		path string
		want Value
		pos  Positions
		ok   bool
	}{
		{path: "host", want: String("db1"), pos: Positions{0}, ok: true},
		{path: "a.b.c", want: String("chunk"), pos: Positions{1, 1, 0}, ok: true},
		{path: "list.1.x", want: Int64(20), pos: Positions{2, 1, 0}, ok: true},
		{path: "a.missing", ok: false},
		{path: "host.x", ok: false},
		{path: "list.2.x", ok: false},
		{path: "list.-1", ok: false},
		{path: "list.x", ok: false},
		{path: "a.0", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, pos, ok := Lookup(d, MustParsePath(tt.path))
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			require.True(t, tt.want.Equal(got), "got %v", got)
			require.Equal(t, tt.pos, pos)
		})
	}
}

func TestLookup_ZeroPath(t *testing.T) {
	_, _, ok := Lookup(nested(), Path{})
	require.False(t, ok)
}

func TestSetAt_PreservesSiblings(t *testing.T) {
	d := nested()
	_, pos, ok := Lookup(d, MustParsePath("a.b.c"))
	require.True(t, ok)

	sample := Doc(NewDocument(F("start", Int64(5))))
	out := d.SetAt(pos, sample)

	// original untouched
	orig, _, _ := Lookup(d, MustParsePath("a.b.c"))
	require.True(t, String("chunk").Equal(orig))

	got, _, ok := Lookup(out, MustParsePath("a.b.c"))
	require.True(t, ok)
	require.True(t, sample.Equal(got))

	require.Equal(t, d.Names(), out.Names())
	require.True(t, d.Get("host").Equal(out.Get("host")))
	require.True(t, d.Get("list").Equal(out.Get("list")))

	inner, _ := out.Get("a").Document()
	require.Equal(t, []string{"before", "b", "after"}, inner.Names())
	require.True(t, inner.Get("after").Equal(Int64(2)))
}

func TestSetAt_ThroughArray(t *testing.T) {
	d := nested()
	_, pos, ok := Lookup(d, MustParsePath("list.0.x"))
	require.True(t, ok)

	out := d.SetAt(pos, Int64(99))

	got, _, _ := Lookup(out, MustParsePath("list.0.x"))
	require.True(t, Int64(99).Equal(got))
	untouched, _, _ := Lookup(out, MustParsePath("list.1.x"))
	require.True(t, Int64(20).Equal(untouched))

	orig, _, _ := Lookup(d, MustParsePath("list.0.x"))
	require.True(t, Int64(10).Equal(orig))
}

func TestSetAt_InvalidChain(t *testing.T) {
	d := nested()
	require.Panics(t, func() { d.SetAt(nil, Null()) })
	require.Panics(t, func() { d.SetAt(Positions{0, 0}, Null()) })
}
