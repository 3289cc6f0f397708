package session

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beeno/internal/types"
)

func TestUpdate_RoutesEvents(t *testing.T) {
	s := NewRollingSummarizer(DefaultWindow)

	s.Update(`import { serve } from "https://deno.land/std/http/server.ts";`)
	s.Update("const port = 8080;")
	s.Update("let counter = 0;")
	s.Update("function handler(req) { return new Response('ok'); }")
	got := s.Update(`console.log("hi");`)

	want := types.SessionSummary{
		Imports:     []string{`import { serve } from "https://deno.land/std/http/server.ts";`},
		Symbols:     []string{"port", "counter", "handler(req)"},
		SideEffects: []string{`console.log("hi");`},
		RecentIntents: []string{
			`import { serve } from "https://deno.land/std/http/server.ts";`,
			"const port = 8080;",
			"let counter = 0;",
			"function handler(req) { return new Response('ok'); }",
			`console.log("hi");`,
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_SymbolTrimming(t *testing.T) {
	tests := []struct {
		event, want string
	}{
		{"const {a, b} = obj;", "a,"},
		{"function main() {}", "main()"},
		{"let (x;", "x"},
		{"const x;", "x"},
		{"  const   padded = 1", "padded"},
	}
	for _, tt := range tests {
		s := NewRollingSummarizer(4)
		got := s.Update(tt.event)
		require.Len(t, got.Symbols, 1, tt.event)
		assert.Equal(t, tt.want, got.Symbols[0], tt.event)
		assert.Empty(t, got.SideEffects, tt.event)
	}
}

func TestUpdate_TrimsEvents(t *testing.T) {
	s := NewRollingSummarizer(4)
	got := s.Update("   import x from './x.ts';  \n")
	assert.Equal(t, []string{"import x from './x.ts';"}, got.Imports)
	assert.Equal(t, []string{"import x from './x.ts';"}, got.RecentIntents)
}

func TestUpdate_FIFOCap(t *testing.T) {
	s := NewRollingSummarizer(3)
	for i := 1; i <= 5; i++ {
		s.Update(fmt.Sprintf("doThing(%d)", i))
	}
	got := s.Current()

	assert.Equal(t, []string{"doThing(3)", "doThing(4)", "doThing(5)"}, got.SideEffects)
	assert.Equal(t, []string{"doThing(3)", "doThing(4)", "doThing(5)"}, got.RecentIntents)
	assert.Empty(t, got.Symbols)
	assert.Empty(t, got.Imports)
}

func TestUpdate_ZeroWindowKeepsNothing(t *testing.T) {
	s := NewRollingSummarizer(0)
	got := s.Update("const x = 1;")
	assert.Empty(t, got.Symbols)
	assert.Empty(t, got.RecentIntents)
}

func TestSnapshotsAreIndependent(t *testing.T) {
	s := NewRollingSummarizer(DefaultWindow)
	snap := s.Update("const a = 1;")
	snap.Symbols[0] = "mutated"

	s.Update("const b = 2;")
	assert.Equal(t, []string{"a", "b"}, s.Current().Symbols)
	assert.Equal(t, []string{"mutated"}, snap.Symbols)
}

func TestCurrentDoesNotMutate(t *testing.T) {
	s := NewRollingSummarizer(DefaultWindow)
	s.Update("x()")
	first := s.Current()
	second := s.Current()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Current changed state:\n%s", diff)
	}
}

func TestWithServer(t *testing.T) {
	s := NewRollingSummarizer(DefaultWindow)
	base := s.Update("const a = 1;")

	none := WithServer(base, types.ServerStatus{}, false)
	assert.Nil(t, none.Server)

	st := types.ServerStatus{Running: true, Port: 8080, URL: types.ServerURL(8080), Mode: "js"}
	merged := WithServer(base, st, true)
	require.NotNil(t, merged.Server)
	assert.True(t, merged.Server.Running)
	assert.Equal(t, "http://127.0.0.1:8080", *merged.Server.URL)
	assert.Equal(t, uint16(8080), *merged.Server.Port)
	assert.Equal(t, "js", merged.Server.Mode)
	assert.Nil(t, base.Server, "input summary untouched")
}
