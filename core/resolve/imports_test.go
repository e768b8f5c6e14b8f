package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImports_TypeScript(t *testing.T) {
	src := `import fs from "fs";
import { a } from './a';
import type { T } from './types';
import './side-effect';
export { b } from "./b";
export * from './c';
export const local = 1;
const d = require('./d');
import e = require('./e');
async function load() { return import('./f'); }
const notImport = foo('./g');
import { a as again } from './a';
`
	specs, err := ParseImports(context.Background(), "/repo/src/index.ts", []byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"fs", "./a", "./types", "./side-effect", "./b", "./c", "./d", "./e", "./f"},
		specs)
}

func TestParseImports_SourceOrder(t *testing.T) {
	src := "import { z } from './z';\nimport { a } from './a';\n"
	specs, err := ParseImports(context.Background(), "x.ts", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"./z", "./a"}, specs)
}

func TestParseImports_TSX(t *testing.T) {
	src := `import React from 'react';
import { Button } from './Button';
export default function App() { return <Button label="hi" />; }
`
	specs, err := ParseImports(context.Background(), "App.tsx", []byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"react", "./Button"}, specs)
}

func TestParseImports_JavaScript(t *testing.T) {
	src := `const path = require('path');
const util = require("./util");
module.exports = function () { return import('./lazy'); };
`
	specs, err := ParseImports(context.Background(), "lib/index.cjs", []byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"path", "./util", "./lazy"}, specs)
}

func TestParseImports_NoImports(t *testing.T) {
	specs, err := ParseImports(context.Background(), "empty.ts", []byte("export const x = 1;\n"))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestGrammarFor(t *testing.T) {
	assert.NotNil(t, grammarFor("a.ts"))
	assert.NotNil(t, grammarFor("a.tsx"))
	assert.NotNil(t, grammarFor("a.jsx"))
	assert.NotEqual(t, grammarFor("a.ts"), grammarFor("a.tsx"))
}

func TestResolveSpecifier(t *testing.T) {
	known := map[string]struct{}{
		"/repo/src/a.ts":          {},
		"/repo/src/b.tsx":         {},
		"/repo/src/util/index.ts": {},
		"/repo/src/data.json.ts":  {},
		"/repo/lib/c.js":          {},
		"/repo/src/esm.mts":       {},
	}
	from := "/repo/src/index.ts"

	tests := []struct {
		spec string
		want string
		ok   bool
	}{
		{"./a", "/repo/src/a.ts", true},
		{"./a.ts", "/repo/src/a.ts", true},
		{"./a.js", "/repo/src/a.ts", true},
		{"./b", "/repo/src/b.tsx", true},
		{"./util", "/repo/src/util/index.ts", true},
		{"../lib/c.js", "/repo/lib/c.js", true},
		{"./esm.mjs", "/repo/src/esm.mts", true},
		{"./a?raw", "/repo/src/a.ts", true},
		{"./missing", "", false},
		{"react", "", false},
		{"@scope/pkg", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, ok := resolveSpecifier(from, tt.spec, known, []string{".ts", ".tsx", ".js"})
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
