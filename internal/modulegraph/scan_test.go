package modulegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_StaticImportSpecifier(t *testing.T) {
	s := NewScanner()
	specs, err := s.Scan("a.js", []byte(`import { x } from "lodash";`))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "lodash", specs[0].Value)
	assert.False(t, specs[0].Dynamic)
}

func TestScan_SideEffectImportSpecifier(t *testing.T) {
	s := NewScanner()
	specs, err := s.Scan("a.js", []byte(`import "./style.css";`))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "./style.css", specs[0].Value)
}

func TestScan_ExportFromSpecifier(t *testing.T) {
	s := NewScanner()
	specs, err := s.Scan("a.js", []byte(`export * from "./utils.js";`))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "./utils.js", specs[0].Value)
}

func TestScan_DynamicImportIsMarkedDynamic(t *testing.T) {
	s := NewScanner()
	specs, err := s.Scan("a.js", []byte(`const mod = await import("./lazy.js");`))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "./lazy.js", specs[0].Value)
	assert.True(t, specs[0].Dynamic)
}

func TestScan_RequireCallSpecifier(t *testing.T) {
	s := NewScanner()
	specs, err := s.Scan("a.js", []byte(`const fs = require("fs");`))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "fs", specs[0].Value)
	assert.False(t, specs[0].Dynamic)
}

func TestScan_SpecifierInsideStringLiteralIsNotExtracted(t *testing.T) {
	s := NewScanner()
	specs, err := s.Scan("a.js", []byte(`const msg = "import x from 'not-a-real-import'";`))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestScan_TypeScriptSourceParsesWithTSGrammar(t *testing.T) {
	s := NewScanner()
	specs, err := s.Scan("a.ts", []byte("import type { Foo } from \"./types\";\nimport { bar } from \"./bar\";"))
	require.NoError(t, err)
	found := false
	for _, spec := range specs {
		if spec.Value == "./bar" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestScan_UnknownExtensionErrors(t *testing.T) {
	s := NewScanner()
	_, err := s.Scan("a.txt", []byte(`hello`))
	assert.Error(t, err)
}
