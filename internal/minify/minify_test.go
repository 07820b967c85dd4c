package minify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinifyJS_RemovesWhitespaceAndShortensNames(t *testing.T) {
	out, err := MinifyJS("function add(firstNumber, secondNumber) {\n  return firstNumber + secondNumber;\n}\nexport { add };")
	require.NoError(t, err)
	assert.Less(t, len(out), len("function add(firstNumber, secondNumber) {\n  return firstNumber + secondNumber;\n}\nexport { add };"))
}

func TestMinifyJS_PreservesExportedBindingName(t *testing.T) {
	out, err := MinifyJS("export const answer = 42;")
	require.NoError(t, err)
	assert.Contains(t, out, "answer")
}

func TestMinifyCSS_CollapsesWhitespace(t *testing.T) {
	out, err := MinifyCSS(".foo {\n  color: red;\n}\n")
	require.NoError(t, err)
	assert.False(t, strings.Contains(out, "\n  "))
}

func TestMinify_SyntaxErrorReturnsError(t *testing.T) {
	_, err := MinifyJS("function ( {")
	assert.Error(t, err)
}
