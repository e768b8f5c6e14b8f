package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// grammarFor picks the tree-sitter grammar by file extension.
// The javascript grammar also covers JSX.
func grammarFor(path string) *sitter.Language {
	switch filepath.Ext(path) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// ParseImports returns the module specifiers a source file refers to, in
// source order with duplicates removed. It recognizes static imports,
// re-exports, require calls, TypeScript import-require, and dynamic import().
func ParseImports(ctx context.Context, path string, content []byte) ([]string, error) {
	// New parser per call, parsers are not safe for concurrent use
	parser := sitter.NewParser()
	parser.SetLanguage(grammarFor(path))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse of %s failed: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	var specs []string
	seen := make(map[string]struct{})
	add := func(node *sitter.Node) {
		if node == nil || node.Type() != "string" {
			return
		}
		spec := stringContent(node, content)
		if spec == "" {
			return
		}
		if _, ok := seen[spec]; ok {
			return
		}
		seen[spec] = struct{}{}
		specs = append(specs, spec)
	}

	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node.Type() {
		case "import_statement":
			if src := node.ChildByFieldName("source"); src != nil {
				add(src)
			} else {
				add(firstChildOfType(node, "string"))
			}
		case "export_statement":
			add(node.ChildByFieldName("source"))
		case "import_require_clause":
			if src := node.ChildByFieldName("source"); src != nil {
				add(src)
			} else {
				add(firstChildOfType(node, "string"))
			}
		case "call_expression":
			add(callSpecifier(node, content))
		}

		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, node.NamedChild(i))
		}
	}
	return specs, nil
}

// callSpecifier returns the string argument of require("x") or import("x").
func callSpecifier(node *sitter.Node, content []byte) *sitter.Node {
	fn := node.ChildByFieldName("function")
	args := node.ChildByFieldName("arguments")
	if fn == nil || args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	switch name := fn.Content(content); {
	case fn.Type() == "import" || name == "import":
	case fn.Type() == "identifier" && name == "require":
	default:
		return nil
	}
	return args.NamedChild(0)
}

func firstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

// stringContent extracts the content from a string node.
func stringContent(node *sitter.Node, content []byte) string {
	if frag := firstChildOfType(node, "string_fragment"); frag != nil {
		return frag.Content(content)
	}
	// Fallback: strip quotes from raw content
	return strings.Trim(node.Content(content), "\"'")
}
