package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// SyntaxError locates the first unparsable region of a source.
type SyntaxError struct {
	Language string
	Line     uint32 // 1-based
	Column   uint32 // 1-based
	Node     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s syntax error at %d:%d (%s)", e.Language, e.Line, e.Column, e.Node)
}

// SyntaxChecker verifies that a source parses as JS/TS.
// Languages are keyed by hint: typescript, tsx, javascript (and aliases ts, js, jsx).
type SyntaxChecker struct {
	mu        sync.RWMutex
	languages map[string]*sitter.Language
	fallback  string
}

// NewSyntaxChecker creates a checker with the built-in tree-sitter grammars.
// TypeScript is used when no hint is given.
func NewSyntaxChecker() *SyntaxChecker {
	c := &SyntaxChecker{
		languages: make(map[string]*sitter.Language),
		fallback:  "typescript",
	}
	c.RegisterLanguage("typescript", typescript.GetLanguage())
	c.RegisterLanguage("ts", typescript.GetLanguage())
	c.RegisterLanguage("tsx", tsx.GetLanguage())
	c.RegisterLanguage("javascript", javascript.GetLanguage())
	c.RegisterLanguage("js", javascript.GetLanguage())
	c.RegisterLanguage("jsx", javascript.GetLanguage())
	return c
}

// RegisterLanguage adds or replaces the grammar used for a hint.
func (c *SyntaxChecker) RegisterLanguage(hint string, lang *sitter.Language) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.languages[strings.ToLower(hint)] = lang
}

// Check parses source with the grammar for hint and returns a *SyntaxError
// if the tree has any error or missing node.
func (c *SyntaxChecker) Check(ctx context.Context, source, hint string) error {
	name := strings.ToLower(strings.TrimSpace(hint))
	c.mu.RLock()
	lang, ok := c.languages[name]
	if !ok {
		name = c.fallback
		lang = c.languages[name]
	}
	c.mu.RUnlock()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, []byte(source))
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	se := &SyntaxError{Language: name, Line: 1, Column: 1, Node: "ERROR"}
	if n := firstErrorNode(root); n != nil {
		p := n.StartPoint()
		se.Line, se.Column, se.Node = p.Row+1, p.Column+1, n.Type()
		if n.IsMissing() {
			se.Node = "missing " + n.Type()
		}
	}
	return se
}

// firstErrorNode finds the first ERROR or MISSING node in document order.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
