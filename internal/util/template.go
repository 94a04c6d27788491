package util

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"
)

// RenderTemplate replaces template variables using Go's text/template package.
// Referencing a variable that is absent from state is an error.
// This lives in internal to avoid committing to public API stability prematurely.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := newTemplate(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// TemplateVariables returns the sorted, de-duplicated top-level field names
// referenced by text (e.g. "input" for {{.input}} or {{$.input}}). Fields
// inside {{with}} and {{range}} bodies are relative to the new dot and are
// not reported.
func TemplateVariables(text string) ([]string, error) {
	tmpl, err := newTemplate(text)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	if tmpl.Tree != nil {
		walk(tmpl.Root, false, seen)
	}

	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	return vars, nil
}

// walk collects root fields. rebound is set while dot no longer refers to
// the template data.
func walk(node parse.Node, rebound bool, seen map[string]struct{}) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			walk(c, rebound, seen)
		}
	case *parse.ActionNode:
		walk(n.Pipe, rebound, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			walk(cmd, rebound, seen)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			walk(arg, rebound, seen)
		}
	case *parse.FieldNode:
		if !rebound && len(n.Ident) > 0 {
			seen[n.Ident[0]] = struct{}{}
		}
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			seen[n.Ident[1]] = struct{}{}
		}
	case *parse.IfNode:
		walkBranch(&n.BranchNode, rebound, rebound, seen)
	case *parse.RangeNode:
		walkBranch(&n.BranchNode, rebound, true, seen)
	case *parse.WithNode:
		walkBranch(&n.BranchNode, rebound, true, seen)
	}
}

// walkBranch walks the pipeline and else list in the enclosing scope and the
// body with bodyRebound.
func walkBranch(b *parse.BranchNode, rebound, bodyRebound bool, seen map[string]struct{}) {
	walk(b.Pipe, rebound, seen)
	walk(b.List, bodyRebound, seen)
	if b.ElseList != nil {
		walk(b.ElseList, rebound, seen)
	}
}

func newTemplate(text string) (*template.Template, error) {
	return template.New("prompt").Option("missingkey=error").Funcs(template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
		"trim": strings.TrimSpace,
		"quote": func(v any) string {
			return fmt.Sprintf("%q", v)
		},
	}).Parse(text)
}
