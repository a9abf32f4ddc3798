package load

import (
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/pegmatch/peg/grammar"
)

// yamlGrammar is the document structure of a YAML description. Rules are
// kept as nodes so that errors can point at them.
type yamlGrammar struct {
	Start string      `yaml:"start"`
	Rules []yaml.Node `yaml:"rules"`
}

type yamlRule struct {
	Name        string `yaml:"name"`
	Expr        string `yaml:"expr"`
	Label       string `yaml:"label"`
	Silent      bool   `yaml:"silent"`
	Atomic      bool   `yaml:"atomic"`
	Transparent bool   `yaml:"transparent"`
}

func loadYAML(name string, data []byte) (*Description, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SyntaxError{Filename: name, Msg: err.Error()}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &SyntaxError{Filename: name, Msg: "empty grammar description"}
	}

	var g yamlGrammar
	if err := doc.Decode(&g); err != nil {
		return nil, &SyntaxError{Filename: name, Msg: err.Error()}
	}
	if len(g.Rules) == 0 {
		root := doc.Content[0]
		return nil, &SyntaxError{Filename: name, Line: root.Line, Column: root.Column, Msg: "no rules defined"}
	}

	d := &Description{Start: g.Start}
	for i := range g.Rules {
		node := &g.Rules[i]
		var yr yamlRule
		if err := node.Decode(&yr); err != nil {
			return nil, &SyntaxError{Filename: name, Line: node.Line, Column: node.Column, Msg: err.Error()}
		}

		exprNode := mappingValue(node, "expr")
		if exprNode == nil || yr.Expr == "" {
			return nil, &SyntaxError{Filename: name, Line: node.Line, Column: node.Column, Msg: "rule " + yr.Name + " has no expr"}
		}
		line, column := exprNode.Line, exprNode.Column
		switch exprNode.Style {
		case yaml.DoubleQuotedStyle, yaml.SingleQuotedStyle:
			column++
		case yaml.LiteralStyle, yaml.FoldedStyle:
			line++
		}
		expr, err := parseExpression(name, yr.Expr, line, column)
		if err != nil {
			return nil, err
		}

		r := &grammar.Rule{Name: yr.Name, Expr: expr, Label: yr.Label}
		if yr.Silent {
			r.Flags |= grammar.Silent
		}
		if yr.Atomic {
			r.Flags |= grammar.Atomic
		}
		if yr.Transparent {
			r.Flags |= grammar.Transparent
		}
		d.Rules = append(d.Rules, r)
	}
	if d.Start == "" {
		d.Start = d.Rules[0].Name
	}
	return d, nil
}

// mappingValue returns the value node of key in a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
