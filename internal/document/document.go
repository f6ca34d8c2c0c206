// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document reads structure out of generated Markdown bodies: the
// document title and the heading outline.
// Implements: docs/ARCHITECTURE § Generation (title extraction).
package document

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one heading of a Markdown document.
type Heading struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

var parser = goldmark.New().Parser()

// Outline returns every heading in body, in document order. Headings inside
// code blocks are not headings and are skipped by the parser.
func Outline(body string) []Heading {
	src := []byte(body)
	doc := parser.Parse(text.NewReader(src))

	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		headings = append(headings, Heading{Level: h.Level, Text: inlineText(h, src)})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// Title returns the text of the first level-1 heading in body.
func Title(body string) (string, bool) {
	for _, h := range Outline(body) {
		if h.Level == 1 && h.Text != "" {
			return h.Text, true
		}
	}
	return "", false
}

// TitleOr returns Title(body), or fallback when body has no level-1 heading.
func TitleOr(body, fallback string) string {
	if t, ok := Title(body); ok {
		return t
	}
	return fallback
}

// inlineText concatenates the literal text below n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
