package jira

import "strings"

// Document is a minimal Atlassian Document Format node tree.
// API v3 rejects plain strings for comment bodies.
type Document struct {
	Type    string `json:"type"`
	Version int    `json:"version,omitempty"`
	Content []Node `json:"content"`
}

type Node struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Content []Node `json:"content,omitempty"`
}

// TextDocument turns text into a document with one paragraph per non-blank line
func TextDocument(text string) *Document {
	doc := &Document{Type: "doc", Version: 1, Content: []Node{}}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc.Content = append(doc.Content, Node{
			Type:    "paragraph",
			Content: []Node{{Type: "text", Text: line}},
		})
	}
	return doc
}
