package dom

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// The helpers below read the tree without locking; call them inside
// Document.View when the document may be mutated concurrently.

// QueryAll returns the descendants of n matching selector, in document
// order. n itself is never included.
func QueryAll(n *html.Node, selector string) []*html.Node {
	if n == nil {
		return nil
	}
	return goquery.NewDocumentFromNode(n).Find(selector).Nodes
}

// QueryFirst returns the first descendant of n matching selector, or nil.
func QueryFirst(n *html.Node, selector string) *html.Node {
	if n == nil {
		return nil
	}
	sel := goquery.NewDocumentFromNode(n).Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return sel.Nodes[0]
}

// Closest returns n or its nearest ancestor matching selector, or nil.
func Closest(n *html.Node, selector string) *html.Node {
	if n == nil {
		return nil
	}
	sel := goquery.NewDocumentFromNode(n).Closest(selector)
	if sel.Length() == 0 {
		return nil
	}
	return sel.Nodes[0]
}

// Text returns the concatenated text content of n and its descendants.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	return goquery.NewDocumentFromNode(n).Text()
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	return goquery.NewDocumentFromNode(n).Attr(key)
}

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}
