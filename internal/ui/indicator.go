// Package ui renders the small host-page widgets shown next to matched posts.
package ui

import (
	"golang.org/x/net/html"

	"github.com/jonathan/snappy-feed/internal/dom"
)

// IndicatorClass marks the container element of a loading indicator.
const IndicatorClass = "snappy-loading"

const spinKeyframes = `@keyframes spin { 0% { transform: rotate(0deg); } 100% { transform: rotate(360deg); } }`

const indicatorMarkup = `<div class="` + IndicatorClass + `" style="position: relative; width: 20px; height: 20px;">` +
	`<div style="position: absolute; width: 100%; height: 100%; border: 2px solid #f3f3f3; border-top: 2px solid #3498db; border-radius: 50%; animation: spin 1s linear infinite;"></div>` +
	`</div>`

// LoadingIndicator returns the spinner markup, keyframes included.
func LoadingIndicator() string {
	return `<style>` + spinKeyframes + `</style>` + indicatorMarkup
}

// InsertLoadingIndicator appends a spinner to parent and returns its
// container element. Observers of doc see the insertion like any other.
func InsertLoadingIndicator(doc *dom.Document, parent *html.Node) (*html.Node, error) {
	nodes, err := doc.AppendHTML(parent, LoadingIndicator())
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if class, _ := dom.Attr(n, "class"); dom.IsElement(n) && class == IndicatorClass {
			return n, nil
		}
	}
	return nil, nil
}
