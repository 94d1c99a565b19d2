package tools

import (
	"github.com/kvit-s/redline/internal/document"
	"github.com/kvit-s/redline/internal/store"
)

// Context is the snapshot a tool call executes against: the document at the
// moment of dispatch and the suggestion state alongside it. Tools treat both
// as read-only.
type Context struct {
	Doc   *document.Snapshot
	Store store.State
}

// ContextProvider builds a fresh Context immediately before each call. The
// executor never caches contexts across calls: the document may have moved
// under it.
type ContextProvider func() *Context
