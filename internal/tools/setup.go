package tools

// RequiredTools names the tools every review session needs registered.
var RequiredTools = []string{
	"highlight_text",
	"get_line_content",
	"get_document_stats",
	"finish_review",
}

// DefaultRegistry returns a registry holding the four review tools.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewHighlightTextTool())
	r.Register(NewGetLineContentTool())
	r.Register(NewGetDocumentStatsTool())
	r.Register(NewFinishReviewTool())
	return r
}
