package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"newsletter-agent/llm/parser"
)

const (
	ListProductDocsToolName = "list_product_documents"
	ReadProductDocToolName  = "read_product_document"
	productDocGlob          = "**/*.{pdf,md,markdown,txt,html,htm}"
)

// ReadProductDocParams defines parameters for read_product_document.
type ReadProductDocParams struct {
	FilePath string `json:"file_path" jsonschema:"description=Path of a product document returned by list_product_documents"`
	Part     int    `json:"part,omitempty" jsonschema:"description=1-based section of a long document (default 1)"`
}

// ProductDocResult carries the extracted text of one product document.
type ProductDocResult struct {
	Success  bool   `json:"success"`
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
	FilePath string `json:"file_path"`
	Pages    int    `json:"pages,omitempty"`
	Part     int    `json:"part,omitempty"`
	Parts    int    `json:"parts,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ListProductDocs lists the documents the data collection agent may read.
func (w *Workspace) ListProductDocs(directory string) ListFilesResult {
	dir := w.ProductDataDir
	if directory != "" {
		dir = w.Resolve(directory)
	}
	return w.listByPattern(dir, productDocGlob)
}

// ReadProductDoc extracts text from a product document with the local
// parsers. Long documents are returned one section at a time; part selects
// the section, starting at 1.
func (w *Workspace) ReadProductDoc(ctx context.Context, filePath string, part int) ProductDocResult {
	if strings.TrimSpace(filePath) == "" {
		return ProductDocResult{Success: false, Error: "file_path is required"}
	}
	path := w.Resolve(filePath)

	doc, err := w.parsers.ParseFile(ctx, path)
	if err != nil {
		return ProductDocResult{Success: false, FilePath: path, Error: err.Error()}
	}

	sections := parser.Sections(doc.Content, parser.DefaultSectionSize)
	if part <= 0 {
		part = 1
	}
	if len(sections) > 0 && part > len(sections) {
		return ProductDocResult{
			Success:  false,
			FilePath: path,
			Parts:    len(sections),
			Error:    fmt.Sprintf("part %d out of range, document has %d parts", part, len(sections)),
		}
	}

	res := ProductDocResult{
		Success:  true,
		Title:    doc.Title,
		FilePath: path,
	}
	if len(sections) > 0 {
		res.Content = sections[part-1]
		if len(sections) > 1 {
			res.Part, res.Parts = part, len(sections)
		}
	}
	if pages, ok := doc.Metadata["page_count"].(int); ok {
		res.Pages = pages
	}
	return res
}

// GetListProductDocsTool returns the list_product_documents tool.
func (w *Workspace) GetListProductDocsTool() tool.InvokableTool {
	return mustTool(utils.InferTool(ListProductDocsToolName,
		"List product documents (PDF, Markdown, text, HTML) recursively. Defaults to "+w.Rel(w.ProductDataDir)+".",
		func(_ context.Context, params ListFilesParams) (ListFilesResult, error) {
			return w.ListProductDocs(params.Directory), nil
		}))
}

// GetReadProductDocTool returns the read_product_document tool.
func (w *Workspace) GetReadProductDocTool() tool.InvokableTool {
	return mustTool(utils.InferTool(ReadProductDocToolName,
		"Extract the text of a product document (PDF, Markdown, text, or HTML). Long documents come in parts: when parts is set, read part 2, 3 and so on.",
		func(ctx context.Context, params ReadProductDocParams) (ProductDocResult, error) {
			return w.ReadProductDoc(ctx, params.FilePath, params.Part), nil
		}))
}
