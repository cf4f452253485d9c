package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/pagedit/internal/editor"
)

func (s *Server) handleListProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	products, err := s.ed.Products()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing products: %v", err)), nil
	}
	if len(products) == 0 {
		return mcp.NewToolResultText("The page has no products."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d product(s):\n", len(products))
	for _, p := range products {
		fmt.Fprintf(&sb, "\n[%d] %s\n", p.Index, p.Name)
		fmt.Fprintf(&sb, "Photos: %d\n", p.Photos)
		for _, src := range p.Images {
			fmt.Fprintf(&sb, "Image: %s\n", shorten(src))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListTexts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	texts, err := s.ed.Texts()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing texts: %v", err)), nil
	}
	out, err := json.MarshalIndent(texts, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshaling texts: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleSetText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	switch format := request.GetString("format", "html"); format {
	case "html":
		err = s.ed.SetText(id, content)
	case "markdown":
		err = s.ed.SetMarkdown(id, content)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
	if err != nil {
		return failed("setting text", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %s.", id)), nil
}

func (s *Server) handleDeleteText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	if !request.GetBool("confirm", false) {
		return mcp.NewToolResultError("deletion not confirmed: pass confirm=true"), nil
	}
	if _, err := s.ed.DeleteText(id); err != nil {
		return failed("deleting text", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted text %s.", id)), nil
}

func (s *Server) handleListSections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sections, err := s.ed.Sections()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing sections: %v", err)), nil
	}
	if len(sections) == 0 {
		return mcp.NewToolResultText("The page has no sections."), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d section(s):\n", len(sections))
	for _, sec := range sections {
		fmt.Fprintf(&sb, "[%d] %s", sec.Index, sec.Title)
		if sec.Products > 0 {
			fmt.Fprintf(&sb, " (%d products)", sec.Products)
		}
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleDeleteSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := request.RequireInt("section")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: section"), nil
	}
	if !request.GetBool("confirm", false) {
		return mcp.NewToolResultError("deletion not confirmed: pass confirm=true"), nil
	}
	if _, err := s.ed.DeleteSection(i); err != nil {
		return failed("deleting section", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted section %d.", i)), nil
}

func (s *Server) handleSetProductName(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := request.RequireInt("product")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: product"), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	if err := s.ed.SetName(p, name); err != nil {
		return failed("renaming product", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Product %d is now %q.", p, name)), nil
}

func (s *Server) handleAddProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := s.ed.AddProduct(request.GetString("name", ""))
	if err != nil {
		return failed("adding product", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added product %d.", index)), nil
}

func (s *Server) handleAddPhoto(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := request.RequireInt("product")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: product"), nil
	}
	n, err := s.ed.AddPhoto(p)
	if err != nil {
		return failed("adding photo", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added photo %d to product %d.", n, p)), nil
}

func (s *Server) handleDeletePhoto(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := request.RequireInt("product")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: product"), nil
	}
	n, err := request.RequireInt("photo")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: photo"), nil
	}
	if !request.GetBool("confirm", false) {
		return mcp.NewToolResultError("deletion not confirmed: pass confirm=true"), nil
	}
	if _, err := s.ed.DeletePhoto(p, n); err != nil {
		return failed("deleting photo", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted photo %d of product %d.", n, p)), nil
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := request.RequireInt("product")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: product"), nil
	}
	action, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: action"), nil
	}
	st, err := s.ed.Navigate(p, editor.Nav{Action: action, Index: request.GetInt("index", 0)})
	if err != nil {
		return failed("navigating", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Product %d shows photo %d of %d.", p, st.Index, st.Count)), nil
}

func (s *Server) handleScalePhoto(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := request.RequireInt("product")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: product"), nil
	}
	n, err := request.RequireInt("photo")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: photo"), nil
	}
	delta, err := request.RequireFloat("delta")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: delta"), nil
	}
	scale, err := s.ed.Scale(editor.PhotoTarget(p, n), delta)
	if err != nil {
		return failed("scaling photo", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Photo %d of product %d is at %g%%.", n, p, scale)), nil
}

func (s *Server) handleSavePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.ed.SaveToDir(s.saveDir)
	if err != nil {
		return failed("saving page", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %s.", path)), nil
}

// failed reports err as a tool error, with a hint for lookups that missed.
func failed(action string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s: %v", action, err)
	switch {
	case errors.Is(err, editor.ErrProductNotFound), errors.Is(err, editor.ErrPhotoNotFound):
		msg += ". Call list_products to see valid indices."
	case errors.Is(err, editor.ErrTextNotFound):
		msg += ". Call list_texts to see valid ids."
	case errors.Is(err, editor.ErrSectionNotFound):
		msg += ". Call list_sections to see valid indices."
	}
	return mcp.NewToolResultError(msg)
}

// shorten keeps embedded images from flooding the agent context.
func shorten(src string) string {
	if strings.HasPrefix(src, "data:") {
		if i := strings.IndexByte(src, ','); i > 0 {
			return src[:i] + ",… (" + fmt.Sprint(len(src)-i-1) + " chars)"
		}
	}
	return src
}
