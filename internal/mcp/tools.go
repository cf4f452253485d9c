package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listProductsTool = mcp.NewTool("list_products",
	mcp.WithDescription("List the products of the page gallery with their names, photo counts and image sources."),
)

var listTextsTool = mcp.NewTool("list_texts",
	mcp.WithDescription("List the editable text elements of the page with their ids and current content."),
)

var setTextTool = mcp.NewTool("set_text",
	mcp.WithDescription("Replace the content of an editable text element. Markup is sanitized before it is applied."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Element id as returned by list_texts"),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("New content"),
	),
	mcp.WithString("format",
		mcp.Description("How content is interpreted (default html)"),
		mcp.Enum("html", "markdown"),
	),
)

var deleteTextTool = mcp.NewTool("delete_text",
	mcp.WithDescription("Delete an editable text block from the page. Text inside product photos cannot be deleted."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Element id as returned by list_texts"),
	),
	mcp.WithBoolean("confirm",
		mcp.Required(),
		mcp.Description("Must be true; deletion cannot be undone"),
	),
)

var listSectionsTool = mcp.NewTool("list_sections",
	mcp.WithDescription("List the sections of the page with their titles and the number of products each holds."),
)

var deleteSectionTool = mcp.NewTool("delete_section",
	mcp.WithDescription("Delete a whole section of the page, including any products inside it."),
	mcp.WithNumber("section",
		mcp.Required(),
		mcp.Description("Zero-based section index as returned by list_sections"),
	),
	mcp.WithBoolean("confirm",
		mcp.Required(),
		mcp.Description("Must be true; deletion cannot be undone"),
	),
)

var setProductNameTool = mcp.NewTool("set_product_name",
	mcp.WithDescription("Rename a product."),
	mcp.WithNumber("product",
		mcp.Required(),
		mcp.Description("Zero-based product index"),
	),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("New product name"),
	),
)

var addProductTool = mcp.NewTool("add_product",
	mcp.WithDescription("Append a product with one empty photo to the gallery."),
	mcp.WithString("name",
		mcp.Description("Product name (default: numbered placeholder)"),
	),
)

var addPhotoTool = mcp.NewTool("add_photo",
	mcp.WithDescription("Append an empty photo slot to a product carousel and show it."),
	mcp.WithNumber("product",
		mcp.Required(),
		mcp.Description("Zero-based product index"),
	),
)

var deletePhotoTool = mcp.NewTool("delete_photo",
	mcp.WithDescription("Delete a photo from a product carousel. Deleting the last photo leaves an empty slot."),
	mcp.WithNumber("product",
		mcp.Required(),
		mcp.Description("Zero-based product index"),
	),
	mcp.WithNumber("photo",
		mcp.Required(),
		mcp.Description("Zero-based photo index"),
	),
	mcp.WithBoolean("confirm",
		mcp.Required(),
		mcp.Description("Must be true; deletion cannot be undone"),
	),
)

var navigateTool = mcp.NewTool("navigate",
	mcp.WithDescription("Move a product carousel to another photo."),
	mcp.WithNumber("product",
		mcp.Required(),
		mcp.Description("Zero-based product index"),
	),
	mcp.WithString("action",
		mcp.Required(),
		mcp.Description("Navigation action"),
		mcp.Enum("prev", "next", "goto"),
	),
	mcp.WithNumber("index",
		mcp.Description("Target photo for goto"),
	),
)

var scalePhotoTool = mcp.NewTool("scale_photo",
	mcp.WithDescription("Zoom a product photo in or out by a number of percentage points."),
	mcp.WithNumber("product",
		mcp.Required(),
		mcp.Description("Zero-based product index"),
	),
	mcp.WithNumber("photo",
		mcp.Required(),
		mcp.Description("Zero-based photo index"),
	),
	mcp.WithNumber("delta",
		mcp.Required(),
		mcp.Description("Percentage points to add, negative to zoom out"),
	),
)

var savePageTool = mcp.NewTool("save_page",
	mcp.WithDescription("Write the standalone page, with all editor markup removed, to the output directory."),
)
