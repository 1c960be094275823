package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askTool defines the ask MCP tool.
var askTool = mcp.NewTool("ask",
	mcp.WithDescription("Answer a question from the indexed textbooks. Picks the relevant subjects, retrieves matching pages and writes one answer per subject with page citations."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to answer"),
	),
	mcp.WithBoolean("include_reasoning",
		mcp.Description("Include the model's reasoning when it produced any (default false)"),
	),
)

// searchPagesTool defines the search_pages MCP tool.
var searchPagesTool = mcp.NewTool("search_pages",
	mcp.WithDescription("Semantic search over the pages of one textbook. Returns page numbers with text snippets, closest first."),
	mcp.WithString("subject",
		mcp.Required(),
		mcp.Description("Subject identifier, as returned by list_subjects"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of pages to return (default top_k)"),
	),
)

// getPageTool defines the get_page MCP tool.
var getPageTool = mcp.NewTool("get_page",
	mcp.WithDescription("Get the full text of one textbook page."),
	mcp.WithString("subject",
		mcp.Required(),
		mcp.Description("Subject identifier"),
	),
	mcp.WithNumber("page",
		mcp.Required(),
		mcp.Description("Page number as cited in answers (starting at 1)"),
	),
)

// listSubjectsTool defines the list_subjects MCP tool.
var listSubjectsTool = mcp.NewTool("list_subjects",
	mcp.WithDescription("List the configured subjects with their descriptions and index status."),
)

// summarizePagesTool defines the summarize_pages MCP tool.
var summarizePagesTool = mcp.NewTool("summarize_pages",
	mcp.WithDescription("Summarize a set of textbook pages into revision notes."),
	mcp.WithString("subject",
		mcp.Required(),
		mcp.Description("Subject identifier"),
	),
	mcp.WithString("pages",
		mcp.Required(),
		mcp.Description("Comma-separated page numbers or ranges, e.g. \"12,47-49\""),
	),
)
