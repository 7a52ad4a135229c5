package mcp

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/morikuni/failure/v2"
	"golang.org/x/sync/errgroup"

	"github.com/oniwiki/confluence-mcp/confluence"
	"github.com/oniwiki/confluence-mcp/cql"
)

var validate = validator.New()

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		newServerTool(s.searchTool()),
		newServerTool(s.getSpacesTool()),
		newServerTool(s.getPageTool()),
		newServerTool(s.createPageTool()),
		newServerTool(s.updatePageTool()),
		newServerTool(s.deletePageTool()),
		newServerTool(s.getPageChildrenTool()),
		newServerTool(s.getPageAncestorsTool()),
		newServerTool(s.getCommentsTool()),
		newServerTool(s.addCommentTool()),
		newServerTool(s.getLabelsTool()),
		newServerTool(s.addLabelTool()),
	}
}

// decodeArgs decodes and validates tool arguments. Rejections happen
// here, before any network call is attempted.
func decodeArgs(ctx context.Context, raw map[string]interface{}, out any) error {
	if err := mapstructure.Decode(raw, out); err != nil {
		return err
	}
	return validate.StructCtx(ctx, out)
}

// errorMessage extracts a user-facing message from an error.
func errorMessage(err error) string {
	if msg := failure.MessageOf(err); msg != "" {
		return msg.String()
	}
	return err.Error()
}

func resultJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) searchTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_search",
			mcp.WithDescription("Search Confluence content. Accepts either free text or a CQL query; free text is matched against page text, optionally restricted to the given spaces."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search terms or CQL query (e.g. 'text ~ \"project documentation\"')")),
			mcp.WithArray("spaces", mcp.Description("Space keys to restrict the search to (e.g. [\"DEV\",\"TEAM\"])"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				Query  string   `mapstructure:"query" validate:"required"`
				Spaces []string `mapstructure:"spaces" validate:"omitempty,dive,required"`
				Limit  int      `mapstructure:"limit" validate:"omitempty,gte=1,lte=100"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if args.Limit == 0 {
				args.Limit = cql.DefaultLimit
			}

			normalized, err := cql.Normalize(args.Query, args.Spaces)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			results, err := s.client.Search(ctx, normalized, args.Limit)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Query   string                    `json:"query"`
				Results []confluence.SearchResult `json:"results"`
				Count   int                       `json:"count"`
			}{
				Query:   normalized,
				Results: results,
				Count:   len(results),
			})
		}
}

func (s *Server) getSpacesTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_get_spaces",
			mcp.WithDescription("List available Confluence spaces"),
			mcp.WithNumber("limit", mcp.Description("Maximum number of spaces to return (default 25)")),
			mcp.WithBoolean("force_refresh", mcp.Description("Bypass the local space cache")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				Limit        int  `mapstructure:"limit" validate:"omitempty,gte=1,lte=500"`
				ForceRefresh bool `mapstructure:"force_refresh"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if args.Limit == 0 {
				args.Limit = 25
			}

			spaces, err := s.client.GetSpaces(ctx, args.Limit, args.ForceRefresh)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Spaces []confluence.Space `json:"spaces"`
				Count  int                `json:"count"`
			}{
				Spaces: spaces,
				Count:  len(spaces),
			})
		}
}

func (s *Server) getPageTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_get_page",
			mcp.WithDescription("Get Confluence page content and metadata by ID"),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("The ID of the Confluence page")),
			mcp.WithBoolean("include_body", mcp.Description("Include the full page content (default true)")),
			mcp.WithString("format", mcp.Description("Body format: 'storage' (XHTML, default) or 'markdown'")),
			mcp.WithBoolean("include_comments", mcp.Description("Also fetch the page comments")),
			mcp.WithBoolean("include_labels", mcp.Description("Also fetch the page labels")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				PageID          string `mapstructure:"page_id" validate:"required"`
				IncludeBody     *bool  `mapstructure:"include_body"`
				Format          string `mapstructure:"format" validate:"omitempty,oneof=storage markdown"`
				IncludeComments bool   `mapstructure:"include_comments"`
				IncludeLabels   bool   `mapstructure:"include_labels"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			includeBody := args.IncludeBody == nil || *args.IncludeBody

			page, err := s.client.GetPage(ctx, args.PageID, includeBody)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			if includeBody && args.Format == "markdown" {
				md, err := s.client.ToMarkdown(page.Content)
				if err != nil {
					return mcp.NewToolResultError(errorMessage(err)), nil
				}
				page.Content = md
			}

			var comments []confluence.Comment
			var labels []confluence.Label
			g, gctx := errgroup.WithContext(ctx)
			if args.IncludeComments {
				g.Go(func() error {
					var err error
					comments, err = s.client.GetComments(gctx, args.PageID, "all")
					return err
				})
			}
			if args.IncludeLabels {
				g.Go(func() error {
					var err error
					labels, err = s.client.GetLabels(gctx, args.PageID)
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Page     *confluence.Page     `json:"page"`
				Comments []confluence.Comment `json:"comments,omitempty"`
				Labels   []confluence.Label   `json:"labels,omitempty"`
			}{
				Page:     page,
				Comments: comments,
				Labels:   labels,
			})
		}
}

func (s *Server) createPageTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_create_page",
			mcp.WithDescription("Create a new Confluence page"),
			mcp.WithString("space_key", mcp.Required(), mcp.Description("Key of the space where the page will be created")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Title of the page")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Content of the page in the specified format")),
			mcp.WithString("parent_id", mcp.Description("Optional ID of the parent page")),
			mcp.WithString("content_format", mcp.Description("'storage' for XHTML (default) or 'wiki' for wiki markup")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				SpaceKey      string `mapstructure:"space_key" validate:"required"`
				Title         string `mapstructure:"title" validate:"required"`
				Content       string `mapstructure:"content" validate:"required"`
				ParentID      string `mapstructure:"parent_id"`
				ContentFormat string `mapstructure:"content_format" validate:"omitempty,oneof=storage wiki"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			page, err := s.client.CreatePage(ctx, confluence.CreatePageInput{
				SpaceKey: args.SpaceKey,
				Title:    args.Title,
				Content:  args.Content,
				ParentID: args.ParentID,
				Format:   args.ContentFormat,
			})
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Page *confluence.Page `json:"page"`
			}{Page: page})
		}
}

func (s *Server) updatePageTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_update_page",
			mcp.WithDescription("Update an existing Confluence page. The page version is bumped automatically."),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("ID of the page to update")),
			mcp.WithString("title", mcp.Required(), mcp.Description("New title of the page")),
			mcp.WithString("content", mcp.Required(), mcp.Description("New content of the page")),
			mcp.WithBoolean("minor_edit", mcp.Description("Mark this update as a minor edit")),
			mcp.WithString("content_format", mcp.Description("'storage' for XHTML (default) or 'wiki' for wiki markup")),
			mcp.WithString("version_comment", mcp.Description("Optional comment for this version")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				PageID         string `mapstructure:"page_id" validate:"required"`
				Title          string `mapstructure:"title" validate:"required"`
				Content        string `mapstructure:"content" validate:"required"`
				MinorEdit      bool   `mapstructure:"minor_edit"`
				ContentFormat  string `mapstructure:"content_format" validate:"omitempty,oneof=storage wiki"`
				VersionComment string `mapstructure:"version_comment"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			page, err := s.client.UpdatePage(ctx, confluence.UpdatePageInput{
				PageID:         args.PageID,
				Title:          args.Title,
				Content:        args.Content,
				MinorEdit:      args.MinorEdit,
				Format:         args.ContentFormat,
				VersionComment: args.VersionComment,
			})
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Page *confluence.Page `json:"page"`
			}{Page: page})
		}
}

func (s *Server) deletePageTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_delete_page",
			mcp.WithDescription("Delete a Confluence page by ID"),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("ID of the page to delete")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				PageID string `mapstructure:"page_id" validate:"required"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := s.client.DeletePage(ctx, args.PageID); err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				PageID  string `json:"page_id"`
				Deleted bool   `json:"deleted"`
			}{PageID: args.PageID, Deleted: true})
		}
}

func (s *Server) getPageChildrenTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_get_page_children",
			mcp.WithDescription("Get child pages of a Confluence page"),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("ID of the parent page")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of children to return (default 25)")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				PageID string `mapstructure:"page_id" validate:"required"`
				Limit  int    `mapstructure:"limit" validate:"omitempty,gte=1,lte=200"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if args.Limit == 0 {
				args.Limit = 25
			}

			children, err := s.client.GetPageChildren(ctx, args.PageID, args.Limit)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Children []confluence.Page `json:"children"`
				Count    int               `json:"count"`
			}{Children: children, Count: len(children)})
		}
}

func (s *Server) getPageAncestorsTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_get_page_ancestors",
			mcp.WithDescription("Get ancestor (parent) pages of a Confluence page, from the root downwards"),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("ID of the page")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				PageID string `mapstructure:"page_id" validate:"required"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			ancestors, err := s.client.GetPageAncestors(ctx, args.PageID)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Ancestors []confluence.Page `json:"ancestors"`
				Count     int               `json:"count"`
			}{Ancestors: ancestors, Count: len(ancestors)})
		}
}

func (s *Server) getCommentsTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_get_comments",
			mcp.WithDescription("Get comments for a Confluence page"),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("ID of the page")),
			mcp.WithString("depth", mcp.Description("Comment depth: 'all' (default) or 'root' for top-level comments only")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				PageID string `mapstructure:"page_id" validate:"required"`
				Depth  string `mapstructure:"depth" validate:"omitempty,oneof=all root"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if args.Depth == "" {
				args.Depth = "all"
			}

			comments, err := s.client.GetComments(ctx, args.PageID, args.Depth)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Comments []confluence.Comment `json:"comments"`
				Count    int                  `json:"count"`
			}{Comments: comments, Count: len(comments)})
		}
}

func (s *Server) addCommentTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_add_comment",
			mcp.WithDescription("Add a comment to a Confluence page"),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("ID of the page to comment on")),
			mcp.WithString("content", mcp.Required(), mcp.Description("The comment body in storage format")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				PageID  string `mapstructure:"page_id" validate:"required"`
				Content string `mapstructure:"content" validate:"required"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			comment, err := s.client.AddComment(ctx, args.PageID, args.Content)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Comment *confluence.Comment `json:"comment"`
			}{Comment: comment})
		}
}

func (s *Server) getLabelsTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_get_labels",
			mcp.WithDescription("Get labels for a Confluence page"),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("ID of the page")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				PageID string `mapstructure:"page_id" validate:"required"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			labels, err := s.client.GetLabels(ctx, args.PageID)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				Labels []confluence.Label `json:"labels"`
				Count  int                `json:"count"`
			}{Labels: labels, Count: len(labels)})
		}
}

func (s *Server) addLabelTool() (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"confluence_add_label",
			mcp.WithDescription("Add a label to a Confluence page"),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("ID of the page")),
			mcp.WithString("label", mcp.Required(), mcp.Description("Label name to add")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type toolArguments struct {
				PageID string `mapstructure:"page_id" validate:"required"`
				Label  string `mapstructure:"label" validate:"required"`
			}
			var args toolArguments
			if err := decodeArgs(ctx, req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := s.client.AddLabel(ctx, args.PageID, args.Label); err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			return resultJSON(struct {
				PageID string `json:"page_id"`
				Label  string `json:"label"`
				Added  bool   `json:"added"`
			}{PageID: args.PageID, Label: args.Label, Added: true})
		}
}
