package confluence

import "time"

// User identifies a Confluence user on a page or comment.
type User struct {
	AccountID   string `json:"account_id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Page represents a Confluence page.
type Page struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	SpaceKey string     `json:"space_key"`
	Version  int        `json:"version"`
	Content  string     `json:"content,omitempty"`
	Created  *time.Time `json:"created,omitempty"`
	Updated  *time.Time `json:"updated,omitempty"`
	Creator  *User      `json:"creator,omitempty"`
	URL      string     `json:"url,omitempty"`
}

// SearchResult represents a Confluence search result.
type SearchResult struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	SpaceKey    string     `json:"space_key"`
	ContentType string     `json:"content_type"`
	Excerpt     string     `json:"excerpt,omitempty"`
	URL         string     `json:"url,omitempty"`
	Created     *time.Time `json:"created,omitempty"`
	Updated     *time.Time `json:"updated,omitempty"`
	Content     string     `json:"content,omitempty"`
}

// Space represents a Confluence space.
type Space struct {
	ID          int    `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	HomepageID  string `json:"homepage_id,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Comment represents a comment on a Confluence page.
type Comment struct {
	ID              string     `json:"id"`
	PageID          string     `json:"page_id"`
	Content         string     `json:"content"`
	Created         *time.Time `json:"created,omitempty"`
	Updated         *time.Time `json:"updated,omitempty"`
	Author          *User      `json:"author,omitempty"`
	ParentCommentID string     `json:"parent_comment_id,omitempty"`
}

// Label represents a Confluence content label.
type Label struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}
