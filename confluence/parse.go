package confluence

import (
	"strings"
	"time"

	"github.com/oniwiki/confluence-mcp/log"
)

// Wire representations of the REST API payloads. The API nests the
// interesting fields several levels deep (body.storage.value,
// version.number, _links.webui); these structs mirror that shape and
// the parse functions below flatten them into the exported models.

type userPayload struct {
	AccountID   string `json:"accountId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type contentPayload struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Title  string `json:"title"`
	Body   struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
		View struct {
			Value string `json:"value"`
		} `json:"view"`
	} `json:"body"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	History struct {
		CreatedBy userPayload `json:"createdBy"`
	} `json:"history"`
	Ancestors []contentPayload `json:"ancestors"`
	Container struct {
		ID string `json:"id"`
	} `json:"container"`
	Parent *contentPayload `json:"parent"`
	Author userPayload     `json:"author"`
	Links  struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
	Excerpt     string `json:"excerpt"`
	Created     string `json:"created"`
	LastUpdated string `json:"lastUpdated"`
}

type spacePayload struct {
	ID          int    `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Description struct {
		Plain struct {
			Value string `json:"value"`
		} `json:"plain"`
	} `json:"description"`
	Homepage *struct {
		ID string `json:"id"`
	} `json:"homepage"`
}

type labelPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// parseTime parses an ISO timestamp from the API. Returns nil for
// absent or malformed values rather than failing the whole response.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	s = strings.Replace(s, "Z", "+00:00", 1)
	for _, layout := range []string{
		"2006-01-02T15:04:05.000-07:00",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	log.Warn("Failed to parse timestamp", "value", s)
	return nil
}

func parseUser(p userPayload) *User {
	if p.AccountID == "" && p.Username == "" && p.DisplayName == "" {
		return nil
	}
	return &User{
		AccountID:   p.AccountID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
	}
}

func parsePage(p contentPayload) Page {
	return Page{
		ID:       p.ID,
		Title:    p.Title,
		SpaceKey: p.Space.Key,
		Version:  p.Version.Number,
		Content:  p.Body.Storage.Value,
		Created:  parseTime(p.Created),
		Updated:  parseTime(p.LastUpdated),
		Creator:  parseUser(p.History.CreatedBy),
		URL:      p.Links.WebUI,
	}
}

func parseSearchResult(p contentPayload) SearchResult {
	return SearchResult{
		ID:          p.ID,
		Title:       p.Title,
		SpaceKey:    p.Space.Key,
		ContentType: p.Type,
		Excerpt:     p.Excerpt,
		URL:         p.Links.WebUI,
		Created:     parseTime(p.Created),
		Updated:     parseTime(p.LastUpdated),
		Content:     p.Body.View.Value,
	}
}

func parseSpace(p spacePayload) Space {
	s := Space{
		ID:          p.ID,
		Key:         p.Key,
		Name:        p.Name,
		Type:        p.Type,
		Status:      p.Status,
		Description: p.Description.Plain.Value,
	}
	if p.Homepage != nil {
		s.HomepageID = p.Homepage.ID
	}
	return s
}

func parseComment(p contentPayload) Comment {
	c := Comment{
		ID:      p.ID,
		PageID:  p.Container.ID,
		Content: p.Body.Storage.Value,
		Created: parseTime(p.Created),
		Updated: parseTime(p.LastUpdated),
		Author:  parseUser(p.Author),
	}
	if p.Parent != nil {
		c.ParentCommentID = p.Parent.ID
	}
	return c
}

func parseLabel(p labelPayload) Label {
	return Label{
		ID:     p.ID,
		Name:   p.Name,
		Prefix: p.Prefix,
	}
}
