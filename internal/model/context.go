package model

import (
	"fmt"
	"net/url"
	"strconv"
)

// Context tells a freshly loaded child surface which role it plays. It is
// parsed from the query string of the URL the child was loaded with, or from
// the equivalent spawn payload.
type Context struct {
	Role Role `json:"role"`

	// ID is the inline-window or popover id. Empty for the coordinator.
	ID string `json:"id,omitempty"`

	// MaxHeight is the host-computed maximum panel height, popovers only.
	// Zero means the host did not supply one.
	MaxHeight float64 `json:"maxHeight,omitempty"`
}

// Query parameters carried on child URLs.
const (
	ParamWindow    = "window"
	ParamPopover   = "popover"
	ParamMaxHeight = "max_height"
)

// ParseContext determines the role of a surface from its URL query. A URL
// with neither a window nor a popover parameter belongs to the coordinator.
func ParseContext(rawURL string) (Context, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Context{}, fmt.Errorf("parse context url: %w", err)
	}
	return ContextFromQuery(u.Query())
}

// ContextFromQuery is ParseContext for an already-parsed query.
func ContextFromQuery(q url.Values) (Context, error) {
	if id := q.Get(ParamWindow); id != "" {
		return Context{Role: RoleInlineWindow, ID: id}, nil
	}
	if id := q.Get(ParamPopover); id != "" {
		ctx := Context{Role: RolePopover, ID: id}
		if raw := q.Get(ParamMaxHeight); raw != "" {
			mh, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Context{}, fmt.Errorf("invalid %s %q: %w", ParamMaxHeight, raw, err)
			}
			ctx.MaxHeight = mh
		}
		return ctx, nil
	}
	return Context{Role: RoleCoordinator}, nil
}

// ChildURL appends the role parameters for a child to the coordinator's
// origin URL. Popover children additionally receive the max_height hint when
// maxHeight is positive.
func ChildURL(base string, role Role, id string, maxHeight float64) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	switch role {
	case RoleInlineWindow:
		q.Set(ParamWindow, id)
	case RolePopover:
		q.Set(ParamPopover, id)
		if maxHeight > 0 {
			q.Set(ParamMaxHeight, strconv.Itoa(int(maxHeight)))
		}
	default:
		return "", fmt.Errorf("no child url for role %q", role)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
