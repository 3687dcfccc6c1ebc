package extension

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxHandleLength bounds extension handles.
const MaxHandleLength = 30

var handleRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Metafield names a metafield the extension reads.
type Metafield struct {
	Namespace string `toml:"namespace" json:"namespace"`
	Key       string `toml:"key" json:"key"`
}

// Capabilities are the runtime permissions an extension asks for.
type Capabilities struct {
	NetworkAccess bool `toml:"network_access" json:"network_access"`
	BlockProgress bool `toml:"block_progress" json:"block_progress"`
	APIAccess     bool `toml:"api_access" json:"api_access"`
}

// Target binds an extension target to a source module.
type Target struct {
	Target string `toml:"target" json:"target"`
	Module string `toml:"module" json:"module"`
}

// BaseConfig is the schema shared by every UI extension.
type BaseConfig struct {
	Name         string        `toml:"name"`
	Type         string        `toml:"type"`
	Handle       string        `toml:"handle,omitempty"`
	UID          string        `toml:"uid,omitempty"`
	Description  string        `toml:"description,omitempty"`
	APIVersion   string        `toml:"api_version,omitempty"`
	Metafields   []Metafield   `toml:"metafields,omitempty"`
	Capabilities *Capabilities `toml:"capabilities,omitempty"`
	Targeting    []Target      `toml:"targeting,omitempty"`
}

// Common returns the shared fields.
func (b BaseConfig) Common() BaseConfig { return b }

// Validate checks the shared fields.
func (b BaseConfig) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(b.Name) == "" {
		errs = append(errs, FieldError{"name", "is required"})
	}
	if strings.TrimSpace(b.Type) == "" {
		errs = append(errs, FieldError{"type", "is required"})
	}
	if b.Handle != "" {
		if !handleRe.MatchString(b.Handle) {
			errs = append(errs, FieldError{"handle", "may only contain lowercase letters, numbers and hyphens"})
		} else if len(b.Handle) > MaxHandleLength {
			errs = append(errs, FieldError{"handle", fmt.Sprintf("must be at most %d characters", MaxHandleLength)})
		}
	}
	for i, m := range b.Metafields {
		if m.Namespace == "" || m.Key == "" {
			errs = append(errs, FieldError{fmt.Sprintf("metafields[%d]", i), "namespace and key are required"})
		}
	}
	for i, t := range b.Targeting {
		if t.Target == "" {
			errs = append(errs, FieldError{fmt.Sprintf("targeting[%d].target", i), "is required"})
		}
	}
	return errs
}

// MetafieldList never returns nil so deploy payloads carry an empty array.
func (b BaseConfig) MetafieldList() []Metafield {
	if b.Metafields == nil {
		return []Metafield{}
	}
	return b.Metafields
}

// Slug turns an extension name into a handle.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > MaxHandleLength {
		slug = strings.TrimSuffix(slug[:MaxHandleLength], "-")
	}
	return slug
}
