package extension

import "strings"

// InfoConfiguration is the subset of an extension config shown by app info.
type InfoConfiguration struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Handle string `json:"handle,omitempty"`
}

// InfoExtension describes one extension in app info output.
type InfoExtension struct {
	Configuration       InfoConfiguration `json:"configuration"`
	Directory           string            `json:"directory"`
	EntrySourceFilePath string            `json:"entrySourceFilePath"`
}

// Info is the JSON document printed by `app info --json`.
type Info struct {
	Name          string          `json:"name"`
	Directory     string          `json:"directory"`
	AllExtensions []InfoExtension `json:"allExtensions"`
}

// NewInfo summarizes app.
func NewInfo(app *App) Info {
	info := Info{
		Name:          app.Name,
		Directory:     app.Directory,
		AllExtensions: make([]InfoExtension, 0, len(app.Extensions)),
	}
	for _, ext := range app.Extensions {
		common := ext.Config.Common()
		info.AllExtensions = append(info.AllExtensions, InfoExtension{
			Configuration: InfoConfiguration{
				Name:   common.Name,
				Type:   ext.Spec.Identifier(),
				Handle: ext.Handle(),
			},
			Directory:           ext.Directory,
			EntrySourceFilePath: ext.EntrySourceFilePath,
		})
	}
	return info
}

// Find returns the extension whose name equals name or whose handle equals
// the lowercased name.
func (i Info) Find(name string) (InfoExtension, bool) {
	lower := strings.ToLower(name)
	for _, ext := range i.AllExtensions {
		if ext.Configuration.Name == name || ext.Configuration.Handle == lower {
			return ext, true
		}
	}
	return InfoExtension{}, false
}
