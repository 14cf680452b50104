package entity

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// ElementInfo describes one DOM element matched by a selector query.
type ElementInfo struct {
	Selector string `json:"selector"`
	Tag      string `json:"tag"`
	Text     string `json:"text"`
	Visible  bool   `json:"visible"`
	Enabled  bool   `json:"enabled"`
}

// Actionable reports whether the element can be clicked right now.
func (e ElementInfo) Actionable() bool {
	return e.Visible && e.Enabled
}

// FieldDescriptor is the structural description of one form control.
type FieldDescriptor struct {
	Selector    string   `json:"selector"`
	Tag         string   `json:"tag"`
	Type        string   `json:"type"`
	Name        string   `json:"name,omitempty"`
	ID          string   `json:"id,omitempty"`
	Label       string   `json:"label,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
}

// ElementType is the raw control kind: "text", "email", "select", "textarea", "checkbox", ...
func (f FieldDescriptor) ElementType() string {
	switch f.Tag {
	case "select", "textarea":
		return f.Tag
	}
	if f.Type == "" {
		return "text"
	}
	return f.Type
}

type FormDescriptor struct {
	Selector string            `json:"selector"`
	Action   string            `json:"action,omitempty"`
	Fields   []FieldDescriptor `json:"fields"`
}
