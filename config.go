package lazymodal

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/lazymodal/lib/dom"
)

// Element attribute names.
const (
	AttrTriggers     = "triggers"
	AttrLoadOn       = "load-on"
	AttrInHead       = "in-head"
	AttrInnerStyles  = "inner-styles"
	AttrInnerScripts = "inner-scripts"
	AttrInnerContent = "inner-content"
	AttrCloseButton  = "close-button"
)

// legacy spellings still found in older pages
var legacyAttrs = map[string]string{
	AttrInnerStyles:  "inside-styles",
	AttrInnerScripts: "inside-scripts",
	AttrInnerContent: "inside-content",
}

// Config is a modal's declared configuration, read from its element.
type Config struct {
	ID          string
	Triggers    string
	LoadOn      Mode
	InHead      bool
	Styles      []string
	Scripts     []string
	Content     string
	CloseButton bool
}

// ParseConfig reads the configuration attributes of el.
func ParseConfig(el *dom.Element) Config {
	get := func(name string) string {
		if v, ok := el.Attr(name); ok {
			return v
		}
		if legacy, ok := legacyAttrs[name]; ok {
			v, _ := el.Attr(legacy)
			return v
		}
		return ""
	}
	trigger, _ := el.Attr(AttrTriggers)
	loadOn, _ := el.Attr(AttrLoadOn)
	return Config{
		ID:          el.ID(),
		Triggers:    strings.TrimSpace(trigger),
		LoadOn:      ParseMode(loadOn),
		InHead:      el.HasAttr(AttrInHead),
		Styles:      SplitList(get(AttrInnerStyles)),
		Scripts:     SplitList(get(AttrInnerScripts)),
		Content:     strings.TrimSpace(get(AttrInnerContent)),
		CloseButton: el.HasAttr(AttrCloseButton),
	}
}

// Attrs returns the configuration as element attributes, for spreading
// onto a templ element:
//
//	<lazy-modal popover { cfg.Attrs()... }>
func (c Config) Attrs() templ.Attributes {
	attrs := templ.Attributes{}
	if c.ID != "" {
		attrs["id"] = c.ID
	}
	if c.Triggers != "" {
		attrs[AttrTriggers] = c.Triggers
	}
	if c.LoadOn != "" && c.LoadOn != ModeHover {
		attrs[AttrLoadOn] = string(c.LoadOn)
	}
	if c.InHead {
		attrs[AttrInHead] = true
	}
	if len(c.Styles) > 0 {
		attrs[AttrInnerStyles] = strings.Join(c.Styles, ", ")
	}
	if len(c.Scripts) > 0 {
		attrs[AttrInnerScripts] = strings.Join(c.Scripts, ", ")
	}
	if c.Content != "" {
		attrs[AttrInnerContent] = c.Content
	}
	if c.CloseButton {
		attrs[AttrCloseButton] = true
	}
	return attrs
}

// SplitList splits a comma-separated attribute value into trimmed,
// non-empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
