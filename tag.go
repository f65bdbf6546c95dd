package lazymodal

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// attrOrder fixes the order Tag writes attributes in.
var attrOrder = []string{
	"id",
	AttrTriggers,
	AttrLoadOn,
	AttrInHead,
	AttrInnerStyles,
	AttrInnerScripts,
	AttrInnerContent,
	AttrCloseButton,
}

// Tag renders a <lazy-modal> element for cfg. A non-nil inline is wrapped
// in a <template> child and cloned into the modal on every activation.
//
//	@lazymodal.Tag(lazymodal.Config{Triggers: "#open", Content: "terms.html"}, nil)
func Tag(cfg Config, inline templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<lazy-modal popover")
		attrs := cfg.Attrs()
		for _, name := range attrOrder {
			v, ok := attrs[name]
			if !ok {
				continue
			}
			b.WriteString(" ")
			b.WriteString(name)
			if s, ok := v.(string); ok {
				b.WriteString(`="`)
				b.WriteString(templ.EscapeString(s))
				b.WriteString(`"`)
			}
		}
		b.WriteString(">")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}

		if inline != nil {
			if _, err := io.WriteString(w, "<template>"); err != nil {
				return err
			}
			if err := inline.Render(ctx, w); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "</template>"); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</lazy-modal>")
		return err
	})
}
