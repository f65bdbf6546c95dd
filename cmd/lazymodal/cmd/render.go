package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/lazymodal"
)

// NewRenderCommand creates the render command, which prints a
// <lazy-modal> element built from flags.
func NewRenderCommand() *cobra.Command {
	var (
		cfg     lazymodal.Config
		loadOn  string
		styles  []string
		scripts []string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print a <lazy-modal> element",
		Long: `Print a <lazy-modal> element built from flags, ready to paste into a page.

Example:
  lazymodal render --triggers "#terms" --load-on click --content terms.html --close-button`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.LoadOn = lazymodal.ParseMode(loadOn)
			cfg.Styles = splitAll(styles)
			cfg.Scripts = splitAll(scripts)

			if err := lazymodal.Tag(cfg, nil).Render(cmd.Context(), cmd.OutOrStdout()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.ID, "id", "", "element id")
	cmd.Flags().StringVar(&cfg.Triggers, "triggers", "", "selector for trigger elements")
	cmd.Flags().StringVar(&loadOn, "load-on", "hover", "activation mode: hover, click, visible or load")
	cmd.Flags().BoolVar(&cfg.InHead, "in-head", false, "attach resources to the shared document head")
	cmd.Flags().StringSliceVar(&styles, "styles", nil, "stylesheet paths")
	cmd.Flags().StringSliceVar(&scripts, "scripts", nil, "module script paths")
	cmd.Flags().StringVar(&cfg.Content, "content", "", "markup path injected on activation")
	cmd.Flags().BoolVar(&cfg.CloseButton, "close-button", false, "insert the close button")

	return cmd
}

func splitAll(items []string) []string {
	var out []string
	for _, item := range items {
		out = append(out, lazymodal.SplitList(item)...)
	}
	return out
}
