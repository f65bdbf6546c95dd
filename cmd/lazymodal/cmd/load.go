package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm/lazymodal"
	"github.com/pthm/lazymodal/lib/dom"
)

// NewLoadCommand creates the load command, which activates every modal in
// a page and reports what each one fetched.
func NewLoadCommand() *cobra.Command {
	var (
		base    string
		timeout time.Duration
		html    bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Activate every modal in a page and report failures",
		Long: `Activate every <lazy-modal> in an HTML page as if each had been clicked,
fetching its resources from the base address, and report the resources
that failed. Pass --html to print the resulting document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !lazymodal.IsRemote(base) {
				return fmt.Errorf("--base %q must be an absolute http(s) address, e.g. https://example.com/_lm", base)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			logger := newLogger(cmd.ErrOrStderr(), verbose)
			reg := lazymodal.NewRegistry(lazymodal.WithBase(base), lazymodal.WithLogger(logger))
			// scripts are fetched but not evaluated
			doc, err := readPage(cmd, args[0], dom.WithHost(reg.Host(func(el *dom.Element, source string) {
				src, _ := el.Attr("src")
				logger.Debug("script ready", "src", src, "bytes", len(source))
			})))
			if err != nil {
				return err
			}

			reports, err := LoadAll(ctx, reg, doc)
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				status := "ok"
				if !r.Report.OK() {
					status = fmt.Sprintf("%d failed", len(r.Report.Failed))
					failed += len(r.Report.Failed)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.ID, status)
				for _, f := range r.Report.Failed {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %s: %v\n", f.Kind, f.Address, f.Err)
				}
			}
			if html {
				fmt.Fprintln(cmd.OutOrStdout(), doc.String())
			}
			if failed > 0 {
				return fmt.Errorf("%d resources failed to load", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", lazymodal.DefaultBase, "absolute base address relative paths resolve against")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up waiting after this long")
	cmd.Flags().BoolVar(&html, "html", false, "print the document after loading")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every step")

	return cmd
}

// ModalReport is the outcome of loading one modal.
type ModalReport struct {
	ID     string
	Report lazymodal.Report
}

// LoadAll attaches and loads every modal in doc, waiting for all of them.
// Modals are detached again before it returns.
func LoadAll(ctx context.Context, reg *lazymodal.Registry, doc *dom.Document) ([]ModalReport, error) {
	modals, err := reg.Scan(doc)
	if err != nil {
		return nil, err
	}
	for _, m := range modals {
		if err := m.Attach(ctx); err != nil {
			return nil, err
		}
		defer func() { _ = m.Detach() }()
	}

	loads := make([]*lazymodal.Load, len(modals))
	for i, m := range modals {
		loads[i] = m.Load(ctx)
	}
	reports := make([]ModalReport, len(modals))
	for i, l := range loads {
		r, err := l.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("waiting for %s: %w", modals[i].ID(), err)
		}
		reports[i] = ModalReport{ID: modals[i].ID(), Report: r}
	}
	return reports, nil
}
