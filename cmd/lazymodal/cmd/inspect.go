package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pthm/lazymodal"
	"github.com/pthm/lazymodal/lib/dom"
)

// ModalInfo describes one modal found in a page.
type ModalInfo struct {
	ID          string   `yaml:"id"`
	Mode        string   `yaml:"mode"`
	Triggers    int      `yaml:"triggers"`
	Mount       string   `yaml:"mount"`
	Styles      []string `yaml:"styles,omitempty"`
	Scripts     []string `yaml:"scripts,omitempty"`
	Content     string   `yaml:"content,omitempty"`
	CloseButton bool     `yaml:"closeButton,omitempty"`
	Template    bool     `yaml:"template,omitempty"`
}

// NewInspectCommand creates the inspect command, which lists the modals in
// an HTML page.
func NewInspectCommand() *cobra.Command {
	var (
		base   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the modals in an HTML page",
		Long: `List every <lazy-modal> in an HTML page with its activation mode, trigger
count, mount and resolved resource addresses. Modals whose triggers match
nothing are reported as warnings.

Use "-" to read the page from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readPage(cmd, args[0])
			if err != nil {
				return err
			}
			reg := lazymodal.NewRegistry(lazymodal.WithBase(base))
			infos, err := Inspect(reg, doc)
			if err != nil {
				return err
			}

			for _, info := range infos {
				if info.Triggers == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", info.ID, lazymodal.ErrNoTriggers)
				}
			}

			switch output {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(infos); err != nil {
					return err
				}
				return enc.Close()
			case "text":
				return writeTable(cmd.OutOrStdout(), infos)
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
		},
	}

	cmd.Flags().StringVar(&base, "base", lazymodal.DefaultBase, "base address relative paths resolve against")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")

	return cmd
}

// Inspect describes every modal in doc, resolving paths through reg.
func Inspect(reg *lazymodal.Registry, doc *dom.Document) ([]ModalInfo, error) {
	modals, err := reg.Scan(doc)
	if err != nil {
		return nil, err
	}
	resolve := func(paths []string) []string {
		out := make([]string, len(paths))
		for i, p := range paths {
			out[i] = reg.Resolver().Resolve(p)
		}
		return out
	}

	infos := make([]ModalInfo, 0, len(modals))
	for _, m := range modals {
		cfg := m.Config()
		info := ModalInfo{
			ID:          m.ID(),
			Mode:        string(m.Mode()),
			Triggers:    len(m.Triggers()),
			Mount:       "self",
			Styles:      resolve(cfg.Styles),
			Scripts:     resolve(cfg.Scripts),
			CloseButton: cfg.CloseButton,
			Template:    m.HasTemplate(),
		}
		if cfg.InHead {
			info.Mount = "head"
		}
		if cfg.Content != "" {
			info.Content = reg.Resolver().Resolve(cfg.Content)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func writeTable(w io.Writer, infos []ModalInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODE\tTRIGGERS\tMOUNT\tRESOURCES")
	for _, info := range infos {
		var resources []string
		resources = append(resources, info.Styles...)
		resources = append(resources, info.Scripts...)
		if info.Content != "" {
			resources = append(resources, info.Content)
		}
		list := strings.Join(resources, ", ")
		if list == "" {
			list = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", info.ID, info.Mode, info.Triggers, info.Mount, list)
	}
	return tw.Flush()
}

func readPage(cmd *cobra.Command, name string, opts ...dom.Option) (*dom.Document, error) {
	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return dom.Parse(r, opts...)
}
