package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vsync/internal/config"
	"github.com/vango-dev/vsync/pkg/dom"
	"github.com/vango-dev/vsync/pkg/vdom"
)

// scenario is a mount-then-patch pair. Trees are built on demand since a
// pass writes into them.
type scenario struct {
	name     string
	old, new func() *vdom.VNode
}

// colorList builds ul#container with one li per {color, text} entry. Keyed
// items use the first character of their text as key; first adds props to
// the first item.
func colorList(keyed bool, items [][2]string, first vdom.Props) *vdom.VNode {
	children := make([]*vdom.VNode, len(items))
	for i, item := range items {
		props := vdom.Props{vdom.StyleProp: vdom.Style{"backgroundColor": item[0]}}
		if keyed {
			props["key"] = item[1][:1]
		}
		if i == 0 {
			for k, v := range first {
				props[k] = v
			}
		}
		children[i] = vdom.H("li", props, item[1])
	}
	return vdom.H("ul", vdom.Props{"id": "container"}, children)
}

var scenarios = []scenario{
	{
		name: "unkeyed",
		old: func() *vdom.VNode {
			return colorList(false, [][2]string{
				{"#000011", "1"}, {"#000033", "2"}, {"#000055", "3"}, {"#000077", "4"},
			}, vdom.Props{"id": "qwe"})
		},
		new: func() *vdom.VNode {
			return colorList(false, [][2]string{
				{"#000011", "11"}, {"#000033", "21"}, {"#000055", "31"}, {"#000077", "41"},
			}, nil)
		},
	},
	{
		name: "keyed",
		old: func() *vdom.VNode {
			return colorList(true, [][2]string{
				{"#000011", "1"}, {"#000033", "2"}, {"#000055", "3"}, {"#000077", "4"},
			}, nil)
		},
		new: func() *vdom.VNode {
			return colorList(true, [][2]string{
				{"#000099", "5"}, {"#000033", "21"}, {"#000011", "11"}, {"#000077", "41"}, {"#0000AA", "6"},
			}, nil)
		},
	},
}

// demoTrees returns every scenario tree in playback order.
func demoTrees() []*vdom.VNode {
	trees := make([]*vdom.VNode, 0, 2*len(scenarios))
	for _, s := range scenarios {
		trees = append(trees, s.old(), s.new())
	}
	return trees
}

func demoCmd(g *globals) *cobra.Command {
	var (
		only    string
		journal bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the built-in mount-then-patch scenarios",
		Long: `Mount a list of colored items, patch it to a new list and print the
document before and after with the work each pass did.

Two scenarios run: an unkeyed list, where children are matched by
position, and a keyed list, where children are matched by key and moved.

Examples:
  vsync demo
  vsync demo --scenario keyed --journal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			selected := scenarios
			if only != "" {
				selected = nil
				for _, s := range scenarios {
					if s.name == only {
						selected = append(selected, s)
					}
				}
				if len(selected) == 0 {
					return fmt.Errorf("unknown scenario %q (want unkeyed or keyed)", only)
				}
			}
			return runDemo(cmd.OutOrStdout(), cfg, cfg.Logger(cmd.ErrOrStderr()), selected, journal)
		},
	}

	cmd.Flags().StringVarP(&only, "scenario", "s", "", "Run a single scenario (unkeyed or keyed)")
	cmd.Flags().BoolVarP(&journal, "journal", "j", false, "Print the mutations of each pass")

	return cmd
}

func runDemo(w io.Writer, cfg *config.Config, logger *slog.Logger, selected []scenario, journal bool) error {
	for i, s := range selected {
		if i > 0 {
			fmt.Fprintln(w)
		}
		section(w, s.name)

		tree := dom.NewTree()
		root := tree.CreateElement("div")
		rec := dom.NewRecorder(tree)
		r := vdom.NewReconciler(rec, append(cfg.ReconcilerOptions(), vdom.WithLogger(logger))...)

		old, next := s.old(), s.new()

		stats, err := r.Mount(old, root)
		if err != nil {
			return err
		}
		printPass(w, "mount", stats, rec, journal)
		fmt.Fprintf(w, "before %s\n", dom.InnerHTML(root))

		stats, err = r.Patch(old, next)
		if err != nil {
			return err
		}
		printPass(w, "patch", stats, rec, journal)
		fmt.Fprintf(w, "after  %s\n", dom.InnerHTML(root))
	}
	return nil
}

func printPass(w io.Writer, phase string, stats vdom.Stats, rec *dom.Recorder, journal bool) {
	muts := rec.Drain()
	fmt.Fprintf(w, "%-6s %s\n", phase, stats)
	if !journal {
		return
	}
	for _, m := range muts {
		info(w, "%s", m)
	}
}
