package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vsync/internal/config"
	"github.com/vango-dev/vsync/internal/treefile"
	"github.com/vango-dev/vsync/pkg/dom"
	"github.com/vango-dev/vsync/pkg/protocol"
	"github.com/vango-dev/vsync/pkg/vdom"
)

func diffCmd(g *globals) *cobra.Command {
	var frames bool

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Print the mutations that turn one tree file into another",
		Long: `Mount the tree in <old>, patch it to the tree in <new> and print the
mutations of the patch with its stats.

Tree files are YAML or JSON:

  tag: ul
  props: {id: list}
  children:
    - {tag: li, key: a, children: [first]}

Examples:
  vsync diff old.yaml new.yaml
  vsync diff old.yaml new.yaml --frame`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			old, err := treefile.Load(args[0])
			if err != nil {
				return err
			}
			next, err := treefile.Load(args[1])
			if err != nil {
				return err
			}
			return runDiff(cmd.OutOrStdout(), cfg, old, next, frames)
		},
	}

	cmd.Flags().BoolVarP(&frames, "frame", "f", false, "Also print the patch as hex-encoded wire frames")

	return cmd
}

func runDiff(w io.Writer, cfg *config.Config, old, next *vdom.VNode, frames bool) error {
	tree := dom.NewTree()
	root := tree.CreateElement("body")
	rec := dom.NewRecorder(tree)
	r := vdom.NewReconciler(rec, cfg.ReconcilerOptions()...)

	if _, err := r.Mount(old, root); err != nil {
		return err
	}
	rec.Drain()

	stats, err := r.Patch(old, next)
	if err != nil {
		return err
	}
	muts := rec.Drain()

	for _, m := range muts {
		fmt.Fprintln(w, m)
	}
	fmt.Fprintf(w, "\n%d mutations: %s\n", len(muts), stats)

	if !frames {
		return nil
	}
	batch := &protocol.MutationsFrame{Seq: 1, Mutations: muts}
	fs, err := batch.Frames()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, f := range fs {
		fmt.Fprintf(w, "%s %s\n", f.Type, hex.EncodeToString(f.Encode()))
	}
	return nil
}
