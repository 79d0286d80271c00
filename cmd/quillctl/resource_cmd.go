package main

import (
	"fmt"

	"github.com/bassista/go_quill/internal/model"
	"github.com/bassista/go_quill/internal/mutation"
	"github.com/spf13/cobra"
)

// resourceSpec describes how one blog resource maps onto CLI flags.
type resourceSpec[T model.Entity, C model.Draft[T], U model.Patch[T]] struct {
	name     string
	singular string
	pick     func(*mutation.Blog) *mutation.Resource[T, C, U]
	// fields registers the create/update flags.
	fields func(cmd *cobra.Command)
	input  func(cmd *cobra.Command) C
	// patch only sets the flags the user changed.
	patch func(cmd *cobra.Command) U
}

func newResourceCmd[T model.Entity, C model.Draft[T], U model.Patch[T]](a *cliApp, spec resourceSpec[T, C, U]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   spec.name,
		Short: fmt.Sprintf("List, read and edit %s", spec.name),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List " + spec.name + ", newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.connect()()
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			items, err := spec.pick(a.blog).List(cmd.Context(), model.ListParams{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			return a.print(items)
		},
	}
	list.Flags().Int("limit", 0, "Maximum number of items")
	list.Flags().Int("offset", 0, "Items to skip")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + spec.singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.connect()()
			item, err := spec.pick(a.blog).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(item)
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a " + spec.singular,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.connect()()
			m := spec.pick(a.blog).Create(cmd.Context(), spec.input(cmd))
			if _, err := a.settle(m); err != nil {
				return err
			}
			item, err := mutation.Result[T](m)
			if err != nil {
				return err
			}
			return a.print(item)
		},
	}
	spec.fields(create)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a " + spec.singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.connect()()
			m := spec.pick(a.blog).Update(cmd.Context(), args[0], spec.patch(cmd))
			if _, err := a.settle(m); err != nil {
				return err
			}
			item, err := mutation.Result[T](m)
			if err != nil {
				return err
			}
			return a.print(item)
		},
	}
	spec.fields(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + spec.singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.connect()()
			if _, err := a.settle(spec.pick(a.blog).Delete(cmd.Context(), args[0])); err != nil {
				return err
			}
			_, err := fmt.Fprintf(a.out, "%s %s deleted\n", spec.singular, args[0])
			return err
		},
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

func changed(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func str(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

var typesSpec = resourceSpec[model.Type, model.TypeInput, model.TypePatch]{
	name:     "types",
	singular: "type",
	pick:     func(b *mutation.Blog) *mutation.Resource[model.Type, model.TypeInput, model.TypePatch] { return b.Types },
	fields: func(cmd *cobra.Command) {
		cmd.Flags().String("name", "", "Type name")
		cmd.Flags().String("description", "", "Type description (empty clears it on update)")
	},
	input: func(cmd *cobra.Command) model.TypeInput {
		return model.TypeInput{Name: str(cmd, "name"), Description: changed(cmd, "description")}
	},
	patch: func(cmd *cobra.Command) model.TypePatch {
		return model.TypePatch{Name: changed(cmd, "name"), Description: changed(cmd, "description")}
	},
}

var labelsSpec = resourceSpec[model.Label, model.LabelInput, model.LabelPatch]{
	name:     "labels",
	singular: "label",
	pick:     func(b *mutation.Blog) *mutation.Resource[model.Label, model.LabelInput, model.LabelPatch] { return b.Labels },
	fields: func(cmd *cobra.Command) {
		cmd.Flags().String("name", "", "Label name")
		cmd.Flags().String("color", "", "Badge color as #rrggbb")
		cmd.Flags().String("description", "", "Label description (empty clears it on update)")
	},
	input: func(cmd *cobra.Command) model.LabelInput {
		return model.LabelInput{Name: str(cmd, "name"), Color: str(cmd, "color"), Description: changed(cmd, "description")}
	},
	patch: func(cmd *cobra.Command) model.LabelPatch {
		return model.LabelPatch{Name: changed(cmd, "name"), Color: changed(cmd, "color"), Description: changed(cmd, "description")}
	},
}
