package app

import (
	"github.com/ggonzalez94/defi-composer/internal/canvas"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/model"
	"github.com/ggonzalez94/defi-composer/internal/workflow"
	"github.com/spf13/cobra"
)

func (s *runtimeState) newWorkflowCommand() *cobra.Command {
	root := &cobra.Command{Use: "workflow", Short: "Save, load, export and import block workflows"}

	var saveSrc canvasSource
	saveCmd := &cobra.Command{
		Use:     "save",
		Short:   "Save the given blocks as the workflow",
		Example: "  composer workflow save --block protocol:Compound --block token:DAI=500 --block action:Deposit",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.newSession(true)
			if err != nil {
				return err
			}
			if err := saveSrc.populate(sess); err != nil {
				return err
			}
			blob, err := sess.Save()
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), model.WorkflowSummary{
				Action:    "save",
				Blocks:    blob.Metadata.TotalBlocks,
				Valid:     blob.Metadata.IsValid,
				Key:       workflow.StorageKey,
				CreatedAt: blob.Metadata.CreatedAt,
				Tiles:     sess.Tiles(),
			}, nil)
		},
	}
	saveSrc.bind(saveCmd, false)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load the saved workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.newSession(true)
			if err != nil {
				return err
			}
			tiles, err := sess.Load()
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), summary("load", tiles, workflow.StorageKey, ""), nil)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := s.openStore()
			if err != nil {
				return err
			}
			if err := store.Delete(workflow.StorageKey); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "delete saved workflow", err)
			}
			s.logger.Info("analytics", "action", "workflow_cleared")
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), model.WorkflowSummary{Action: "clear", Key: workflow.StorageKey}, nil)
		},
	}

	var exportSrc canvasSource
	var exportDir string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the flow built from the given blocks to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dir") {
				s.settings.ExportDir = exportDir
			}
			sess, err := s.sessionFrom(&exportSrc)
			if err != nil {
				return err
			}
			path, f, err := sess.Export()
			if err != nil {
				return err
			}
			out := summary("export", sess.Tiles(), "", path)
			out.CreatedAt = f.Timestamp
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), out, nil)
		},
	}
	exportSrc.bind(exportCmd, true)
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Directory for the export file (default from config)")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Rebuild blocks from an exported flow file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.newSession(false)
			if err != nil {
				return err
			}
			tiles, err := sess.Import(args[0])
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), summary("import", tiles, "", args[0]), nil)
		},
	}

	root.AddCommand(saveCmd)
	root.AddCommand(loadCmd)
	root.AddCommand(clearCmd)
	root.AddCommand(exportCmd)
	root.AddCommand(importCmd)
	return root
}

func summary(action string, tiles []canvas.Tile, key, path string) model.WorkflowSummary {
	return model.WorkflowSummary{
		Action: action,
		Blocks: len(tiles),
		Valid:  canvas.IsValid(tiles),
		Key:    key,
		Path:   path,
		Tiles:  tiles,
	}
}
