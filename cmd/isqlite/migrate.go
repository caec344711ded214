package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iafisher/isqlite"
	"github.com/iafisher/isqlite/migrate"
	"github.com/iafisher/isqlite/schema"
	"github.com/iafisher/isqlite/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <db> <schema-name>",
	Short: "Diff a registered schema against a database and, with --write, apply it.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, schemaName := args[0], args[1]
		noRename, _ := cmd.Flags().GetBool("no-rename")
		write, _ := cmd.Flags().GetBool("write")

		declared, err := resolveSchema(schemaName)
		if err != nil {
			return err
		}

		db, err := isqlite.Open(dbPath, isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()

		ops, err := db.Diff(cmd.Context(), declared, sqlite.DiffOptions{DetectRenaming: !noRename})
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "schema already matches the database")
			return nil
		}

		plan := migrate.NewPlan(schemaName, ops)
		fmt.Fprint(cmd.OutOrStdout(), plan.String())
		if !write {
			fmt.Fprintln(cmd.OutOrStdout(), "(dry run: pass --write to apply)")
			return nil
		}
		return db.ApplyDiff(cmd.Context(), ops)
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <db> <schema-name>",
	Short: "Print the pending migration plan without applying it.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, schemaName := args[0], args[1]
		noRename, _ := cmd.Flags().GetBool("no-rename")

		declared, err := resolveSchema(schemaName)
		if err != nil {
			return err
		}

		db, err := isqlite.Open(dbPath, isqlite.WithReadonly(), isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()

		ops, err := db.Diff(cmd.Context(), declared, sqlite.DiffOptions{DetectRenaming: !noRename})
		if err != nil {
			return err
		}
		plan := migrate.NewPlan(schemaName, ops)
		fmt.Fprint(cmd.OutOrStdout(), plan.String())
		return nil
	},
}

func resolveSchema(name string) (*schema.Schema, error) {
	build, ok := isqlite.LookupSchema(name)
	if !ok {
		return nil, &usageError{fmt.Sprintf("no schema registered under name %q (registered: %v)", name, isqlite.RegisteredSchemaNames())}
	}
	s, err := build()
	if err != nil {
		return nil, &usageError{err.Error()}
	}
	return s, nil
}

func init() {
	migrateCmd.Flags().Bool("no-rename", false, "disable rename detection")
	migrateCmd.Flags().Bool("write", false, "apply the migration instead of only printing it")
	diffCmd.Flags().Bool("no-rename", false, "disable rename detection")
	rootCmd.AddCommand(migrateCmd, diffCmd)
}
