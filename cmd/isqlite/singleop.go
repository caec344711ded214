package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iafisher/isqlite"
	"github.com/iafisher/isqlite/migrate"
	"github.com/iafisher/isqlite/schema"
)

// Single-operation commands map one-to-one to migrate.Operation variants
// and invoke the executor directly, without going through Diff.

func addColumnFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "", "SQL type of the new column")
	cmd.Flags().Bool("required", false, "render NOT NULL")
	cmd.Flags().String("default", "", "DEFAULT expression")
	cmd.Flags().Bool("unique", false, "render UNIQUE")
	cmd.Flags().Bool("primary-key", false, "render PRIMARY KEY")
	cmd.Flags().StringSlice("choices", nil, "CHECK(col IN (...)) value set")
	cmd.Flags().String("references", "", "foreign_key target table")
	cmd.Flags().String("on-delete", "", "foreign_key ON DELETE action (restrict, cascade, set_null, set_default, no_action)")
}

func columnFromFlags(cmd *cobra.Command, name string) (*schema.Column, error) {
	sqlType, _ := cmd.Flags().GetString("type")
	if sqlType == "" {
		return nil, &usageError{"--type is required"}
	}
	required, _ := cmd.Flags().GetBool("required")
	def, _ := cmd.Flags().GetString("default")
	unique, _ := cmd.Flags().GetBool("unique")
	pk, _ := cmd.Flags().GetBool("primary-key")
	choices, _ := cmd.Flags().GetStringSlice("choices")
	refTable, _ := cmd.Flags().GetString("references")
	onDelete, _ := cmd.Flags().GetString("on-delete")

	spec := schema.ColumnSpec{
		Name:       name,
		Type:       sqlType,
		Required:   required,
		Choices:    choices,
		Default:    def,
		HasDefault: cmd.Flags().Changed("default"),
		Unique:     unique,
		PrimaryKey: pk,
	}
	if refTable != "" {
		spec.ForeignKey = &schema.ForeignKey{Table: refTable, OnDelete: schema.OnDelete(onDelete)}
	}
	col, err := schema.NewColumn(spec)
	if err != nil {
		return nil, &usageError{err.Error()}
	}
	return col, nil
}

var addColumnCmd = &cobra.Command{
	Use:   "add-column <db> <table> <column>",
	Short: "Add a single column to a table.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, table, column := args[0], args[1], args[2]
		col, err := columnFromFlags(cmd, column)
		if err != nil {
			return err
		}
		db, err := isqlite.Open(dbPath, isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.ApplyDiff(cmd.Context(), []migrate.Operation{
			&migrate.AddColumn{TableName: table, Column: col},
		})
	},
}

var dropColumnCmd = &cobra.Command{
	Use:   "drop-column <db> <table> <column>",
	Short: "Drop a single column from a table.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, table, column := args[0], args[1], args[2]
		db, err := isqlite.Open(dbPath, isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.ApplyDiff(cmd.Context(), []migrate.Operation{
			&migrate.DropColumn{TableName: table, ColumnName: column},
		})
	},
}

var renameColumnCmd = &cobra.Command{
	Use:   "rename-column <db> <table> <old> <new>",
	Short: "Rename a single column.",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, table, oldName, newName := args[0], args[1], args[2], args[3]
		db, err := isqlite.Open(dbPath, isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.RenameColumn(cmd.Context(), table, oldName, newName)
	},
}

var renameTableCmd = &cobra.Command{
	Use:   "rename-table <db> <old> <new>",
	Short: "Rename a single table.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, oldName, newName := args[0], args[1], args[2]
		db, err := isqlite.Open(dbPath, isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.RenameTable(cmd.Context(), oldName, newName)
	},
}

var alterColumnCmd = &cobra.Command{
	Use:   "alter-column <db> <table> <column>",
	Short: "Replace a column's definition in place, keeping its name and position.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, table, column := args[0], args[1], args[2]
		col, err := columnFromFlags(cmd, column)
		if err != nil {
			return err
		}
		db, err := isqlite.Open(dbPath, isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.ApplyDiff(cmd.Context(), []migrate.Operation{
			&migrate.AlterColumn{TableName: table, ColumnName: column, NewColumn: col},
		})
	},
}

var dropTableCmd = &cobra.Command{
	Use:   "drop-table <db> <table>",
	Short: "Drop a single table.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, table := args[0], args[1]
		db, err := isqlite.Open(dbPath, isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.ApplyDiff(cmd.Context(), []migrate.Operation{&migrate.DropTable{Name: table}})
	},
}

var reorderColumnsCmd = &cobra.Command{
	Use:   "reorder-columns <db> <table> <col1,col2,...>",
	Short: "Change a table's on-disk column order.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, table := args[0], args[1]
		order := strings.Split(args[2], ",")
		db, err := isqlite.Open(dbPath, isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.ApplyDiff(cmd.Context(), []migrate.Operation{
			&migrate.ReorderColumns{TableName: table, NewOrder: order},
		})
	},
}

var createTableCmd = &cobra.Command{
	Use:   "create-table <db> <table>",
	Short: "Create a table from repeated --column definitions.",
	Long: `Each --column flag takes "name:type[:required][:unique][:primarykey][:default=expr]".
Example: --column "id:INTEGER:primarykey" --column "email:TEXT:required:unique"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, table := args[0], args[1]
		colDefs, _ := cmd.Flags().GetStringArray("column")
		withoutRowID, _ := cmd.Flags().GetBool("without-rowid")
		if len(colDefs) == 0 {
			return &usageError{"create-table requires at least one --column"}
		}
		cols := make([]*schema.Column, 0, len(colDefs))
		for _, def := range colDefs {
			col, err := parseColumnDef(def)
			if err != nil {
				return &usageError{err.Error()}
			}
			cols = append(cols, col)
		}
		t, err := schema.NewTable(schema.TableSpec{Name: table, Columns: cols, WithoutRowID: withoutRowID})
		if err != nil {
			return &usageError{err.Error()}
		}

		db, err := isqlite.Open(dbPath, isqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.ApplyDiff(cmd.Context(), []migrate.Operation{&migrate.CreateTable{T: t}})
	},
}

func parseColumnDef(def string) (*schema.Column, error) {
	parts := strings.Split(def, ":")
	if len(parts) < 2 {
		return nil, fmt.Errorf("column definition %q must be at least name:type", def)
	}
	spec := schema.ColumnSpec{Name: parts[0], Type: parts[1]}
	for _, flag := range parts[2:] {
		switch {
		case flag == "required":
			spec.Required = true
		case flag == "unique":
			spec.Unique = true
		case flag == "primarykey":
			spec.PrimaryKey = true
		case strings.HasPrefix(flag, "default="):
			spec.Default = strings.TrimPrefix(flag, "default=")
			spec.HasDefault = true
		default:
			return nil, fmt.Errorf("unknown column flag %q in %q", flag, def)
		}
	}
	return schema.NewColumn(spec)
}

func init() {
	addColumnFlags(addColumnCmd)
	addColumnFlags(alterColumnCmd)
	createTableCmd.Flags().StringArray("column", nil, `column definition, "name:type[:required][:unique][:primarykey][:default=expr]"`)
	createTableCmd.Flags().Bool("without-rowid", false, "render WITHOUT ROWID")
	rootCmd.AddCommand(addColumnCmd, dropColumnCmd, renameColumnCmd, renameTableCmd,
		alterColumnCmd, dropTableCmd, reorderColumnsCmd, createTableCmd)
}
