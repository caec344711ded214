package sqlite

import (
	"github.com/iafisher/isqlite/migrate"
	"github.com/iafisher/isqlite/schema"
)

// DiffOptions configures the diff engine.
type DiffOptions struct {
	// DetectRenaming enables the rename-detection heuristic. The zero
	// value leaves it off; the Database façade passes DiffOptions through
	// unchanged and does not turn it on by default.
	DetectRenaming bool
	// StrictRename turns a DiffAmbiguityError into a hard failure
	// instead of a warning.
	StrictRename bool
}

// Diff is a pure function: it never touches the database. Identical
// (declared, live, opts) always produce an identical operation list.
// Warnings carries any DiffAmbiguityError encountered; they are returned
// alongside the operations (as a drop+add pair) unless opts.StrictRename
// is set, in which case the first warning is also returned as err.
func Diff(declared, live *schema.Schema, opts DiffOptions) (ops []migrate.Operation, warnings []*DiffAmbiguityError, err error) {
	var creates, drops, modifies []migrate.Operation

	for _, name := range declared.Names() {
		if _, ok := live.Get(name); !ok {
			t, _ := declared.Get(name)
			creates = append(creates, &migrate.CreateTable{T: t})
		}
	}
	for _, name := range live.Names() {
		if _, ok := declared.Get(name); !ok {
			drops = append(drops, &migrate.DropTable{Name: name})
		}
	}
	for _, name := range declared.Names() {
		dt, _ := declared.Get(name)
		lt, ok := live.Get(name)
		if !ok {
			continue
		}
		tableOps, tableWarnings := diffTable(dt, lt, opts)
		modifies = append(modifies, tableOps...)
		warnings = append(warnings, tableWarnings...)
	}

	if opts.StrictRename && len(warnings) > 0 {
		return nil, warnings, warnings[0]
	}

	ops = make([]migrate.Operation, 0, len(creates)+len(modifies)+len(drops))
	ops = append(ops, creates...)
	ops = append(ops, modifies...)
	ops = append(ops, drops...)
	return ops, warnings, nil
}

// diffTable computes the operations needed to turn one live table into
// its declared counterpart.
func diffTable(d, l *schema.Table, opts DiffOptions) ([]migrate.Operation, []*DiffAmbiguityError) {
	dNames, lNames := d.ColumnNames(), l.ColumnNames()
	dIndex, lIndex := indexOf(dNames), indexOf(lNames)

	dropped := make(map[string]bool)
	added := make(map[string]bool)
	for _, n := range lNames {
		if _, ok := d.Column(n); !ok {
			dropped[n] = true
		}
	}
	for _, n := range dNames {
		if _, ok := l.Column(n); !ok {
			added[n] = true
		}
	}

	var alters []migrate.Operation
	for _, n := range dNames {
		dc, _ := d.Column(n)
		lc, ok := l.Column(n)
		if ok && !dc.Equal(lc) {
			alters = append(alters, &migrate.AlterColumn{TableName: d.Name(), ColumnName: n, NewColumn: dc})
		}
	}

	var warnings []*DiffAmbiguityError
	renameOf := make(map[string]string) // old live name -> new declared name
	if opts.DetectRenaming {
		for _, x := range lNames {
			if !dropped[x] {
				continue
			}
			lx, _ := l.Column(x)
			var candidates []string
			for _, y := range dNames {
				if !added[y] {
					continue
				}
				dy, _ := d.Column(y)
				if lx.EqualModuloName(dy) && lIndex[x] == dIndex[y] {
					candidates = append(candidates, y)
				}
			}
			switch len(candidates) {
			case 0:
				// no candidate: x remains dropped.
			case 1:
				y := candidates[0]
				dy, _ := d.Column(y)
				// Guard: a rename candidate whose (name-stripped)
				// definition is shared by another declared column is
				// not a confident rename — the differ cannot tell it
				// apart from "keep the sibling, add a fresh column".
				if definitionCollisionCount(d, dy) > 1 {
					warnings = append(warnings, &DiffAmbiguityError{Table: d.Name(), OldColumn: x, Candidates: candidates})
					continue
				}
				renameOf[x] = y
				delete(dropped, x)
				delete(added, y)
			default:
				warnings = append(warnings, &DiffAmbiguityError{Table: d.Name(), OldColumn: x, Candidates: candidates})
			}
		}
	}

	var renames, dropCols, addCols []migrate.Operation
	var addedOrder []string
	for _, x := range lNames {
		if newName, ok := renameOf[x]; ok {
			renames = append(renames, &migrate.RenameColumn{TableName: d.Name(), OldName: x, NewName: newName})
		}
	}
	for _, n := range lNames {
		if dropped[n] {
			dropCols = append(dropCols, &migrate.DropColumn{TableName: d.Name(), ColumnName: n})
		}
	}
	for _, n := range dNames {
		if added[n] {
			dc, _ := d.Column(n)
			addCols = append(addCols, &migrate.AddColumn{TableName: d.Name(), Column: dc})
			addedOrder = append(addedOrder, n)
		}
	}

	ops := make([]migrate.Operation, 0, len(alters)+len(renames)+len(dropCols)+len(addCols)+1)
	ops = append(ops, alters...)
	ops = append(ops, renames...)
	ops = append(ops, dropCols...)
	ops = append(ops, addCols...)

	resultOrder := resultingColumnOrder(lNames, renameOf, dropped, addedOrder)
	if !namesEqual(resultOrder, dNames) {
		ops = append(ops, &migrate.ReorderColumns{TableName: d.Name(), NewOrder: dNames})
	}

	return ops, warnings
}

// definitionCollisionCount counts how many columns of t (by definition,
// ignoring name) match target's definition.
func definitionCollisionCount(t *schema.Table, target *schema.Column) int {
	n := 0
	for _, c := range t.Columns() {
		if c.EqualModuloName(target) {
			n++
		}
	}
	return n
}

// resultingColumnOrder computes the column order SQLite would have after
// applying the rename/drop/add operations above: renamed columns keep
// their live position, dropped columns are removed, and newly added
// columns are appended at the end in the order they were declared.
func resultingColumnOrder(lNames []string, renameOf map[string]string, dropped map[string]bool, addedOrder []string) []string {
	order := make([]string, 0, len(lNames)+len(addedOrder))
	for _, n := range lNames {
		if dropped[n] {
			continue
		}
		if newName, ok := renameOf[n]; ok {
			order = append(order, newName)
		} else {
			order = append(order, n)
		}
	}
	order = append(order, addedOrder...)
	return order
}

func indexOf(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}

func namesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
