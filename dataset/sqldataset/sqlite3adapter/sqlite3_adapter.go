/*
Package sqlite3adapter provides an implementation of the Adapter
interface in the sqldataset package that works over an SQLite3 database
file.
*/
package sqlite3adapter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pbanos/grove/dataset/sqldataset"

	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

/*
MaxSampleInsertionsPerStatement is the maximum number of samples that
are allowed to be added with a single insert command with the AddSamples
method of the adapter. Trying to add more will result in making more
insertion commands.
*/
const MaxSampleInsertionsPerStatement = 10

type adapter struct {
	db *sql.DB
}

/*
New takes a path to an SQLite3 database file and a limit to the number
of open connections (0 meaning no limit) and returns an Adapter that
works on the file's database or an error if it fails to open as an
sqlite3 database.
*/
func New(path string, maxConns int) (sqldataset.Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	return &adapter{db}, nil
}

func (a *adapter) ColumnName(featureName string) (string, error) {
	if featureName == "id" {
		return "", fmt.Errorf(`'%s' is reserved and cannot be used as feature name`, featureName)
	}
	if strings.ContainsAny(featureName, `"`) {
		return "", fmt.Errorf(`feature name '%s' contains invalid character '"'`, featureName)
	}
	return featureName, nil
}

func (a *adapter) CreateSampleTable(ctx context.Context, categoricalColumns, continuousColumns []string) error {
	var createStmtBuf bytes.Buffer
	createStmtBuf.WriteString("CREATE TABLE IF NOT EXISTS samples(id INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, column := range categoricalColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`, "%s" TEXT`, column))
	}
	for _, column := range continuousColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`, "%s" REAL`, column))
	}
	createStmtBuf.WriteString(")")
	createStmt, err := a.db.PrepareContext(ctx, createStmtBuf.String())
	if err != nil {
		return fmt.Errorf("preparing samples creation statement: %v", err)
	}
	defer createStmt.Close()
	_, err = createStmt.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("running samples creation statement: %v", err)
	}
	return nil
}

func (a *adapter) AddSamples(ctx context.Context, rawSamples []map[string]interface{}, categoricalColumns, continuousColumns []string) (int, error) {
	var inserted int
	for len(rawSamples) > 0 {
		batch := rawSamples
		if len(batch) > MaxSampleInsertionsPerStatement {
			batch = batch[:MaxSampleInsertionsPerStatement]
		}
		rawSamples = rawSamples[len(batch):]
		n, err := a.addSamplesBatch(ctx, batch, categoricalColumns, continuousColumns)
		inserted += n
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

func (a *adapter) addSamplesBatch(ctx context.Context, rawSamples []map[string]interface{}, categoricalColumns, continuousColumns []string) (int, error) {
	columns := append(append([]string{}, categoricalColumns...), continuousColumns...)
	var insertStmtBuf bytes.Buffer
	insertStmtBuf.WriteString(`INSERT INTO samples("`)
	insertStmtBuf.WriteString(strings.Join(columns, `", "`))
	insertStmtBuf.WriteString(`") VALUES `)
	values := make([]interface{}, 0, len(rawSamples)*len(columns))
	for i, rawSample := range rawSamples {
		if i != 0 {
			insertStmtBuf.WriteString(", ")
		}
		insertStmtBuf.WriteString("(")
		for j, column := range columns {
			if j != 0 {
				insertStmtBuf.WriteString(", ")
			}
			insertStmtBuf.WriteString("?")
			values = append(values, rawSample[column])
		}
		insertStmtBuf.WriteString(")")
	}
	insertStmt, err := a.db.PrepareContext(ctx, insertStmtBuf.String())
	if err != nil {
		return 0, fmt.Errorf("preparing samples insertion statement: %v", err)
	}
	defer insertStmt.Close()
	_, err = insertStmt.ExecContext(ctx, values...)
	if err != nil {
		return 0, fmt.Errorf("running samples insertion statement: %v", err)
	}
	return len(rawSamples), nil
}

func (a *adapter) IterateOnSamples(ctx context.Context, categoricalColumns, continuousColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error {
	columns := append(append([]string{}, categoricalColumns...), continuousColumns...)
	query := fmt.Sprintf(`SELECT "%s" FROM samples ORDER BY id`, strings.Join(columns, `", "`))
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying samples: %v", err)
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		scanned := make([]interface{}, len(columns))
		for j := range columns {
			if j < len(categoricalColumns) {
				scanned[j] = &sql.NullString{}
			} else {
				scanned[j] = &sql.NullFloat64{}
			}
		}
		err = rows.Scan(scanned...)
		if err != nil {
			return fmt.Errorf("scanning sample %d: %v", i, err)
		}
		rawSample := make(map[string]interface{})
		for j, column := range columns {
			switch v := scanned[j].(type) {
			case *sql.NullString:
				if v.Valid {
					rawSample[column] = v.String
				}
			case *sql.NullFloat64:
				if v.Valid {
					rawSample[column] = v.Float64
				}
			}
		}
		ok, err := lambda(i, rawSample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return rows.Err()
}

func (a *adapter) CountSamples(ctx context.Context) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM samples").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting samples: %v", err)
	}
	return count, nil
}
