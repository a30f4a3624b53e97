package schema_test

import (
	"fmt"
	"log"

	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/schema"
)

func ExampleParseCreateTable() {
	t, err := schema.ParseCreateTable(`CREATE TABLE apples
(
	id integer primary key autoincrement,
	name text,
	color text
)`)
	if err != nil {
		log.Fatal(err)
	}

	for _, c := range t.Columns {
		fmt.Printf("%d %s %s\n", c.Position, c.Name, c.Affinity)
	}
	fmt.Println("rowid alias:", t.RowIDAlias())

	// Output:
	// 0 id INTEGER
	// 1 name TEXT
	// 2 color TEXT
	// rowid alias: 0
}
