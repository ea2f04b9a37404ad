// Package upload loads the demo schema and table data into the predictive database.
package upload

import "github.com/AitoDotAI/aito-demo/internal/transport/aito"

// Method selects the data API used for a table.
type Method string

// Upload methods.
const (
	MethodBatch Method = "batch"
	MethodFile  Method = "file"
)

// MaxBatchBytes is the largest JSON body sent to the batch API; bigger tables go through file upload.
const MaxBatchBytes = 8 * 1024 * 1024

// SchemaFile is the schema document inside the data directory.
const SchemaFile = "schema.json"

// Table describes how one table's data file is uploaded.
type Table struct {
	Name   string
	File   string
	Method Method
}

// Tables lists every table in dependency order: referenced tables come first.
var Tables = []Table{
	{Name: aito.TableUsers, File: "users.json", Method: MethodBatch},
	{Name: aito.TableProducts, File: "products.json", Method: MethodBatch},
	{Name: aito.TableEmployees, File: "employees.json", Method: MethodBatch},
	{Name: aito.TableGLCodes, File: "glCodes.json", Method: MethodBatch},
	{Name: aito.TableAnswers, File: "answers.json", Method: MethodBatch},
	{Name: aito.TableVisits, File: "visits.json", Method: MethodBatch},
	{Name: aito.TableContexts, File: "contexts.json", Method: MethodBatch},
	{Name: aito.TableImpressions, File: "impressions.ndjson", Method: MethodFile},
	{Name: aito.TablePrompts, File: "prompts.json", Method: MethodBatch},
	{Name: aito.TableQuestions, File: "questions.json", Method: MethodBatch},
	{Name: aito.TableInvoices, File: "invoices.json", Method: MethodBatch},
}

// Lookup returns the table config by name.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
