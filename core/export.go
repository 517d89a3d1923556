package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/planfoundry/compliance-checker/model"
)

// exportColumns is the tabular export contract. The column order is a
// compatibility surface for downstream tooling; do not reorder.
var exportColumns = []string{"global_id", "name", "storey", "area_m2", "category"}

// WriteCSV serializes one record per classified space as comma-separated
// values with a header row. Unknown areas render as an empty cell, known
// areas with two decimals.
func WriteCSV(w io.Writer, records []model.SpaceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return fmt.Errorf("WriteCSV: header: %w", err)
	}
	for _, r := range records {
		area := ""
		if v, ok := r.Area.Value(); ok {
			area = strconv.FormatFloat(v, 'f', 2, 64)
		}
		row := []string{r.GlobalID, r.Name, r.Storey, area, r.Category.String()}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteCSV: record %s: %w", r.GlobalID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
