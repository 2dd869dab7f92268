// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metric

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
)

// WriteCSV writes records as CSV with header row.
func WriteCSV(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)
	if err := csvutil.NewEncoder(w).Encode(records); err != nil {
		return fmt.Errorf("writing CSV report: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV report: %w", err)
	}
	return nil
}
