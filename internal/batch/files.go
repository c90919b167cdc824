package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/infarma/ordergate/internal/order"
)

// Files are the fixed output paths of one processed batch, ready for
// archiving by the export collaborator.
type Files struct {
	Report        string
	Orders        string
	OrderItems    string
	ServiceFields string
}

// nullMarker is the export representation of an absent value.
const nullMarker = `\N`

// writeFiles serializes the sourcing result to flat tab-delimited
// Windows-1251 text files in dir. Order and line ids are allocated from
// seq; report rows reference line ids so the collaborator can correlate
// them after import.
func (p *Processor) writeFiles(dir string, res *sourceResult, seq *Sequences) (Files, error) {
	files := Files{
		Report:     filepath.Join(dir, "BatchReport.txt"),
		Orders:     filepath.Join(dir, "BatchOrder.txt"),
		OrderItems: filepath.Join(dir, "BatchOrderItems.txt"),
	}
	if len(res.service) > 0 {
		files.ServiceFields = filepath.Join(dir, "BatchReportServiceFields.txt")
	}

	lineIDs := make(map[*order.OrderLine]uint64)

	var orderRows, itemRows []string
	for _, key := range res.keys {
		head := res.orders[key]
		head.ServerOrderID = seq.NextOrderID()
		orderRows = append(orderRows, strings.Join([]string{
			formatUint(head.ServerOrderID),
			formatUint(p.addressID),
			formatUint(head.PriceListID),
			formatUint(head.RegionID),
		}, "\t"))

		for _, l := range head.Lines {
			id := seq.NextOrderLineID()
			lineIDs[l] = id
			itemRows = append(itemRows, strings.Join([]string{
				formatUint(id),
				formatUint(head.ServerOrderID),
				formatUint(p.addressID),
				formatUint(l.CatalogLineID),
				formatUint(l.ProductID),
				formatOptUint(l.ProducerID),
				formatUint(l.SynonymCode),
				formatOptUint(l.ProducerSynonym),
				l.Code,
				l.CodeCr,
				l.Cost.String(),
				formatBool(l.Await),
				formatBool(l.Junk),
				formatUint(uint64(l.Quantity)),
				formatOptUint(l.RequestRatio),
				formatOptDecimal(l.OrderCost),
				formatOptUint(l.MinOrderCount),
			}, "\t"))
		}
	}

	var reportRows []string
	for _, item := range res.report {
		cols := []string{
			formatUint(seq.NextReportID()),
			formatUint(p.addressID),
			item.Demand.Product,
			item.Demand.Producer,
			formatUint(uint64(item.Demand.Quantity)),
		}
		if item.Line != nil {
			cols = append(cols, formatUint(lineIDs[item.Line]))
		} else {
			cols = append(cols, nullMarker)
		}
		cols = append(cols,
			fmt.Sprintf("%d", int(item.Status)),
			formatOptUint(item.ProductID),
			formatOptUint(item.ProducerID),
		)
		cols = append(cols, item.Demand.Extra...)
		reportRows = append(reportRows, strings.Join(cols, "\t"))
	}

	if err := writeExportFile(files.Orders, orderRows); err != nil {
		return Files{}, err
	}
	if err := writeExportFile(files.OrderItems, itemRows); err != nil {
		return Files{}, err
	}
	if err := writeExportFile(files.Report, reportRows); err != nil {
		return Files{}, err
	}
	if files.ServiceFields != "" {
		if err := writeExportFile(files.ServiceFields, res.service); err != nil {
			return Files{}, err
		}
	}

	return files, nil
}

// writeExportFile writes one row per line, Windows-1251 encoded.
func writeExportFile(path string, rows []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	w := bufio.NewWriter(transform.NewWriter(f, charmap.Windows1251.NewEncoder()))
	for _, row := range rows {
		if _, err := w.WriteString(row + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func formatUint(v uint64) string { return fmt.Sprintf("%d", v) }

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func formatOptUint(v order.OptUint64) string {
	if !v.Present {
		return nullMarker
	}
	return formatUint(v.Value)
}

func formatOptDecimal(v order.OptDecimal) string {
	if !v.Present {
		return nullMarker
	}
	return v.Value.String()
}
