package batch

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DemandLine is one parsed row of the shortage file: what the outlet
// wants and how much of it.
type DemandLine struct {
	Product  string
	Producer string
	Quantity uint32

	// Extra carries per-row values of the service fields, positionally
	// aligned with the names returned by parseDemandFile.
	Extra []string
}

// parseDemandFile reads an extracted shortage file: Windows-1251,
// tab-separated, columns product name / producer name / quantity, with
// any further columns treated as client service fields. An optional
// leading line starting with '#' names those service fields.
//
// Empty lines are skipped. A quantity that fails numeric conversion is a
// fatal parse error.
func parseDemandFile(path string) ([]DemandLine, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open shortage file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(transform.NewReader(f, charmap.Windows1251.NewDecoder()))

	var demands []DemandLine
	var serviceFields []string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimRight(scanner.Text(), "\r\n")
		if text == "" {
			continue
		}

		if lineNo == 1 && strings.HasPrefix(text, "#") {
			cols := strings.Split(strings.TrimPrefix(text, "#"), "\t")
			if len(cols) > 3 {
				serviceFields = cols[3:]
			}
			continue
		}

		cols := strings.Split(text, "\t")
		if len(cols) < 3 {
			return nil, nil, fmt.Errorf("shortage file line %d: want at least 3 columns, got %d", lineNo, len(cols))
		}

		qty, err := strconv.ParseUint(strings.TrimSpace(cols[2]), 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("shortage file line %d: bad quantity %q: %w", lineNo, cols[2], err)
		}

		d := DemandLine{
			Product:  strings.TrimSpace(cols[0]),
			Producer: strings.TrimSpace(cols[1]),
			Quantity: uint32(qty),
		}
		if len(cols) > 3 {
			d.Extra = cols[3:]
		}
		demands = append(demands, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read shortage file: %w", err)
	}

	return demands, serviceFields, nil
}
