// Package market implements the market-entry scoring engine: the country
// indicator table, profile-driven weight derivation, and the weighted
// ranking of candidate markets.
package market

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/consultai/internal/model"
)

//go:embed data/countries.csv
var embeddedDataset []byte

const (
	countryColumn = "Country"
	regionColumn  = "Region"
)

// LoadDataset reads the country indicator table. An empty path loads the
// embedded curated dataset. Rows missing any scoring metric or reporting
// non-positive internet penetration are dropped.
func LoadDataset(path string) ([]model.CountryMetrics, error) {
	var r io.Reader
	if path == "" {
		r = bytes.NewReader(embeddedDataset)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "market: open dataset")
		}
		defer f.Close()
		r = f
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "market: read dataset header")
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	required := []string{countryColumn, regionColumn}
	for _, m := range model.ScoringMetrics {
		required = append(required, string(m))
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("market: dataset missing required columns: %s", strings.Join(missing, ", "))
	}

	var (
		rows    []model.CountryMetrics
		skipped int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "market: read dataset row")
		}

		row := model.CountryMetrics{
			Country: strings.TrimSpace(record[idx[countryColumn]]),
			Region:  strings.TrimSpace(record[idx[regionColumn]]),
			Values:  make(map[model.Metric]float64, len(model.ScoringMetrics)),
		}

		usable := row.Country != ""
		for _, m := range model.ScoringMetrics {
			col := idx[string(m)]
			if col >= len(record) {
				usable = false
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				usable = false
				break
			}
			row.Values[m] = v
		}
		if usable && row.Values[model.MetricInternet] <= 0 {
			usable = false
		}
		if !usable {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, eris.New("market: no usable market rows remain after cleaning")
	}

	zap.L().Info("market: dataset loaded",
		zap.Int("countries", len(rows)),
		zap.Int("skipped", skipped),
		zap.Bool("embedded", path == ""),
	)

	return rows, nil
}
