// Command report renders the end-of-day trading summary for one trading day
// as a table. It reads the JSONL trade log, writes the EOD CSV and prints
// the aggregation.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"asx-auto-trader/internal/eod"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/schedule"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	date := flag.String("date", "", "trading day to summarize, YYYY-MM-DD (default: today in Sydney)")
	dir := flag.String("dir", "", "trade log directory (default: TRADER_LOG_DIR or ./logs)")
	flag.Parse()

	_ = godotenv.Load()
	must(logger.Init())

	if *dir != "" {
		os.Setenv("TRADER_LOG_DIR", *dir)
	}

	day := schedule.Now()
	if *date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *date, schedule.Location())
		must(err)
		day = parsed
	}

	csvPath, err := eod.NewSummarizer().SummarizeDay(day)
	must(err)
	if csvPath == "" {
		fmt.Printf("No trades logged for %s\n", day.Format("2006-01-02"))
		return
	}

	records, err := readCSV(csvPath)
	must(err)
	render(day, csvPath, records)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}

// render prints the EOD aggregation. The CSV's first row is the header and
// its last row is the TOTAL line, which becomes the table footer.
func render(day time.Time, csvPath string, records [][]string) {
	if len(records) < 2 {
		fmt.Printf("No trades logged for %s\n", day.Format("2006-01-02"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("EOD Summary %s", day.Format("2006-01-02"))
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(toRow(records[0]))
	body := records[1:]
	if last := records[len(records)-1]; len(last) > 0 && last[0] == "TOTAL" {
		body = records[1 : len(records)-1]
		t.AppendFooter(toRow(last))
	}
	for _, rec := range body {
		t.AppendRow(toRow(rec))
	}

	t.Render()
	fmt.Printf("CSV written to %s\n", csvPath)
}

func toRow(rec []string) table.Row {
	row := make(table.Row, len(rec))
	for i, v := range rec {
		row[i] = v
	}
	return row
}
