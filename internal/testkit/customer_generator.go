package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
)

// CustomerGeneratorConfig configures the synthetic bank customer generator
type CustomerGeneratorConfig struct {
	CustomerCount int     `json:"customer_count"`
	Seed          int64   `json:"seed"`
	ComplaintRate float64 `json:"complaint_rate"`
	// MissingSignalRate blanks the Complain or Satisfaction Score cell
	MissingSignalRate float64 `json:"missing_signal_rate"`
	WithCardType      bool    `json:"with_card_type"`
}

// DefaultCustomerConfig returns defaults close to the published churn dataset
func DefaultCustomerConfig() CustomerGeneratorConfig {
	return CustomerGeneratorConfig{
		CustomerCount: 1000,
		Seed:          42,
		ComplaintRate: 0.2,
		WithCardType:  true,
	}
}

// Headers of the generated table, in the published column order
func (c CustomerGeneratorConfig) Headers() []string {
	h := []string{
		"RowNumber", "CustomerId", "Surname", "CreditScore", "Geography", "Gender", "Age", "Tenure",
		"Balance", "NumOfProducts", "HasCrCard", "IsActiveMember", "EstimatedSalary", "Exited",
		"Complain", "Satisfaction Score",
	}
	if c.WithCardType {
		h = append(h, "Card Type", "Point Earned")
	}
	return h
}

// CustomerGenerator produces reproducible customer rows. Churn is driven
// mostly by complaints, with smaller effects from inactivity, age and
// geography, so aggregates have visible structure.
type CustomerGenerator struct {
	config CustomerGeneratorConfig
	rng    *rand.Rand
}

// NewCustomerGenerator creates a new generator
func NewCustomerGenerator(config CustomerGeneratorConfig) *CustomerGenerator {
	return &CustomerGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

var (
	surnames    = []string{"Hargrave", "Hill", "Onio", "Boni", "Mitchell", "Chu", "Bartlett", "Obinna", "He", "Scott"}
	geographies = []string{"France", "Germany", "Spain"}
	cardTypes   = []string{"SILVER", "GOLD", "PLATINUM", "DIAMOND"}
)

// Rows generates every customer row as strings
func (g *CustomerGenerator) Rows() [][]string {
	rows := make([][]string, 0, g.config.CustomerCount)
	for i := 0; i < g.config.CustomerCount; i++ {
		rows = append(rows, g.row(i+1))
	}
	return rows
}

func (g *CustomerGenerator) row(n int) []string {
	r := g.rng
	geo := geographies[weightedIndex(r, []float64{0.5, 0.25, 0.25})]
	age := clampInt(int(math.Round(38+r.NormFloat64()*10)), 18, 92)
	active := r.Float64() < 0.52
	products := 1 + weightedIndex(r, []float64{0.5, 0.46, 0.03, 0.01})
	complaint := r.Float64() < g.config.ComplaintRate

	balance := 0.0
	if r.Float64() > 0.36 {
		balance = math.Round((76000+r.NormFloat64()*30000)*100) / 100
		if balance < 0 {
			balance = 0
		}
	}

	// complaints almost always end in churn
	p := 0.05
	if !active {
		p += 0.08
	}
	if age > 50 {
		p += 0.15
	}
	if geo == "Germany" {
		p += 0.08
	}
	if complaint {
		p = 0.97
	}
	churned := r.Float64() < p

	complainCell := flag(complaint)
	satisfactionCell := strconv.Itoa(1 + r.Intn(5))
	if r.Float64() < g.config.MissingSignalRate {
		if r.Intn(2) == 0 {
			complainCell = ""
		} else {
			satisfactionCell = ""
		}
	}

	row := []string{
		strconv.Itoa(n),
		strconv.Itoa(15565700 + n),
		surnames[r.Intn(len(surnames))],
		strconv.Itoa(clampInt(int(math.Round(650+r.NormFloat64()*96)), 350, 850)),
		geo,
		[]string{"Male", "Female"}[r.Intn(2)],
		strconv.Itoa(age),
		strconv.Itoa(r.Intn(11)),
		strconv.FormatFloat(balance, 'f', 2, 64),
		strconv.Itoa(products),
		flag(r.Float64() < 0.7),
		flag(active),
		strconv.FormatFloat(math.Round(r.Float64()*20000000)/100, 'f', 2, 64),
		flag(churned),
		complainCell,
		satisfactionCell,
	}
	if g.config.WithCardType {
		row = append(row, cardTypes[r.Intn(len(cardTypes))], strconv.Itoa(119+r.Intn(881)))
	}
	return row
}

// WriteCSV writes the header and every row to w
func (g *CustomerGenerator) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(g.config.Headers()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(g.Rows()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func weightedIndex(r *rand.Rand, weights []float64) int {
	x := r.Float64()
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(weights) - 1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
