package core

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/JonMunkholm/console/internal/grid"
	"github.com/JonMunkholm/console/internal/grid/engine"
	"github.com/shopspring/decimal"
)

var seedWords = []string{
	"Acme", "Northwind", "Globex", "Initech", "Umbrella", "Hooli", "Vandelay",
	"Stark", "Wayne", "Tyrell", "Soylent", "Cyberdyne", "Wonka", "Gringotts",
	"Oceanic", "Monarch", "Aperture", "Massive", "Dunder", "Pied Piper",
}

var seedNouns = []string{
	"Mug", "Tee", "Hoodie", "Poster", "Cap", "Tote", "Sticker", "Notebook",
	"Bottle", "Candle",
}

// seedEpoch anchors generated dates so seeded data is stable across runs.
var seedEpoch = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

// SeedRows generates n deterministic rows for a feature. Enum and tag
// columns draw from the feature's filter values so every option has rows.
func SeedRows(f Feature, n int, seed uint64) []engine.Row {
	rng := rand.New(rand.NewPCG(seed, hashKey(f.Key)))
	rows := make([]engine.Row, n)
	for i := range rows {
		vals := make(map[string]any, len(f.Columns))
		for _, c := range f.Columns {
			vals[c.ID] = seedCell(f, c, i, rng)
		}
		rows[i] = engine.Row{ID: fmt.Sprintf("%s-%04d", f.Key, i+1), Values: vals}
	}
	return rows
}

func seedCell(f Feature, c ColumnSpec, i int, rng *rand.Rand) any {
	var choices []string
	if fs, ok := f.Filter(c.ID); ok {
		choices = fs.Values()
		if fs.Tree() {
			choices = leafValues(fs)
		}
	}

	switch c.Type {
	case ColumnEnum:
		if len(choices) == 0 {
			return seedWords[rng.IntN(len(seedWords))]
		}
		return choices[rng.IntN(len(choices))]
	case ColumnTags:
		if len(choices) == 0 {
			return nil
		}
		var tags []string
		for _, v := range choices {
			if rng.IntN(3) == 0 {
				tags = append(tags, v)
			}
		}
		return tags
	case ColumnDate:
		return seedEpoch.AddDate(0, 0, -rng.IntN(180)).Add(time.Duration(rng.IntN(24)) * time.Hour)
	case ColumnMoney:
		return decimal.New(int64(rng.IntN(50000)+100), -2)
	case ColumnNumber:
		return int64(rng.IntN(500) + 1)
	}

	switch {
	case strings.HasSuffix(c.ID, "_no"), c.ID == "reference", c.ID == "sku":
		return fmt.Sprintf("%s-%05d", strings.ToUpper(f.Key[:2]), 10000+i)
	case c.ID == "product", c.ID == "title", c.ID == "name":
		return seedWords[rng.IntN(len(seedWords))] + " " + seedNouns[rng.IntN(len(seedNouns))]
	}
	return seedWords[rng.IntN(len(seedWords))]
}

// leafValues returns tree values without children, so rows sit at the
// most specific category like real catalog data.
func leafValues(fs FilterSpec) []string {
	var out []string
	var walk func(items []grid.CategoryItem)
	walk = func(items []grid.CategoryItem) {
		for _, it := range items {
			if len(it.Children) == 0 {
				out = append(out, it.Value)
				continue
			}
			walk(it.Children)
		}
	}
	walk(fs.Categories)
	return out
}

func hashKey(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
