package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"agrigenie/internal/market"

	"gopkg.in/yaml.v3"
)

// Writes the built-in price catalogue as a gzipped YAML file that can be
// edited and served through MARKET_CATALOGUE_PATH or uploaded to S3.
func main() {
	dataDir := "data/catalogue"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	cat := market.DefaultCatalogue()
	filePath := filepath.Join(dataDir, "prices.yaml.gz")
	if err := writeCatalogue(filePath, cat); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	commodities := make([]string, 0, len(cat.BasePrices))
	for name := range cat.BasePrices {
		commodities = append(commodities, name)
	}
	sort.Strings(commodities)

	fmt.Printf("Created %s\n", filePath)
	fmt.Printf("\n%d commodities, %d states\n", len(cat.BasePrices), len(cat.Markets))
	for _, name := range commodities {
		fmt.Printf("  - %-10s %8.0f\n", name, cat.BasePrices[name])
	}
}

func writeCatalogue(filePath string, cat *market.Catalogue) error {
	data, err := yaml.Marshal(cat)
	if err != nil {
		return fmt.Errorf("failed to encode catalogue: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	if _, err := gzipWriter.Write(data); err != nil {
		gzipWriter.Close()
		return fmt.Errorf("failed to write catalogue: %w", err)
	}
	return gzipWriter.Close()
}
