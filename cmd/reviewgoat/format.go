package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

func formatAverage(avg float64) string {
	if math.IsNaN(avg) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", avg)
}

// printTop prints the five most frequent entries of a frequency list.
func printTop(title string, freq []types.Frequency) {
	if len(freq) == 0 {
		return
	}
	n := min(5, len(freq))
	parts := make([]string, n)
	for i, f := range freq[:n] {
		parts[i] = fmt.Sprintf("%s (%d)", f.Value, f.Count)
	}
	fmt.Printf("  %-17s %s\n", title+":", strings.Join(parts, ", "))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
