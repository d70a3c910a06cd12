// Package report turns a sweep result into the plain structures handed to
// downstream reporting: a language-neutral JSON document and a
// human-readable summary for the CLI.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/starfield-lab/astrobench/internal/model"
)

// Document is the exported form of a sweep: nested scalar mappings only, so
// any plotting or reporting technology can consume it without depending on
// the engine's internals.
type Document struct {
	ID         string                                 `json:"id"`
	StartedAt  time.Time                              `json:"started_at"`
	FinishedAt time.Time                              `json:"finished_at"`
	Scenes     []string                               `json:"scenes"`
	Configs    []string                               `json:"configs"`
	Cells      map[string]map[string]model.CellResult `json:"cells"`
}

// Build converts a sweep result to its exportable document, keyed scene →
// config. Every requested cell appears exactly once.
func Build(sr *model.SweepResult) (*Document, error) {
	doc := &Document{
		ID:         sr.ID,
		StartedAt:  sr.StartedAt,
		FinishedAt: sr.FinishedAt,
		Scenes:     sr.Scenes,
		Configs:    sr.Configs,
		Cells:      make(map[string]map[string]model.CellResult, len(sr.Scenes)),
	}
	for key, cell := range sr.Cells {
		byConfig, ok := doc.Cells[key.Scene]
		if !ok {
			byConfig = make(map[string]model.CellResult, len(sr.Configs))
			doc.Cells[key.Scene] = byConfig
		}
		if _, dup := byConfig[key.Config]; dup {
			return nil, eris.Errorf("report: duplicate cell %s/%s", key.Scene, key.Config)
		}
		byConfig[key.Config] = cell
	}
	return doc, nil
}

// Export serializes the sweep result as indented JSON.
func Export(sr *model.SweepResult) ([]byte, error) {
	doc, err := Build(sr)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "report: marshal")
	}
	return out, nil
}

// Summary renders a fixed-width table of match counts and positional error
// per cell, scenes and configs in sorted order.
func Summary(sr *model.SweepResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Sweep %s\n", sr.ID)
	fmt.Fprintf(&b, "Cells: %d (%d failed), elapsed %s\n\n",
		len(sr.Cells), len(sr.FailedCells()), sr.FinishedAt.Sub(sr.StartedAt).Round(time.Millisecond))

	sceneNames := append([]string(nil), sr.Scenes...)
	configNames := append([]string(nil), sr.Configs...)
	sort.Strings(sceneNames)
	sort.Strings(configNames)

	fmt.Fprintf(&b, "%-28s %-20s %8s %7s %7s %12s %12s\n",
		"SCENE", "CONFIG", "MATCHES", "MISSES", "FALSE", "POS MEAN", "POS P95")

	for _, sceneName := range sceneNames {
		for _, cfgName := range configNames {
			cell, ok := sr.Cell(model.CellKey{Scene: sceneName, Config: cfgName})
			if !ok {
				continue
			}
			if cell.Stats == nil {
				fmt.Fprintf(&b, "%-28s %-20s %8s  [%s] %s\n",
					sceneName, cfgName, "-", cell.Failure, cell.Error)
				continue
			}
			pos := []string{"undefined", "undefined"}
			if cell.Stats.Position != nil {
				pos[0] = fmt.Sprintf("%.4f", cell.Stats.Position.Mean)
				pos[1] = fmt.Sprintf("%.4f", cell.Stats.Position.P95)
			}
			fmt.Fprintf(&b, "%-28s %-20s %8d %7d %7d %12s %12s",
				sceneName, cfgName,
				cell.Stats.Matches, cell.Stats.Misses, cell.Stats.FalsePositives,
				pos[0], pos[1])
			if cell.Failed() {
				fmt.Fprintf(&b, "  [%s]", cell.Failure)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
