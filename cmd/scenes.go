package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/starfield-lab/astrobench/internal/scene"
	"github.com/starfield-lab/astrobench/internal/sweepfile"
)

var scenesFilePath string

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List registered scene recipes and sweep-file scenes",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := scene.NewRegistry()

		recipes := registry.Recipes()
		sort.Slice(recipes, func(i, j int) bool { return recipes[i] < recipes[j] })
		fmt.Println("Recipes:")
		for _, r := range recipes {
			fmt.Printf("  %s\n", r)
		}

		if scenesFilePath == "" {
			return nil
		}

		f, err := sweepfile.Load(scenesFilePath)
		if err != nil {
			return err
		}

		fmt.Printf("\nScenes in %s:\n", scenesFilePath)
		for _, s := range f.Scenes {
			catalog, err := registry.Catalog(s)
			if err != nil {
				fmt.Printf("  %-28s recipe=%-14s INVALID: %v\n", s.Name, s.Recipe, err)
				continue
			}
			fmt.Printf("  %-28s recipe=%-14s seed=%d stars=%d\n",
				s.Name, s.Recipe, s.EffectiveSeed(), len(catalog))
		}
		return nil
	},
}

func init() {
	scenesCmd.Flags().StringVar(&scenesFilePath, "file", "", "sweep file whose scenes to resolve")
	rootCmd.AddCommand(scenesCmd)
}
