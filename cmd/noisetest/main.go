package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/annelo/go-world-streamer/internal/content"
	"github.com/annelo/go-world-streamer/internal/generator"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/noisegeneration"
)

const (
	width  = 40
	height = 20
	step   = 20.0
)

var (
	seed  = flag.Int64("seed", 0, "Сид (0 = текущее время)")
	theme = flag.String("theme", "forest", "Тема генератора")
	span  = flag.Int("chunks", 4, "Размер квадрата чанков для сводки")
	dump  = flag.Bool("dump", false, "Вывести дескрипторы чанка 0:0")
)

func main() {
	flag.Parse()
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	fmt.Printf("Seed: %d\n", *seed)

	terrain := noisegeneration.NewTerrain(noisegeneration.DefaultTerrainOptions(*seed))

	// Визуализируем карту высот
	fmt.Println("\nКарта высот:")
	visualize(func(x, z float64) float64 { return terrain.HeightAt(x, z) / 6 }, []rune{'_', '.', '-', '=', '#', '^', '*', '@'})

	// Визуализируем плотность рельефа
	fmt.Println("\nПлотность рельефа:")
	visualize(terrain.Density, []rune{' ', '.', ':', 'o', 'O', '8'})

	opts := generator.DefaultOptions()
	opts.Seed = uint64(*seed)
	opts.Theme = *theme
	opts.Density = terrain
	gen, err := generator.New(opts)
	if err != nil {
		fmt.Println("Ошибка:", err)
		return
	}

	fmt.Printf("\nСодержимое чанков (%s), земля/рельеф/стены/препятствия/предметы/противники:\n", *theme)
	for z := 0; z < *span; z++ {
		for x := 0; x < *span; x++ {
			counts := make(map[content.Kind]int)
			for _, d := range gen.Generate(grid.ChunkID{X: x, Z: z}, 0) {
				counts[d.Kind()]++
			}
			fmt.Printf("%d:%d %d/%d/%d/%d/%d/%d  ", x, z,
				counts[content.KindGround], counts[content.KindTerrain], counts[content.KindWall],
				counts[content.KindObstacle], counts[content.KindPickup], counts[content.KindEnemy])
		}
		fmt.Println()
	}

	hits, misses, ratio := terrain.CacheStats()
	fmt.Printf("\nКеш высот: попаданий %d, промахов %d (%.0f%%)\n", hits, misses, ratio*100)

	if *dump {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		cfg.Dump(gen.Generate(grid.ChunkID{}, 0))
	}
}

// visualize выводит значения поля в [0, 1] символами от низкого к высокому
func visualize(field func(x, z float64) float64, chars []rune) {
	for z := 0; z < height; z++ {
		for x := 0; x < width; x++ {
			v := field(float64(x)*step, float64(z)*step)
			idx := int(v * float64(len(chars)-1))
			if idx < 0 {
				idx = 0
			}
			if idx >= len(chars) {
				idx = len(chars) - 1
			}
			fmt.Print(string(chars[idx]))
		}
		fmt.Println()
	}
}
