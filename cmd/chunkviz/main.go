package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"
	termbox "github.com/nsf/termbox-go"

	"github.com/annelo/go-world-streamer/internal/chunkmanager"
	"github.com/annelo/go-world-streamer/internal/config"
	"github.com/annelo/go-world-streamer/internal/grid"
	"github.com/annelo/go-world-streamer/internal/world"
)

var (
	configPath = flag.String("config", "", "Путь к файлу конфигурации")
	stepSize   = flag.Float64("step", 25, "Шаг наблюдателя за нажатие клавиши")
	cellWidth  = flag.Int("cell", 3, "Ширина клетки чанка в символах (1-4)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	w, err := world.NewWorld(cfg, nil, world.Options{})
	if err != nil {
		log.Fatalf("world error: %v", err)
	}

	// Инициализируем termbox
	if err := termbox.Init(); err != nil {
		log.Fatalf("termbox init error: %v", err)
	}
	defer termbox.Close()

	pos := mgl64.Vec3{0, 0, 0}
	w.OnObserverMoved(pos)

	draw := func() {
		termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
		width, height := termbox.Size()
		cw := *cellWidth

		states := make(map[grid.ChunkID]world.ChunkInfo)
		for _, c := range w.Chunks() {
			states[c.ID] = c
		}

		center := w.ChunkAt(pos)
		cols, rows := width/cw, height-3
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				id := grid.ChunkID{X: center.X + col - cols/2, Z: center.Z + row - rows/2}
				ch, fg, bg := chunkSymbol(states[id])
				if id == center {
					ch, fg = '@', termbox.ColorWhite|termbox.AttrBold
				}
				for dx := 0; dx < cw; dx++ {
					termbox.SetCell(col*cw+dx, row+2, ch, fg, bg)
				}
			}
		}

		// Заголовок
		s := w.Stats()
		header := fmt.Sprintf("Observer=(%.0f,%.0f) Chunk=%s  active=%d queued=%d gen=%d unloaded=%d level=%d objects=%d",
			pos.X(), pos.Z(), center, s.Active, s.Queued, s.Generating, s.Unloaded, s.HandAuthored, s.Objects)
		printLine(0, header, termbox.ColorYellow|termbox.AttrBold, width)
		printLine(1, "arrows: move  f: flush  x: sweep  r: reset  q: quit", termbox.ColorWhite, width)
		termbox.Flush()
	}

	draw()

	// Основной цикл
	for {
		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			switch ev.Key {
			case termbox.KeyEsc, termbox.KeyCtrlC:
				return
			case termbox.KeyArrowLeft:
				pos[0] -= *stepSize
			case termbox.KeyArrowRight:
				pos[0] += *stepSize
			case termbox.KeyArrowUp:
				pos[2] -= *stepSize
			case termbox.KeyArrowDown:
				pos[2] += *stepSize
			default:
				switch ev.Ch {
				case 'q':
					return
				case 'f':
					w.Flush()
				case 'x':
					w.Sweep()
				case 'r':
					w.ResetWorld()
				}
			}
			w.OnObserverMoved(pos)
			draw()
		case termbox.EventError:
			log.Printf("termbox error: %v", ev.Err)
			return
		case termbox.EventResize:
			draw()
		}
	}
}

// chunkSymbol возвращает символ и цвета для состояния чанка
func chunkSymbol(c world.ChunkInfo) (rune, termbox.Attribute, termbox.Attribute) {
	if c.HandAuthored {
		return 'L', termbox.ColorCyan, termbox.ColorBlack
	}
	switch c.State {
	case chunkmanager.Queued:
		return 'q', termbox.ColorYellow, termbox.ColorBlack
	case chunkmanager.Generating:
		return 'g', termbox.ColorMagenta, termbox.ColorBlack
	case chunkmanager.Active:
		return '#', termbox.ColorGreen, termbox.ColorBlack
	case chunkmanager.Unloaded:
		return 'x', termbox.ColorRed, termbox.ColorBlack
	default:
		return '.', termbox.ColorDefault, termbox.ColorDefault
	}
}

func printLine(y int, s string, fg termbox.Attribute, width int) {
	for i, r := range []rune(s) {
		if i >= width {
			break
		}
		termbox.SetCell(i, y, r, fg, termbox.ColorBlack)
	}
}
