package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v3"

	"github.com/annelo/go-world-streamer/internal/config"
	"github.com/annelo/go-world-streamer/internal/gameloop"
	"github.com/annelo/go-world-streamer/internal/logging"
	"github.com/annelo/go-world-streamer/internal/playermanager"
	"github.com/annelo/go-world-streamer/internal/plugin"
	"github.com/annelo/go-world-streamer/internal/world"
	"github.com/annelo/go-world-streamer/plugins/sampleplugin"
)

var (
	configPath = flag.String("config", "", "Путь к файлу конфигурации (.yaml или .toml)")
	seed       = flag.Uint64("seed", 0, "Сид мира (0 = из конфигурации)")
	theme      = flag.String("theme", "", "Тема мира (пусто = из конфигурации)")
	static     = flag.Bool("sample", false, "Подключить встроенный пример плагина")
)

func main() {
	// Парсим флаги командной строки
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *theme != "" {
		cfg.Theme = *theme
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка логгера: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Контекст отменяется по сигналу или команде stop
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1) Инициализируем реестр плагинов и регистрируем core-системы
	reg := plugin.NewDefaultRegistry()
	reg.RegisterGameSystem(gameloop.NewClockSystem())
	reg.RegisterGameSystem(gameloop.NewStreamingSystem(cfg.Loop.StatsEvery.Std()))
	// 2) Обозначаем границу core-регистраций и загружаем плагины
	reg.MarkCore()
	pm := plugin.NewPluginManager(cfg.Plugins.Dir)
	pm.Logger = logger.Named("plugins")
	if err := pm.LoadPlugins(reg); err != nil {
		logger.Warnw("плагины не загружены", "error", err)
	}
	if *static {
		spm := plugin.NewPluginManager(filepath.Join(cfg.Plugins.Dir, "sampleplugin", "so"))
		spm.Logger = pm.Logger
		if err := spm.LoadStatic(reg, sampleplugin.Meta(), sampleplugin.Register); err != nil {
			logger.Warnw("встроенный плагин не подключен", "error", err)
		}
	}

	// 3) Собираем мир: билдеры плагинов попадают в фабрику при создании
	w, err := world.NewWorld(cfg, reg, world.Options{Logger: logger})
	if err != nil {
		logger.Fatalw("не удалось создать мир", "error", err)
	}

	players := playermanager.NewPlayerManager()
	camera := players.Spawn("camera", mgl64.Vec3{0, 0, 0})

	loop := gameloop.NewLoop(cfg.Loop.Tick.Std(), gameloop.Dependencies{
		Players:        players,
		Streamer:       w,
		Logger:         logger,
		EmitWorldEvent: w.EmitWorldEvent,
	}, reg.GameSystems()...)

	registerCommands(reg, pm, w, players, camera, cancel)
	go repl(ctx, reg)

	logger.Infow("стример мира запущен",
		"seed", cfg.Seed,
		"theme", cfg.Theme,
		"tick", cfg.Loop.Tick.String(),
		"systems", len(loop.Systems()),
	)
	loop.Run(ctx)
	logger.Infow("стример остановлен", "stats", fmt.Sprintf("%+v", w.Stats()))
}

// registerCommands добавляет встроенные команды консоли администратора
func registerCommands(reg *plugin.DefaultRegistry, pm *plugin.PluginManager, w *world.World,
	players *playermanager.PlayerManager, camera uuid.UUID, stop context.CancelFunc) {

	reg.RegisterCommand("help", "List commands", func(args []string) (string, error) {
		var sb strings.Builder
		for _, cmd := range reg.Commands() {
			sb.WriteString(fmt.Sprintf("%s - %s\n", cmd.Name, cmd.Description))
		}
		return sb.String(), nil
	})
	reg.RegisterCommand("stop", "Stop streamer", func(args []string) (string, error) {
		stop()
		return "Streamer stopping\n", nil
	})
	reg.RegisterCommand("stats", "Show streaming counters", func(args []string) (string, error) {
		s := w.Stats()
		return fmt.Sprintf("active: %d, queued: %d, generating: %d, unloaded: %d, hand-authored: %d\nrecords: %d, objects: %d, pending jobs: %d, scene: %d\n",
			s.Active, s.Queued, s.Generating, s.Unloaded, s.HandAuthored, s.Records, s.Objects, s.Pending, w.Graph().Len()), nil
	})
	reg.RegisterCommand("chunks", "List known chunks", func(args []string) (string, error) {
		var sb strings.Builder
		for _, c := range w.Chunks() {
			tag := ""
			if c.HandAuthored {
				tag = " (level)"
			}
			sb.WriteString(fmt.Sprintf("%s %s objects=%d%s\n", c.ID, c.State, c.Objects, tag))
		}
		return sb.String(), nil
	})
	reg.RegisterCommand("where", "Show observer position", func(args []string) (string, error) {
		o, err := players.Focus()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s at (%.1f, %.1f, %.1f), chunk %s\n", o.Name, o.Position.X(), o.Position.Y(), o.Position.Z(), w.ChunkAt(o.Position)), nil
	})
	reg.RegisterCommand("teleport", "Move observer: teleport <x> <z>", func(args []string) (string, error) {
		x, z, err := parseXZ(args)
		if err != nil {
			return "", err
		}
		if err := players.UpdatePosition(camera, mgl64.Vec3{x, w.HeightAt(x, z), z}); err != nil {
			return "", err
		}
		return fmt.Sprintf("Observer moved to chunk %s\n", w.ChunkAt(mgl64.Vec3{x, 0, z})), nil
	})
	reg.RegisterCommand("move", "Shift observer: move <dx> <dz>", func(args []string) (string, error) {
		dx, dz, err := parseXZ(args)
		if err != nil {
			return "", err
		}
		if err := players.Move(camera, mgl64.Vec3{dx, 0, dz}); err != nil {
			return "", err
		}
		return "ok\n", nil
	})
	reg.RegisterCommand("flush", "Finish all pending generation", func(args []string) (string, error) {
		return fmt.Sprintf("%d steps done\n", w.Flush()), nil
	})
	reg.RegisterCommand("sweep", "Unload far chunks now", func(args []string) (string, error) {
		return fmt.Sprintf("%d chunks unloaded\n", len(w.Sweep())), nil
	})
	reg.RegisterCommand("reset", "Drop procedural content and start a new session", func(args []string) (string, error) {
		w.ResetWorld()
		return "World reset\n", nil
	})
	reg.RegisterCommand("reload", "Reload plugins", func(args []string) (string, error) {
		if err := pm.ReloadPlugins(reg); err != nil {
			return "", err
		}
		n := plugin.ApplyBuilders(reg, w.Factory())
		return fmt.Sprintf("Plugins reloaded, %d builders applied\n", n), nil
	})
	// List loaded plugins
	reg.RegisterCommand("plugins", "List loaded plugins", func(args []string) (string, error) {
		var sb strings.Builder
		for _, meta := range reg.PluginMetas() {
			sb.WriteString(fmt.Sprintf("%s v%s by %s: %s\n", meta.Name, meta.Version, meta.Author, meta.Description))
		}
		return sb.String(), nil
	})
	// Show plugin config
	reg.RegisterCommand("config", "Show plugin config: config <pluginName>", func(args []string) (string, error) {
		if len(args) < 1 {
			return "Usage: config <pluginName>\n", nil
		}
		cfg := reg.PluginConfig(args[0])
		if cfg == nil {
			return fmt.Sprintf("No config for plugin %s\n", args[0]), nil
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

// repl читает команды со stdin до отмены ctx или конца ввода
func repl(ctx context.Context, reg *plugin.DefaultRegistry) {
	reader := bufio.NewReader(os.Stdin)
	for ctx.Err() == nil {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		cmd, ok := reg.Command(parts[0])
		if !ok {
			fmt.Printf("Неизвестная команда: %s\n", parts[0])
			continue
		}
		out, err := cmd.Handler(parts[1:])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Print(out)
	}
}

func parseXZ(args []string) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("нужно два числа, получено %d", len(args))
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, err
	}
	z, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return x, z, nil
}
