package generator

import (
	"sort"
)

// Theme задает наборы вариантов, из которых генератор выбирает контент.
// Визуальное построение вариантов остается за билдерами фабрики.
type Theme struct {
	Name      string
	Terrain   []string
	Obstacles []string
	Pickups   []string
	Wall      string
	Enemies   []string
	Bosses    []string
}

// Difficulty масштабирует количество и здоровье противников.
type Difficulty struct {
	Name        string
	EnemyScale  float64
	HealthScale float64
}

// Themes - встроенные темы.
var Themes = map[string]Theme{
	"forest": {
		Name:      "forest",
		Terrain:   []string{"tree", "bush", "rock", "fern"},
		Obstacles: []string{"boulder", "log", "stump"},
		Pickups:   []string{"health", "ammo", "herb"},
		Wall:      "hedge",
		Enemies:   []string{"wolf", "boar", "bandit"},
		Bosses:    []string{"troll", "treant"},
	},
	"desert": {
		Name:      "desert",
		Terrain:   []string{"cactus", "dune", "skull"},
		Obstacles: []string{"rock", "pillar"},
		Pickups:   []string{"health", "ammo", "water"},
		Wall:      "sandstone",
		Enemies:   []string{"scorpion", "nomad", "golem"},
		Bosses:    []string{"sandworm", "golem"},
	},
	"tundra": {
		Name:      "tundra",
		Terrain:   []string{"pine", "snowdrift", "ice-shard"},
		Obstacles: []string{"ice-block", "boulder"},
		Pickups:   []string{"health", "ammo", "fur"},
		Wall:      "ice",
		Enemies:   []string{"wolf", "yeti"},
		Bosses:    []string{"frost-giant"},
	},
	"ruins": {
		Name:      "ruins",
		Terrain:   []string{"rubble", "column", "vine"},
		Obstacles: []string{"statue", "broken-wall"},
		Pickups:   []string{"health", "ammo", "relic"},
		Wall:      "stone",
		Enemies:   []string{"skeleton", "cultist", "golem"},
		Bosses:    []string{"lich", "golem"},
	},
}

// Difficulties - встроенные уровни сложности.
var Difficulties = map[string]Difficulty{
	"easy":   {Name: "easy", EnemyScale: 0.5, HealthScale: 0.75},
	"normal": {Name: "normal", EnemyScale: 1, HealthScale: 1},
	"hard":   {Name: "hard", EnemyScale: 1.5, HealthScale: 1.5},
}

// BossClass возвращает варианты противников класса "босс" по всем темам.
// Такие противники всегда попадают в коллекцию крупных угроз, даже без флага Boss.
func BossClass() []string {
	seen := make(map[string]bool)
	for _, th := range Themes {
		for _, b := range th.Bosses {
			seen[b] = true
		}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// ThemeNames возвращает имена тем в алфавитном порядке.
func ThemeNames() []string {
	names := make([]string, 0, len(Themes))
	for n := range Themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
