// Сборка: go build -buildmode=plugin -o sampleplugin.so ./plugins/sampleplugin/so
package main

import (
	"github.com/annelo/go-world-streamer/internal/plugin"
	"github.com/annelo/go-world-streamer/plugins/sampleplugin"
)

// Register is looked up by PluginManager.
func Register(reg plugin.PluginRegistry) {
	sampleplugin.Register(reg)
}

func main() {}
