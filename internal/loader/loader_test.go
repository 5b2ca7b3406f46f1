package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yonghaozhang/smarthome/internal/hcl"
	"github.com/yonghaozhang/smarthome/internal/registry"
)

// writeFiles lays out a things directory: one subdirectory per binding, each
// holding the given named HCL files.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestLoader(workers int) (*Loader, *registry.ThingTypeRegistry, *registry.ConfigDescriptionRegistry) {
	things := registry.NewThingTypeRegistry(nil)
	configs := registry.NewConfigDescriptionRegistry()
	return New(hcl.NewLoader(), things, configs, workers), things, configs
}

func TestLoader_LoadAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := writeFiles(t, map[string]string{
		"hue/channels.hcl": `
			channel_type "brightness" {
				item_type = "Dimmer"
			}
		`,
		"hue/things.hcl": `
			thing_type "bulb" {
				channel "brightness" {
					type = "brightness"
				}
				config {
					parameter "ip" {
						type     = string
						required = true
					}
				}
			}
		`,
		"zwave/things.hcl": `
			thing_type "lock" {}
		`,
	})

	l, things, configs := newTestLoader(2)
	caches, err := l.LoadAll(ctx, root)
	require.NoError(t, err)
	require.Len(t, caches, 2)

	all := things.All()
	require.Len(t, all, 2)
	require.Equal(t, "hue:bulb", all[0].UID)
	require.Equal(t, "zwave:lock", all[1].UID)

	require.Len(t, all[0].Channels, 1)
	require.Equal(t, "hue:brightness", all[0].Channels[0].Type.UID)

	_, ok := configs.Get("thing-type:hue:bulb")
	require.True(t, ok)

	// Discarding one binding's cache leaves the other binding published.
	caches["hue"].Discard(ctx)
	require.Len(t, things.All(), 1)
	require.Equal(t, "zwave:lock", things.All()[0].UID)
}

func TestLoader_CrossFileResolution(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The group file may be parsed by a different worker before the channel
	// file; resolution at Finalize must not care.
	root := writeFiles(t, map[string]string{
		"demo/a_groups.hcl": `
			channel_group_type "climate" {
				channel "temperature" {
					type = "temperature"
				}
			}
			thing_type "sensor" {
				group "climate" {
					type = "climate"
				}
			}
		`,
		"demo/z_channels.hcl": `
			channel_type "temperature" {
				item_type = "Number"
			}
		`,
	})

	l, things, _ := newTestLoader(4)
	_, err := l.LoadAll(ctx, root)
	require.NoError(t, err)

	tt, ok := things.Get("demo:sensor")
	require.True(t, ok)
	require.Len(t, tt.Groups, 1)
	require.Len(t, tt.Groups[0].Type.Channels, 1)
	require.Equal(t, "demo:temperature", tt.Groups[0].Type.Channels[0].Type.UID)
}

func TestLoader_BrokenFileDoesNotStopBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := writeFiles(t, map[string]string{
		"demo/good.hcl": `
			thing_type "kept" {}
		`,
		"demo/broken.hcl": `
			thing_type "lost" {
		`,
	})

	l, things, _ := newTestLoader(2)
	_, err := l.LoadAll(ctx, root)
	require.Error(t, err)
	require.Contains(t, err.Error(), `binding "demo"`)

	// The good file's records still resolved and published.
	_, ok := things.Get("demo:kept")
	require.True(t, ok)
	_, ok = things.Get("demo:lost")
	require.False(t, ok)
}

func TestLoader_EmptyThingsPath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	l, things, _ := newTestLoader(1)
	caches, err := l.LoadAll(ctx, t.TempDir())
	require.NoError(t, err)
	require.Empty(t, caches)
	require.Empty(t, things.All())
}

func TestLoader_ManyFilesConcurrently(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	files := make(map[string]string)
	for i := 0; i < 20; i++ {
		files[fmt.Sprintf("demo/part%02d.hcl", i)] = fmt.Sprintf(`
			channel_type "ct%02d" {
				item_type = "Number"
			}
			thing_type "tt%02d" {
				channel "c" {
					type = "ct%02d"
				}
			}
		`, i, i, i)
	}

	l, things, _ := newTestLoader(8)
	_, err := l.LoadAll(ctx, writeFiles(t, files))
	require.NoError(t, err)

	all := things.All()
	require.Len(t, all, 20)
	for _, tt := range all {
		require.Len(t, tt.Channels, 1, "thing type %s should have resolved its channel", tt.UID)
	}
}
