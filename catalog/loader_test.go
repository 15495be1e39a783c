package catalog_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-portal-server/catalog"
)

const testCatalogYAML = `
categories:
  media:
    name: Media
    icon: film
    order: 2
    apps:
      - id: jellyfin
        name: Jellyfin
        description: Media server
        url: https://jellyfin.local
        icon: film
  infra:
    name: Infrastructure
    icon: server
    order: 1
    adminGroups:
      - ops
    apps:
      - id: proxmox
        name: Proxmox
        description: Virtualization
        url: https://proxmox.local
        icon: server
        groups:
          - virt
  tools:
    name: Tools
    icon: wrench
    order: 2
    apps:
      - id: whoami
        name: Whoami
        description: Echo service
        url: https://whoami.local
        icon: wrench
`

func writeCatalog(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoaderOrdering(t *testing.T) {
	loader, err := catalog.NewLoader(writeCatalog(t, testCatalogYAML))
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })

	categories := loader.Categories()
	require.Len(t, categories, 3)
	require.Equal(t, "infra", categories[0].ID)

	// media and tools share order 2; document order breaks the tie.
	require.Equal(t, "media", categories[1].ID)
	require.Equal(t, "tools", categories[2].ID)
}

func TestLoaderCategoriesWithApps(t *testing.T) {
	loader, err := catalog.NewLoader(writeCatalog(t, testCatalogYAML))
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })

	byID := loader.CategoriesWithApps()
	require.Contains(t, byID, "infra")
	require.Equal(t, []string{"ops"}, byID["infra"].AdminGroups)
	require.Len(t, byID["infra"].Apps, 1)
	require.Equal(t, "proxmox", byID["infra"].Apps[0].ID)
}

func TestLoaderValidation(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := catalog.NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("missing categories section", func(t *testing.T) {
		_, err := catalog.NewLoader(writeCatalog(t, "other: true\n"))
		require.Error(t, err)
	})

	t.Run("category missing name", func(t *testing.T) {
		_, err := catalog.NewLoader(writeCatalog(t, `
categories:
  broken:
    icon: x
    order: 1
    apps: []
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "name is required")
	})

	t.Run("app with invalid url", func(t *testing.T) {
		_, err := catalog.NewLoader(writeCatalog(t, `
categories:
  broken:
    name: Broken
    icon: x
    order: 1
    apps:
      - id: bad
        name: Bad
        description: Bad app
        url: not-a-url
        icon: x
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid url")
	})
}

func TestLoaderReloadKeepsPreviousOnFailure(t *testing.T) {
	path := writeCatalog(t, testCatalogYAML)
	loader, err := catalog.NewLoader(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })

	require.NoError(t, os.WriteFile(path, []byte("categories: [broken"), 0o600))
	require.Error(t, loader.Load())

	// The previous snapshot still serves.
	require.Len(t, loader.Categories(), 3)
}

func TestLoaderHotReload(t *testing.T) {
	path := writeCatalog(t, testCatalogYAML)
	loader, err := catalog.NewLoader(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })

	require.NoError(t, loader.StartWatching())

	updated := `
categories:
  infra:
    name: Infrastructure
    icon: server
    order: 1
    apps:
      - id: proxmox
        name: Proxmox
        description: Virtualization
        url: https://proxmox.local
        icon: server
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	require.Eventually(t, func() bool {
		return len(loader.Categories()) == 1
	}, 5*time.Second, 100*time.Millisecond)
}
