package pages

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/dynsite/dynsite/internal/cache"
	"github.com/dynsite/dynsite/internal/pathkey"
)

// MenuItem 是导航菜单中的一项。
type MenuItem struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	IsCurrent bool   `json:"is_current"`
}

// BuildMenu 以当前路径为首项，合并缓存中的所有页面并排序：首页在前，其余按展示名升序，
// 展示名相同时按路径升序。枚举出错时返回已收集的部分菜单。
func BuildMenu(ctx context.Context, store cache.Store, current string, logger *logrus.Logger) []MenuItem {
	current = pathkey.Normalize(current)
	items := []MenuItem{{
		Name:      pathkey.DisplayName(current),
		Path:      current,
		IsCurrent: true,
	}}
	seen := map[string]struct{}{current: {}}

	if store != nil {
		for key, err := range store.Keys(ctx) {
			if err != nil {
				if logger != nil {
					logger.WithError(err).WithFields(logrus.Fields{"action": "build_menu", "path": current}).Warn("menu_enumeration_failed")
				}
				break
			}
			path := pathkey.KeyToPath(key)
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			items = append(items, MenuItem{Name: pathkey.DisplayName(path), Path: path})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if (a.Path == pathkey.Root) != (b.Path == pathkey.Root) {
			return a.Path == pathkey.Root
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Path < b.Path
	})
	return items
}
