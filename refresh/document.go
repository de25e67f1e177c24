package refresh

import (
	"strings"

	"github.com/rushteam/lastcall/core"
)

// DefaultDescriptionChars 参与 embedding 的描述最大字符数。
const DefaultDescriptionChars = 120

// DocumentText 构造物品的 embedding 输入：名称 + 类目名 + 描述前 descChars 个字符。
func DocumentText(it *core.CatalogItem, descChars int) string {
	if descChars <= 0 {
		descChars = DefaultDescriptionChars
	}
	desc := []rune(it.Description)
	if len(desc) > descChars {
		desc = desc[:descChars]
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{it.Name, it.CategoryName, string(desc)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
