package generator

import (
	"fmt"
	"strings"

	"github.com/dynsite/dynsite/internal/config"
)

// Prompts 保存两类指令模板以及用于插值的公司画像。
type Prompts struct {
	PageTemplate   string
	SearchTemplate string
	Profile        config.WebsiteProfile
}

// NewPrompts 从配置中提取模板与画像。
func NewPrompts(cfg *config.Config) Prompts {
	return Prompts{
		PageTemplate:   cfg.Generator.SystemPromptTemplate,
		SearchTemplate: cfg.Generator.SearchPromptTemplate,
		Profile:        cfg.Profile,
	}
}

// Topic 返回路径对应的主题，首页为 homepage。
func Topic(path string) string {
	topic := strings.Trim(path, "/")
	if topic == "" {
		return "homepage"
	}
	return topic
}

// ForPath 生成页面内容的系统/用户指令。
func (p Prompts) ForPath(path string) Request {
	topic := Topic(path)
	system := fmt.Sprintf("You are a content writer. Generate minimal HTML main content for a page about '%s'. "+
		"No images or external links. Only p, h1, h2, h3, ul, ol, li tags.", topic)
	if strings.TrimSpace(p.PageTemplate) != "" {
		values := p.slots()
		values["current_page_path_for_llm"] = topic
		system = render(p.PageTemplate, values)
	}
	return Request{
		System: system,
		User:   fmt.Sprintf("Provide the main HTML content for the '%s' page, adhering to all instructions in the system prompt.", topic),
	}
}

// ForQuery 生成搜索建页的指令，要求以 JSON 对象作答。
func (p Prompts) ForQuery(query string) Request {
	template := p.SearchTemplate
	if strings.TrimSpace(template) == "" {
		template = config.DefaultSearchPromptTemplate
	}
	values := p.slots()
	values["search_query"] = query
	return Request{
		System: render(template, values),
		User: fmt.Sprintf("Search query: %q. Reply with one JSON object containing \"url_path\" and \"content\".",
			query),
		JSON: true,
	}
}

func (p Prompts) slots() map[string]string {
	profile := p.Profile
	return map[string]string{
		"company_name":     orDefault(profile.CompanyName, "Our Company"),
		"business_type":    orDefault(profile.BusinessType, "Our Business"),
		"location":         orDefault(profile.Location, "Our Location"),
		"specialties_list": strings.Join(profile.Specialties, ", "),
		"values_list":      strings.Join(profile.Values, ", "),
		"target_audience":  orDefault(profile.TargetAudience, "Our Customers"),
		"site_tone":        orDefault(profile.SiteTone, "default"),
	}
}

// render 只替换已知的 {name} 占位符，其余花括号（例如 JSON 示例）原样保留。
func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
