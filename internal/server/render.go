package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dynsite/dynsite/internal/pathkey"
)

// ErrorPageHTML 是模板不可用时返回的最小页面。
const ErrorPageHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Error</title></head>
<body><h1>Error</h1><p>The site template could not be loaded.</p></body>
</html>`

const companyNameToken = "{{company_name}}"

// Renderer 把页面片段套入站点模板。模板每次请求重新读取，修改后无需重启。
type Renderer struct {
	templatePath string
	selector     string
	companyName  string
}

// NewRenderer 创建模板渲染器；selector 为空时使用 #main-content。
func NewRenderer(templatePath, selector, companyName string) *Renderer {
	if strings.TrimSpace(selector) == "" {
		selector = "#main-content"
	}
	return &Renderer{
		templatePath: templatePath,
		selector:     selector,
		companyName:  companyName,
	}
}

// Render 返回完整页面：片段写入 selector 对应节点，<title> 设为 “展示名 | 公司名”，
// 并替换模板中所有 {{company_name}}。
func (r *Renderer) Render(path, fragment string) (string, error) {
	file, err := os.Open(r.templatePath)
	if err != nil {
		return "", fmt.Errorf("open template: %w", err)
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	doc.Find(r.selector).First().SetHtml(fragment)

	title := r.title(path)
	if titles := doc.Find("title"); titles.Length() > 0 {
		titles.First().SetText(title)
	} else {
		doc.Find("head").First().AppendHtml("<title></title>")
		doc.Find("head title").First().SetText(title)
	}

	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return strings.ReplaceAll(html, companyNameToken, r.companyName), nil
}

func (r *Renderer) title(path string) string {
	name := pathkey.DisplayName(pathkey.Normalize(path))
	if r.companyName == "" {
		return name
	}
	return name + " | " + r.companyName
}
