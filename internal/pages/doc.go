// Package pages 组合缓存与生成器，对外提供页面内容、搜索建页以及导航菜单。
//
// 同一进程内同一缓存键的并发未命中共享一次生成；跨进程时以最后写入为准。
package pages
