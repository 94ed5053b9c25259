package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// fixtureDir 在任何测试切换工作目录之前解析为绝对路径。
var fixtureDir = mustAbs(filepath.Join("internal", "config", "testdata"))

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	return abs
}

// configFixture 返回 internal/config/testdata 下的配置样例路径。
func configFixture(t *testing.T, name string) string {
	t.Helper()
	if _, err := os.Stat(fixtureDir); err != nil {
		t.Fatalf("配置样例目录不可用: %v", err)
	}
	return filepath.Join(fixtureDir, name)
}

// captureOutput 把 stdOut/stdErr 换成内存缓冲，测试结束后恢复。
func captureOutput(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()

	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr := stdOut, stdErr
	stdOut, stdErr = out, errOut

	t.Cleanup(func() {
		stdOut, stdErr = prevOut, prevErr
	})
	return out, errOut
}
