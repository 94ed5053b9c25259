package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dynsite/dynsite/internal/cache"
	_ "github.com/dynsite/dynsite/internal/cache/sqlstore"
	"github.com/dynsite/dynsite/internal/config"
	"github.com/dynsite/dynsite/internal/generator"
	"github.com/dynsite/dynsite/internal/logging"
	"github.com/dynsite/dynsite/internal/pages"
	"github.com/dynsite/dynsite/internal/server"
	"github.com/dynsite/dynsite/internal/server/routes"
	"github.com/dynsite/dynsite/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	// 配置文件缺失或损坏时继续使用默认配置，只有语义校验失败才退出。
	cfg, loadErr := config.Load(opts.configPath)
	if loadErr != nil && !config.IsFallback(loadErr) {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", loadErr)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if loadErr != nil {
		logger.WithError(loadErr).WithFields(logging.BaseFields("load_config", opts.configPath)).Warn("使用默认配置")
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["storage"] = cfg.Global.StorageSummary()
		fields["model"] = cfg.Generator.Model
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// CLI 启动遵循“配置 → 缓存后端 → 生成器 → Fiber server”顺序，
	// 所有请求共享同一个缓存与生成客户端实例。
	app, store, err := buildApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}
	defer store.Close()

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["storage"] = cfg.Global.StorageSummary()
	fields["model"] = cfg.Generator.Model
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if cfg.Generator.APIKey() == "" {
		logger.WithFields(logrus.Fields{
			"action":      "startup",
			"api_key_env": cfg.Generator.APIKeyEnv,
		}).Warn("未设置生成服务密钥，新页面将无法生成")
	}

	if err := startHTTPServer(app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// buildApp 组装缓存、生成器、页面服务与 Fiber 应用；调用方负责关闭返回的 Store。
func buildApp(cfg *config.Config, logger *logrus.Logger) (*fiber.App, cache.Store, error) {
	store, err := cache.Open(cfg.Global.StorageBackend, cache.Options{
		Path: cfg.Global.StoragePath,
		DSN:  cfg.Global.StorageDSN,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("初始化缓存失败: %w", err)
	}

	completer := generator.NewChatClient(server.NewGeneratorClient(cfg), cfg.Generator)
	gen := generator.New(completer, generator.NewPrompts(cfg), logger)
	svc := pages.NewService(store, gen, pages.Options{
		SkipPaths:     cfg.Global.SkipPaths,
		Substitutions: cfg.Substitutions(),
	}, logger)

	app, err := server.NewApp(server.AppOptions{
		Logger:    logger,
		Pages:     svc,
		Renderer:  server.NewRenderer(cfg.Global.TemplatePath, cfg.Global.ContentSelector, cfg.Profile.CompanyName),
		StaticDir: cfg.Global.StaticDir,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	routes.RegisterStatusRoutes(app, routes.StatusOptions{
		Store:   store,
		Model:   completer.Model(),
		Backend: cfg.Global.StorageBackend,
		Logger:  logger,
	})
	return app, store, nil
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("dynsite", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.json，可被 DYNSITE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("DYNSITE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = config.DefaultPath
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(app *fiber.App, port int, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
