package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/LiuQiulin/LiquidCore/api"
	"github.com/LiuQiulin/LiquidCore/config"
	"github.com/LiuQiulin/LiquidCore/hostlib"
	"github.com/LiuQiulin/LiquidCore/jsengine/gojajs"
	"github.com/LiuQiulin/LiquidCore/logger"
	"github.com/LiuQiulin/LiquidCore/v8"
)

const appName = "v8shim"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		evalStr    string
		listen     string
		logLevel   string
		serveHTTP  bool
	)
	flag.StringVar(&configPath, "c", "", "YAML 配置文件路径")
	flag.StringVar(&evalStr, "e", "", "执行给定脚本后退出")
	flag.StringVar(&listen, "listen", "", "HTTP 监听地址，覆盖配置文件")
	flag.StringVar(&logLevel, "log-level", "", "日志级别，覆盖配置文件")
	flag.BoolVar(&serveHTTP, "serve", false, "启动 HTTP 接口")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %+v\n", appName, err)
		return 1
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log, err := logger.Init(cfg.LogLevel, cfg.Dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: 初始化日志失败: %v\n", appName, err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	switch {
	case serveHTTP:
		return serve(cfg, log)
	case evalStr != "" || flag.NArg() > 0:
		return runScripts(cfg, log, evalStr, flag.Args())
	default:
		flag.Usage()
		return 2
	}
}

func newIsolate(cfg config.Config, log *zap.SugaredLogger) (*v8.Isolate, hostlib.Templates, error) {
	iso := v8.NewIsolate(v8.IsolateConfig{Engine: cfg.EngineConfig(), Logger: log})
	globals, err := hostlib.New(iso)
	if err != nil {
		_ = iso.Dispose()
		return nil, nil, errors.Wrap(err, "创建全局模板失败")
	}
	return iso, globals, nil
}

// runScripts 在事件循环上依次执行脚本，定时器回调全部结束后返回。
func runScripts(cfg config.Config, log *zap.SugaredLogger, evalStr string, files []string) int {
	iso, globals, err := newIsolate(cfg, log)
	if err != nil {
		log.Errorf("%+v", err)
		return 1
	}
	defer func() { _ = iso.Dispose() }()

	code := 0
	loop := eventloop.NewEventLoop(eventloop.EnableConsole(false))
	loop.Run(func(vm *goja.Runtime) {
		ctx, err := iso.AttachContext(context.Background(), gojajs.NewAdapterWithRuntime(vm))
		if err != nil {
			log.Errorf("创建执行上下文失败: %v", err)
			code = 1
			return
		}
		if err := globals.Install(ctx); err != nil {
			log.Errorf("%+v", err)
			code = 1
			return
		}

		if evalStr != "" {
			v, err := ctx.RunScript(evalStr)
			if err != nil {
				log.Errorf("脚本执行失败: %v", err)
				code = 1
				return
			}
			if !goja.IsUndefined(v) {
				fmt.Println(v.String())
			}
		}
		for _, path := range files {
			src, err := os.ReadFile(path)
			if err != nil {
				log.Errorf("读取脚本 %s 失败: %v", path, err)
				code = 1
				return
			}
			if _, err := ctx.RunScript(string(src)); err != nil {
				log.Errorf("脚本 %s 执行失败: %v", path, err)
				code = 1
				return
			}
		}
	})
	return code
}

func serve(cfg config.Config, log *zap.SugaredLogger) int {
	iso, globals, err := newIsolate(cfg, log)
	if err != nil {
		log.Errorf("%+v", err)
		return 1
	}
	defer func() { _ = iso.Dispose() }()

	e := echo.New()
	e.HideBanner = true
	api.Bind(e, cfg, iso, globals)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Warnf("关闭 HTTP 服务失败: %v", err)
		}
	}()

	log.Infof("HTTP 服务监听 %s", cfg.Listen)
	if err := e.Start(cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("HTTP 服务异常退出: %v", err)
		return 1
	}
	return 0
}
