package api

import (
	"fmt"
	"net/http"

	"github.com/dop251/goja"
	"github.com/labstack/echo/v4"

	"github.com/LiuQiulin/LiquidCore/jsengine"
	"github.com/LiuQiulin/LiquidCore/jsengine/gojajs"
	"github.com/LiuQiulin/LiquidCore/logger"
)

type printerProvider interface {
	Printer() *gojajs.Printer
}

// jsExec 在一次性的执行上下文中运行脚本，上下文内预先安装全部全局模板。
func jsExec(c echo.Context) error {
	if !doAuth(c) {
		return c.JSON(http.StatusForbidden, nil)
	}
	if myIsolate == nil {
		return Error(&c, "隔离区未初始化", Response{})
	}

	v := struct {
		Value string `json:"value"`
	}{}
	err := c.Bind(&v)
	if err != nil {
		return c.String(430, err.Error())
	}

	execLock.Lock()
	defer execLock.Unlock()

	ctx, err := myIsolate.NewContext(c.Request().Context())
	if err != nil {
		return Error(&c, err.Error(), Response{})
	}
	defer func() {
		if err := ctx.Dispose(); err != nil {
			logger.M().Warnf("释放执行上下文失败: %v", err)
		}
	}()
	if err := myGlobals.Install(ctx); err != nil {
		return Error(&c, err.Error(), Response{})
	}

	var printer *gojajs.Printer
	if pp, ok := ctx.Engine().(printerProvider); ok {
		printer = pp.Printer()
	}
	if printer != nil {
		printer.RecordStart()
	}

	var retFinal interface{}
	var errText interface{}
	source := "(function(exports, require, module) {" + v.Value + "\n})()"
	func() {
		defer func() {
			// 防止崩掉进程
			if r := recover(); r != nil {
				errText = fmt.Sprintf("JS脚本报错: %v", r)
				logger.M().Errorf("执行脚本时发生 panic: %v", r)
			}
		}()
		ret, err := ctx.RunScript(source)
		if err != nil {
			errText = err.Error()
			return
		}
		retFinal = exportValue(ret)
	}()

	outputs := []string{}
	if printer != nil {
		outputs = printer.RecordEnd()
	}
	lastOutputs = outputs

	return c.JSON(http.StatusOK, map[string]interface{}{
		"result":  true,
		"ret":     retFinal,
		"outputs": outputs,
		"err":     errText,
	})
}

// exportValue 把脚本结果转换为可序列化的值，函数以源码文本表示。
func exportValue(v goja.Value) interface{} {
	if v == nil || goja.IsUndefined(v) {
		return nil
	}
	if _, ok := goja.AssertFunction(v); ok {
		return v.String()
	}
	return v.Export()
}

func jsGetRecord(c echo.Context) error {
	if !doAuth(c) {
		return c.JSON(http.StatusForbidden, nil)
	}
	execLock.Lock()
	outputs := lastOutputs
	execLock.Unlock()
	if outputs == nil {
		outputs = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"outputs": outputs,
	})
}

func jsTemplates(c echo.Context) error {
	if !doAuth(c) {
		return c.JSON(http.StatusForbidden, nil)
	}
	return Success(&c, Response{
		"templates": myGlobals.Names(),
	})
}

func jsStatus(c echo.Context) error {
	contexts := 0
	if myIsolate != nil {
		execLock.Lock()
		contexts = len(myIsolate.Contexts())
		execLock.Unlock()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   myIsolate != nil,
		"contexts": contexts,
	})
}

func jsEngineGet(c echo.Context) error {
	if !doAuth(c) {
		return c.JSON(http.StatusForbidden, nil)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"engine":    myCfg.Engine,
		"available": jsengine.Registered(),
	})
}
