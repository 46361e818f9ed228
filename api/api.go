package api

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/LiuQiulin/LiquidCore/config"
	"github.com/LiuQiulin/LiquidCore/hostlib"
	"github.com/LiuQiulin/LiquidCore/v8"
)

// Response 是接口返回的 JSON 对象。
type Response map[string]interface{}

var (
	myCfg     config.Config
	myIsolate *v8.Isolate
	myGlobals hostlib.Templates

	// execLock 串行化对隔离区的访问，隔离区本身不加锁。
	execLock    sync.Mutex
	lastOutputs []string
)

// Bind 绑定运行状态并注册路由。
func Bind(e *echo.Echo, cfg config.Config, iso *v8.Isolate, globals hostlib.Templates) {
	myCfg = cfg
	myIsolate = iso
	myGlobals = globals

	g := e.Group("/v8-api")
	g.POST("/js/execute", jsExec)
	g.GET("/js/get_record", jsGetRecord)
	g.GET("/js/templates", jsTemplates)
	g.GET("/js/status", jsStatus)
	g.GET("/js/engine", jsEngineGet)
}

// doAuth 在配置了访问令牌时校验请求头 token。
func doAuth(c echo.Context) bool {
	if myCfg.AccessToken == "" {
		return true
	}
	return c.Request().Header.Get("token") == myCfg.AccessToken
}

// Success 以 result=true 返回数据。
func Success(c *echo.Context, data Response) error {
	data["result"] = true
	return (*c).JSON(http.StatusOK, data)
}

// Error 以 result=false 返回错误信息，HTTP 状态码仍为 200。
func Error(c *echo.Context, errText string, data Response) error {
	data["result"] = false
	data["err"] = errText
	return (*c).JSON(http.StatusOK, data)
}
