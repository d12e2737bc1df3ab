package netsvr

import (
	"net/http"

	"github.com/zintix-labs/fruitslot/server/app"
)

// NetSvr 路由 + 啟停。只交給最外層組裝使用，其他層只看得到 NetRouter。
// NetSvr 同時是 app.Component，可直接交給 app.App 管理。
type NetSvr interface {
	NetRouter
	app.Component
	// Handler 回傳根路由，供 httptest 或外部 server 掛載
	Handler() http.Handler
}

// NetRouter 純路由行為，不含 Run/Shutdown。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)

	// Group 掛載子路由；回呼只拿到 NetRouter
	Group(path string, fn func(NetRouter))
}
