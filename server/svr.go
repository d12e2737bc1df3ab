// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server 組裝執行期 HTTP 服務：規則目錄、路由、middleware 與生命週期。
package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/server/api"
	"github.com/zintix-labs/fruitslot/server/app"
	"github.com/zintix-labs/fruitslot/server/netsvr"
	"github.com/zintix-labs/fruitslot/server/svrcfg"
)

// Build 驗證設定並註冊路由，回傳尚未啟動的 server。
func Build(sCfg *svrcfg.SvrCfg) (*netsvr.ChiAdapter, error) {
	if sCfg == nil {
		return nil, errs.NewFatal("server config is required")
	}
	if err := sCfg.Valid(); err != nil {
		return nil, err
	}
	svr := netsvr.NewChiServer(sCfg.Addr, sCfg.Timeouts)
	if err := RegisterWithSvr(sCfg, svr); err != nil {
		return nil, err
	}
	return svr, nil
}

// RegisterWithSvr 把 api 掛到呼叫端提供的 NetSvr；sCfg 需已通過 Valid
func RegisterWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("server is not ready")
	}
	return api.RegisterRoutes(svr, sCfg)
}

// Run 組裝並阻塞執行直到收到終止信號；組裝失敗時錯誤另外寫到 stderr。
func Run(sCfg *svrcfg.SvrCfg) error {
	svr, err := Build(sCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	sCfg.Log.Info("[fruitslot] listening",
		slog.String("addr", svr.Address()),
		slog.Any("rules", sCfg.Catalog.Names()),
	)
	if err := app.NewWith(sCfg.Log, svr).Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}
