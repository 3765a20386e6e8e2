package src

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/rs/cors"
	"go.uber.org/fx"

	"game-crash-bet/server/config"
	"game-crash-bet/server/constant"
	"game-crash-bet/server/response"
	"game-crash-bet/server/utils"
)

func NewHTTPServer(lifecycle fx.Lifecycle, mux *http.ServeMux, c config.Configuration) {
	// 配置允许跨域请求
	options := cors.New(cors.Options{
		AllowCredentials: true,
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-CSRF-Token"},
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", c.Server.Port), Handler: options.Handler(mux)}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}

			fmt.Println("Starting HTTP server at", srv.Addr)
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// RequireAuth 拦截器验证用户是否登录
func RequireAuth(next RequestHandler) RequestHandler {
	return func(c *config.ServerConfig, w http.ResponseWriter, r *http.Request) {
		// 获取 URL 中的查询字符串参数
		queryParams := r.URL.Query()
		strToken := queryParams.Get("token")
		if len(strToken) <= 0 {
			tokenCookie, err := r.Cookie("token")
			if err != nil {
				response.Fail(constant.Code10012, constant.UserNotLogin, w)
				return
			}

			strToken = tokenCookie.Value
		}

		claims, err := utils.ParseJWT(strToken)
		if err != nil {
			response.Fail(constant.Code10012, constant.UserNotLogin, w)
			return
		}

		user, err := c.UserService.GetById(claims.UserId)
		if err != nil {
			response.Fail(constant.Code10012, constant.UserNotLogin, w)
			return
		}

		// 登出后UpdateAt变更,旧token全部失效
		if !claims.LastModifyTime.Equal(user.UpdateAt) {
			response.Fail(constant.Code10012, constant.UserNotLogin, w)
			return
		}

		if user.Status == constant.UserStatusBlocked {
			response.Fail(constant.Code10014, constant.UserBlocked, w)
			return
		}

		// 设置登录用户头信息
		r.Header.Set(constant.HeaderCustomUser, user.UserToJsonStr())
		r.Header.Set(constant.HeaderCustomToken, strToken)

		next(c, w, r)
	}
}

func NewServeMux(mux *http.ServeMux, c *config.ServerConfig) {

	middlewareAPI := NewBridgeBuilder(c).Build()
	middlewareAuth := NewBridgeBuilder(c).WithPostMiddlewares(RequireAuth).Build()

	// websocket连接不做前置认证:未认证连接可旁观广播,认证走连接内authenticate消息
	mux.HandleFunc("/ws", middlewareAPI(handlerSocketConnection))
	mux.HandleFunc("/api/game/history", middlewareAPI(handlerGameHistory))

	mux.HandleFunc("/api/user/register", middlewareAPI(handlerUserRegister))
	mux.HandleFunc("/api/user/login", middlewareAPI(handlerUserLogin))
	mux.HandleFunc("/api/user/logout", middlewareAuth(handlerUserLogout))
	mux.HandleFunc("/api/user/current", middlewareAuth(handlerGetUser))
	mux.HandleFunc("/api/user/records", middlewareAuth(handlerBetRecords))
}

// ParseBody parse the request body into the type of value.
func ParseBody(r io.Reader, value any) error {
	body, err := io.ReadAll(r)
	if err != nil {
		fmt.Printf("read body err, %v\n", err)
		return err
	}

	err = json.Unmarshal(body, &value)
	if err != nil {
		return fmt.Errorf("unable to parse body: %w", err)
	}

	valid, err := govalidator.ValidateStruct(value)

	if err != nil {
		return fmt.Errorf("unable to validate body: %w", err)
	}

	if !valid {
		return fmt.Errorf("Body is not valid")
	}

	return nil
}
