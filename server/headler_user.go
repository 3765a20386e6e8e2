package src

import (
	"net/http"
	"strings"

	"github.com/go-crypt/crypt"
	"go.uber.org/zap"

	"game-crash-bet/server/config"
	"game-crash-bet/server/constant"
	"game-crash-bet/server/db"
	"game-crash-bet/server/response"
	"game-crash-bet/server/service"
	"game-crash-bet/server/utils"
)

type TempUser struct {
	db.User
	Token string `json:"token"`
}

// handlerUserRegister 注册:用户名>=3,密码>=6,邮箱必填,初始余额取配置
func handlerUserRegister(c *config.ServerConfig, w http.ResponseWriter, r *http.Request) {
	var req service.RegisterReq
	if err := ParseBody(r.Body, &req); err != nil {
		response.ParamError(w)
		return
	}

	if len(req.Username) < 3 || len(req.Password) < 6 || !strings.Contains(req.Email, "@") {
		response.ParamError(w)
		return
	}

	digest, err := c.Hash.Hash(req.Password)
	if err != nil {
		c.Logger.Error("password hash error", zap.Error(err))
		response.SystemError(w)
		return
	}

	if _, err = c.UserService.Register(req, digest.Encode(), c.Config.User.DefaultBalance); err != nil {
		switch err.Error() {
		case constant.UsernameExist:
			response.Fail(constant.Code10002, constant.UsernameExist, w)
		case constant.EmailExist:
			response.Fail(constant.Code10003, constant.EmailExist, w)
		default:
			response.SystemError(w)
		}
		return
	}

	response.SuccessWithMsg("Registration successful! Please log in.", w)
}

// handlerUserLogin 登录:校验密码,封禁账号直接拒绝,签发JWT
func handlerUserLogin(c *config.ServerConfig, w http.ResponseWriter, r *http.Request) {
	var body service.LoginBody
	if err := ParseBody(r.Body, &body); err != nil {
		response.ParamError(w)
		return
	}

	user, err := c.UserService.GetByUsername(body.Username)
	if err != nil || user == (db.User{}) {
		response.Fail(constant.Code10007, constant.LoginFailed, w)
		return
	}

	if user.Status == constant.UserStatusBlocked {
		response.Fail(constant.Code10014, constant.UserBlocked, w)
		return
	}

	valid, err := crypt.CheckPassword(body.Password, user.Password)
	if err != nil || !valid {
		response.Fail(constant.Code10007, constant.LoginFailed, w)
		return
	}

	token, err := utils.CreateJWT(user.ID, user.Username, user.UpdateAt)
	if err != nil {
		c.Logger.Error("create JWT error", zap.Error(err))
		response.SystemError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Domain:   "",
		HttpOnly: false,
	})

	response.SuccessWithData(TempUser{user, token}, w)
}

// handlerUserLogout 登出:更新UpdateAt使已签发token全部失效
func handlerUserLogout(c *config.ServerConfig, w http.ResponseWriter, r *http.Request) {
	user := db.User{}
	if err := user.JsonStrToUser(r.Header.Get(constant.HeaderCustomUser)); err != nil {
		response.Fail(constant.Code10012, constant.UserNotLogin, w)
		return
	}

	if _, err := c.UserService.Logout(user); err != nil {
		response.SystemError(w)
		return
	}
	response.SuccessWithMsg("Logged out", w)
}

func handlerGetUser(c *config.ServerConfig, w http.ResponseWriter, r *http.Request) {
	user := db.User{}
	if err := user.JsonStrToUser(r.Header.Get(constant.HeaderCustomUser)); err != nil {
		c.Logger.Warn("json to user error", zap.Error(err))
	}

	user, err := c.UserService.GetById(user.ID)
	if err != nil {
		response.SystemError(w)
		return
	}
	response.SuccessWithData(user, w)
}

// handlerBetRecords 当前用户最近流水
func handlerBetRecords(c *config.ServerConfig, w http.ResponseWriter, r *http.Request) {
	user := db.User{}
	if err := user.JsonStrToUser(r.Header.Get(constant.HeaderCustomUser)); err != nil {
		response.Fail(constant.Code10012, constant.UserNotLogin, w)
		return
	}

	records, err := c.UserService.BetRecords(user.ID, 50)
	if err != nil {
		response.SystemError(w)
		return
	}
	response.SuccessWithData(records, w)
}
