package utils

import (
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims
	UserId         int64     `json:"userId"`
	Username       string    `json:"username"`
	LastModifyTime time.Time `json:"lastModifyTime"`
}

const SECRET = "crashKey"

// CreateJWT 生成JWT
func CreateJWT(userId int64, username string, lastModifyTime time.Time) (string, error) {
	key := []byte(SECRET)
	claims := Claims{
		UserId:         userId,
		Username:       username,
		LastModifyTime: lastModifyTime,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "crash-bet-game",                                   // 签发人
			IssuedAt:  jwt.NewNumericDate(time.Now()),                     // 签发时间
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)), // 过期时间
			NotBefore: jwt.NewNumericDate(time.Now()),                     // 生效时间
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		log.Println("create JWT error: ", err)
		return "", err
	}
	return tokenString, nil
}

// Secret 返回秘钥
func Secret() jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		return []byte(SECRET), nil
	}
}

// ParseJWT 解析JWT
func ParseJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, Secret())
	if err != nil {
		log.Println("parse JWT error: ", err)
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("couldn't parse this token")
}
