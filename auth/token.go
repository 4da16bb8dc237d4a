// Package auth : 스트림 접속 시점에 쓰는 인증 토큰 공급자
package auth

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"dashstream/utils/log"
)

// TokenProvider : 접속할 때마다 새로 호출된다. 토큰이 없으면 "" 반환
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc : 함수를 TokenProvider로 쓰기 위한 어댑터
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken : 고정 토큰
func StaticToken(token string) TokenProvider {
	return TokenFunc(func(context.Context) (string, error) {
		return token, nil
	})
}

// EnvToken : 호출 시점의 환경변수 값을 읽는다 (캐시하지 않음)
func EnvToken(name string) TokenProvider {
	return TokenFunc(func(context.Context) (string, error) {
		return os.Getenv(name), nil
	})
}

// Usable : 현재 유효한 토큰만 돌려준다
//   - JWT가 아닌 불투명 토큰은 그대로 통과
//   - exp가 지난 JWT는 없는 토큰("")으로 취급
func Usable(token string, now time.Time) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return token
	}
	if !claims.VerifyExpiresAt(now.Unix(), false) {
		log.Warnf("[Auth] token expired, connecting without token")
		return ""
	}
	return token
}
