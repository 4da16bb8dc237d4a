package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"dashstream/utils/resty"
)

func signed(t *testing.T, exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestUsable(t *testing.T) {
	now := time.Now()

	require.Equal(t, "", Usable("", now))
	require.Equal(t, "", Usable("   ", now))
	require.Equal(t, "opaque-session-token", Usable("opaque-session-token", now))

	valid := signed(t, now.Add(time.Hour))
	require.Equal(t, valid, Usable(valid, now))

	expired := signed(t, now.Add(-time.Minute))
	require.Equal(t, "", Usable(expired, now))
}

func TestProviders(t *testing.T) {
	ctx := context.Background()

	tok, err := StaticToken("abc").Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	t.Setenv("DASHSTREAM_TEST_TOKEN", "first")
	provider := EnvToken("DASHSTREAM_TEST_TOKEN")
	tok, _ = provider.Token(ctx)
	require.Equal(t, "first", tok)

	// 매 호출마다 새로 읽는다
	t.Setenv("DASHSTREAM_TEST_TOKEN", "second")
	tok, _ = provider.Token(ctx)
	require.Equal(t, "second", tok)
}

func TestRemoteTokenProvider(t *testing.T) {
	var status = http.StatusOK
	client := resty.NewMockRestyClient([]resty.MockFunc{{
		Method: http.MethodGet,
		Path:   "http://api/auth/ws-token",
		ResultBody: func(header map[string]string, _ any, _ ...resty.QueryParam) (resty.MockFuncResponse, error) {
			require.Equal(t, "Bearer key-1", header["Authorization"])
			return resty.MockFuncResponse{
				StatusCode: status,
				Body:       map[string]string{"access_token": "tok-1"},
			}, nil
		},
	}})
	provider := NewRemoteTokenProvider("http://api/auth/ws-token", "key-1", client)

	tok, err := provider.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	status = http.StatusUnauthorized
	tok, err = provider.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "", tok)

	status = http.StatusInternalServerError
	_, err = provider.Token(context.Background())
	require.ErrorIs(t, err, ErrTokenEndpoint)
}
