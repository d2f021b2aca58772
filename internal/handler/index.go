package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const apiIndex = `# 12thMan API

Supporters post short "takes" on a fixture. Clients queue takes offline and push them here.

## Auth

POST /auth/register returns a bearer token. Send it as ` + "`Authorization: Bearer <token>`" + `.

## Routes

- POST /auth/register
- GET /auth/me (bearer)
- POST /takes/sync (bearer, 60/min per user, at most 10 takes)
- GET /takes/{id}
- GET /feed?fixtureId=&limit=&cursor=
- GET /feed/live?fixtureId= (websocket)
- GET /fixtures/{fixtureId}/ratings
- GET /healthz
- GET /readyz
- GET /swagger/index.html

## Errors

Every non-2xx response is ` + "`{\"error\":{\"code\",\"message\",\"details\"}}`" + `.
`

// RegisterIndex serves a markdown route map at / and /docs.
func RegisterIndex(r *gin.Engine) {
	serve := func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, apiIndex)
	}
	r.GET("/", serve)
	r.GET("/docs", serve)
}
