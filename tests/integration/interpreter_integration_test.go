package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotsnack/backend/internal/bridge"
	"github.com/spotsnack/backend/internal/config"
	"github.com/spotsnack/backend/internal/gateway"
	"github.com/spotsnack/backend/tests/helpers"
)

func newRouter(cfg config.InterpreterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := gateway.NewHandler(bridge.New(cfg))
	gateway.RegisterRoutes(router, gateway.Routes{
		Handler: handler,
		Socket:  gateway.NewChatSocket(handler, "*"),
	})
	return router
}

func post(t *testing.T, router http.Handler, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w.Code, decoded
}

func TestInterpreterOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		cfg        func(t *testing.T) config.InterpreterConfig
		path       string
		body       string
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "chat reply is passed through",
			cfg:        func(t *testing.T) config.InterpreterConfig { return helpers.WriteInterpreter(t, helpers.ChatReplyScript) },
			path:       "/chat",
			body:       `{"message":"vegan food?"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Try Café Luna", body["reply"])
				assert.Len(t, body["places"], 1)
			},
		},
		{
			name:       "vibe reply is passed through",
			cfg:        func(t *testing.T) config.InterpreterConfig { return helpers.WriteInterpreter(t, helpers.VibeReplyScript) },
			path:       "/api/vibe",
			body:       `{"placeIndex":2}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "cozy and quiet", body["vibe"])
			},
		},
		{
			name:       "crash maps to chatbot_failed",
			cfg:        func(t *testing.T) config.InterpreterConfig { return helpers.WriteInterpreter(t, helpers.CrashScript) },
			path:       "/chat",
			body:       `{"message":"hi"}`,
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "chatbot_failed", body["error"])
				assert.Equal(t, float64(1), body["exitCode"])
				assert.Contains(t, body["stderr"], "Traceback: boom")
			},
		},
		{
			name:       "garbage maps to invalid_json_from_python",
			cfg:        func(t *testing.T) config.InterpreterConfig { return helpers.WriteInterpreter(t, helpers.GarbageScript) },
			path:       "/api/chat",
			body:       `{"message":"hi"}`,
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "invalid_json_from_python", body["error"])
				assert.Equal(t, "not json\n", body["raw"])
			},
		},
		{
			name:       "missing interpreter maps to python_spawn_failed",
			cfg:        helpers.MissingInterpreter,
			path:       "/vibe",
			body:       `{"place_index":1}`,
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "python_spawn_failed", body["error"])
				assert.NotEmpty(t, body["details"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(tt.cfg(t))
			status, body := post(t, router, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			tt.check(t, body)
		})
	}
}

func TestInterpreterReceivesEnvelope(t *testing.T) {
	router := newRouter(helpers.WriteInterpreter(t, helpers.EchoScript))

	status, body := post(t, router, "/chat",
		`{"message":"coffee?","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`)
	require.Equal(t, http.StatusOK, status)

	echo, ok := body["echo"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "chat", echo["mode"])
	assert.Equal(t, "coffee?", echo["message"])
	assert.Len(t, echo["history"], 2)

	status, body = post(t, router, "/vibe", `{"place_index":4}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"mode": "vibe", "place_index": float64(4)}, body["echo"])
}

func TestInvalidRequestsNeverSpawn(t *testing.T) {
	// Any spawn would leave a marker file behind in the working directory.
	cfg := helpers.WriteInterpreter(t, `touch spawned; echo '{}'`)
	router := newRouter(cfg)

	status, body := post(t, router, "/chat", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "message is required", body["error"])

	status, body = post(t, router, "/vibe", `{"placeIndex":"3"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "place_index_required", body["error"])

	assert.NoFileExists(t, cfg.WorkDir+"/spawned")
}

func TestConcurrentRequestsAreIsolated(t *testing.T) {
	router := newRouter(helpers.WriteInterpreter(t, helpers.EchoScript))

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			payload, _ := json.Marshal(map[string]int{"placeIndex": index})

			req := httptest.NewRequest(http.MethodPost, "/vibe", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			var body struct {
				Echo struct {
					PlaceIndex int `json:"place_index"`
				} `json:"echo"`
			}
			if assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)) {
				assert.Equal(t, index, body.Echo.PlaceIndex)
			}
		}(i)
	}
	wg.Wait()
}

func TestChatSocketRoundTrip(t *testing.T) {
	server := httptest.NewServer(newRouter(helpers.WriteInterpreter(t, helpers.ChatReplyScript)))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"lunch?"}`)))

	var reply struct {
		Status int                    `json:"status"`
		Body   map[string]interface{} `json:"body"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, http.StatusOK, reply.Status)
	assert.Equal(t, "Try Café Luna", reply.Body["reply"])
}
