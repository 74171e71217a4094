package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/internal/service"
	"kolaboree-backend/pkg/utils"
)

const (
	consoleAuthTimeout = 30 * time.Second
	consoleReadBuffer  = 4096
)

// consoleAuth is the first message a console client sends. Username may also
// be given in the query string.
type consoleAuth struct {
	Username   string `json:"username"`
	AuthType   string `json:"auth_type"`
	Password   string `json:"password"`
	PrivateKey string `json:"private_key"`
	Passphrase string `json:"passphrase"`
	Cols       int    `json:"cols"`
	Rows       int    `json:"rows"`
}

// consoleMessage carries keystrokes ("input") or a terminal size change
// ("resize") from the browser.
type consoleMessage struct {
	Type string `json:"type"`
	Data string `json:"data"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

type ConsoleHandler struct {
	consoleService *service.ConsoleService
	upgrader       websocket.Upgrader
}

func NewConsoleHandler(consoleService *service.ConsoleService, allowedOrigins []string) *ConsoleHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &ConsoleHandler{
		consoleService: consoleService,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   consoleReadBuffer,
			WriteBufferSize:  consoleReadBuffer,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

func (h *ConsoleHandler) TestConnection(c *gin.Context) {
	var req model.ConsoleTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if err := validateTarget(req.Host, req.Port); err != nil {
		respondError(c, err)
		return
	}
	if err := validateSecret(req.AuthType, req.Password, req.PrivateKey); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.consoleService.TestConnection(&req))
}

func (h *ConsoleHandler) BatchTestConnection(c *gin.Context) {
	var req model.BatchConsoleTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	for _, n := range req.Nodes {
		if err := validateTarget(n.Host, n.Port); err != nil {
			respondError(c, err)
			return
		}
		if err := validateSecret(n.AuthType, n.Password, n.PrivateKey); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, h.consoleService.BatchTestConnection(&req))
}

func validateTarget(host string, port int) error {
	if err := utils.ValidateHost(host); err != nil {
		return utils.NewValidationError("host", host)
	}
	if port != 0 {
		if err := utils.ValidatePort(port); err != nil {
			return utils.NewValidationError("port", port)
		}
	}
	return nil
}

func validateSecret(authType, password, privateKey string) error {
	switch authType {
	case "key":
		if err := utils.ValidatePrivateKey(privateKey); err != nil {
			return utils.NewValidationError("private_key", err.Error())
		}
	case "password":
		if password == "" {
			return utils.NewValidationError("password", "")
		}
	}
	return nil
}

// Shell bridges a browser terminal to an SSH shell on a node. The target comes
// from the query string and the login from the first websocket message.
func (h *ConsoleHandler) Shell(c *gin.Context) {
	host := c.Query("host")
	username := c.Query("username")
	port := 22
	if p := c.Query("port"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			respondError(c, utils.NewValidationError("port", p))
			return
		}
		port = n
	}
	if err := validateTarget(host, port); err != nil {
		respondError(c, err)
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	auth, err := readConsoleAuth(ws, username)
	if err != nil {
		zap.L().Warn("console auth message rejected", zap.String("host", host), zap.Error(err))
		closeWithReason(ws, websocket.ClosePolicyViolation, err.Error())
		return
	}

	session, err := h.consoleService.OpenShell(&model.ConsoleTestRequest{
		Host:       host,
		Port:       port,
		Username:   auth.Username,
		AuthType:   auth.AuthType,
		Password:   auth.Password,
		PrivateKey: auth.PrivateKey,
		Passphrase: auth.Passphrase,
	}, auth.Cols, auth.Rows)
	if err != nil {
		zap.L().Error("console ssh failed", zap.String("host", host), zap.String("username", auth.Username), zap.Error(err))
		closeWithReason(ws, websocket.CloseInternalServerErr, "ssh connection failed")
		return
	}
	defer session.Close()

	var writeMu sync.Mutex
	done := make(chan struct{})

	// ssh -> browser
	go func() {
		defer close(done)
		buf := make([]byte, consoleReadBuffer)
		for {
			n, err := session.Stdout.Read(buf)
			if n > 0 {
				writeMu.Lock()
				werr := ws.WriteMessage(websocket.TextMessage, buf[:n])
				writeMu.Unlock()
				if werr != nil {
					zap.L().Warn("WebSocket write error", zap.Error(werr))
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	// browser -> ssh
	go func() {
		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				session.Close()
				return
			}
			var m consoleMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				zap.L().Warn("Invalid WebSocket message", zap.Error(err))
				continue
			}
			switch m.Type {
			case "resize":
				if err := session.Resize(m.Cols, m.Rows); err != nil {
					zap.L().Warn("console resize failed", zap.Error(err))
				}
			default:
				if _, err := session.Stdin.Write([]byte(m.Data)); err != nil {
					session.Close()
					return
				}
			}
		}
	}()

	<-done
	if err := session.Wait(); err != nil {
		zap.L().Debug("console shell exited", zap.String("host", host), zap.Error(err))
	}
	closeWithReason(ws, websocket.CloseNormalClosure, "session ended")
	zap.L().Info("console session closed", zap.String("host", host))
}

func readConsoleAuth(ws *websocket.Conn, username string) (*consoleAuth, error) {
	if err := ws.SetReadDeadline(time.Now().Add(consoleAuthTimeout)); err != nil {
		return nil, err
	}
	_, msg, err := ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	if err := ws.SetReadDeadline(time.Time{}); err != nil {
		return nil, err
	}

	var auth consoleAuth
	if err := json.Unmarshal(msg, &auth); err != nil {
		return nil, errors.New("first message must be a JSON auth object")
	}
	if auth.Username == "" {
		auth.Username = username
	}
	if auth.Username == "" {
		return nil, errors.New("username is required")
	}
	if auth.AuthType != "password" && auth.AuthType != "key" {
		return nil, errors.New("auth_type must be password or key")
	}
	if err := validateSecret(auth.AuthType, auth.Password, auth.PrivateKey); err != nil {
		return nil, err
	}
	return &auth, nil
}

func closeWithReason(ws *websocket.Conn, code int, reason string) {
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}
