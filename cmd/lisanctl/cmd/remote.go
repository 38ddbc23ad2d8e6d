package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/internal/api"
	ws "github.com/satriahrh/lisan/internal/websocket"
	"github.com/satriahrh/lisan/usecase"
)

var (
	remoteServer   string
	remoteUsername string
	remotePassword string
	remoteFrom     string
	remoteTo       string
	remoteTimeout  time.Duration
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Talk to a running lisan server",
}

var remoteTranslateCmd = &cobra.Command{
	Use:   "translate <text>",
	Short: "Translate text through the server's websocket API",
	Long: `Logs in with the demo credentials, opens a websocket session and
translates text on the server.

Examples:
  lisanctl remote translate hello
  lisanctl remote translate --server http://localhost:9090 --to sd "thank you"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemoteTranslate,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.AddCommand(remoteTranslateCmd)

	remoteCmd.PersistentFlags().StringVar(&remoteServer, "server", "http://localhost:8080", "Server base URL")
	remoteCmd.PersistentFlags().StringVar(&remoteUsername, "username", "", "Login username (default: DEMO_USERNAME)")
	remoteCmd.PersistentFlags().StringVar(&remotePassword, "password", "", "Login password (default: DEMO_PASSWORD)")
	remoteCmd.PersistentFlags().DurationVar(&remoteTimeout, "timeout", 30*time.Second, "Overall timeout")
	remoteTranslateCmd.Flags().StringVar(&remoteFrom, "from", "", "Source language (default: DEFAULT_SOURCE_LANG)")
	remoteTranslateCmd.Flags().StringVar(&remoteTo, "to", "", "Target language (default: DEFAULT_TARGET_LANG)")
}

func runRemoteTranslate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRuntime()
	if err != nil {
		return err
	}
	if remoteUsername == "" {
		remoteUsername = cfg.Auth.Username
	}
	if remotePassword == "" {
		remotePassword = cfg.Auth.Password
	}

	client := &http.Client{Timeout: remoteTimeout}
	token, err := remoteLogin(client, remoteServer, remoteUsername, remotePassword)
	if err != nil {
		printError("login failed", err)
		return err
	}

	conn, err := dialSession(remoteServer, token)
	if err != nil {
		printError("websocket connection failed", err)
		return err
	}
	defer conn.Close()

	pair := resolvePair(cfg, remoteFrom, remoteTo)
	outgoing := []interface{}{
		map[string]string{"type": string(ws.MessageTypeSetLanguages), "source": string(pair.Source), "target": string(pair.Target)},
		map[string]string{"type": string(ws.MessageTypeSetSourceText), "text": strings.Join(args, " ")},
		map[string]string{"type": string(ws.MessageTypeTranslate)},
	}
	for _, msg := range outgoing {
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}

	result, err := awaitTranslation(conn, time.Now().Add(remoteTimeout))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

func remoteLogin(client *http.Client, server, username, password string) (string, error) {
	reqBody, _ := json.Marshal(api.LoginRequest{Username: username, Password: password})

	resp, err := client.Post(strings.TrimRight(server, "/")+"/api/v1/auth/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Message != "" {
			return "", errors.New(errResp.Message)
		}
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var loginResp api.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	return loginResp.Token, nil
}

func dialSession(server, token string) (*websocket.Conn, error) {
	wsURL, err := url.Parse(strings.TrimRight(server, "/") + "/ws")
	if err != nil {
		return nil, err
	}
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	q := wsURL.Query()
	q.Set("token", token)
	wsURL.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return conn, nil
}

// awaitTranslation reads server messages until the translate request settles.
// The success notification precedes the state that clears is_translating.
func awaitTranslation(conn *websocket.Conn, deadline time.Time) (string, error) {
	conn.SetReadDeadline(deadline)

	succeeded := false
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var base ws.BaseMessage
		if err := json.Unmarshal(message, &base); err != nil {
			continue
		}

		switch base.Type {
		case ws.MessageTypeError:
			var msg ws.ErrorMessage
			json.Unmarshal(message, &msg)
			return "", fmt.Errorf("%s: %s", msg.Message, msg.Details)

		case ws.MessageTypeNotificationAdded:
			var msg ws.NotificationAddedMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				continue
			}
			if msg.Notification.Kind == entities.NotificationError {
				return "", errors.New(msg.Notification.Description)
			}
			if msg.Notification.Title == "Success" {
				succeeded = true
			}

		case ws.MessageTypeState:
			var msg struct {
				State usecase.Snapshot `json:"state"`
			}
			if err := json.Unmarshal(message, &msg); err != nil {
				continue
			}
			if succeeded && !msg.State.IsTranslating {
				return msg.State.ResultText, nil
			}
		}
	}
}
