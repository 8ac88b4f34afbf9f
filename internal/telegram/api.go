package telegram

import (
	"fmt"
	"log"
	"net/http"

	"finance-bot/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/net/proxy"
)

// NewAPI connects to the configured Bot API endpoint, or the public one when
// none is set, going through the SOCKS5 proxy if there is one.
func NewAPI(cfg config.Config) (*tgbotapi.BotAPI, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	client := &http.Client{}
	if server := cfg.Proxy.Server; server != "" {
		log.Printf("telegram: using SOCKS5 proxy %s", server)
		var auth *proxy.Auth
		if cfg.Proxy.User != "" {
			auth = &proxy.Auth{User: cfg.Proxy.User, Password: cfg.Proxy.Pass}
		}
		dialer, err := proxy.SOCKS5("tcp", server, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("proxy dialer: %w", err)
		}
		transport := &http.Transport{}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.Dial = dialer.Dial
		}
		client.Transport = transport
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect to bot api: %w", err)
	}
	api.Debug = cfg.Debug

	log.Printf("telegram: authorized on account %s", api.Self.UserName)
	return api, nil
}
