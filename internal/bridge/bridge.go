package bridge

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iimcz/caas-a01/internal/control"
)

const (
	ClientID       = "art01-recv"
	SubscribeTopic = "art01/#"
	DefaultMessage = "AdvanceStagePulsing 3"
)

type Options struct {
	Server   string
	Port     int
	Username string
	Password string
	TLS      bool

	// Message is sent verbatim to Target on every crossing.
	Message string
	Target  string
}

// FromEnv reads MQTT_SERVER, MQTT_PORT, MQTT_USERNAME, MQTT_PASSWORD,
// MQTT_TLS, ANIMATION_MESSAGE, ANIMATION_MESSAGE_IP and ANIMATION_MESSAGE_PORT.
func FromEnv(getenv func(string) string) (Options, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	o := Options{
		Server:   getenv("MQTT_SERVER"),
		Username: getenv("MQTT_USERNAME"),
		Password: getenv("MQTT_PASSWORD"),
		TLS:      true,
		Message:  DefaultMessage,
	}
	if o.Server == "" {
		return o, errors.New("MQTT_SERVER is not set")
	}
	p, err := strconv.Atoi(getenv("MQTT_PORT"))
	if err != nil {
		return o, fmt.Errorf("MQTT_PORT: %w", err)
	}
	o.Port = p
	if v := getenv("MQTT_TLS"); v != "" {
		if o.TLS, err = strconv.ParseBool(v); err != nil {
			return o, fmt.Errorf("MQTT_TLS: %w", err)
		}
	}
	if v := getenv("ANIMATION_MESSAGE"); v != "" {
		o.Message = v
	}
	if _, err := control.Parse(o.Message); err != nil {
		return o, fmt.Errorf("ANIMATION_MESSAGE: %w", err)
	}
	host := getenv("ANIMATION_MESSAGE_IP")
	if host == "" {
		host = "127.0.0.1"
	}
	port := getenv("ANIMATION_MESSAGE_PORT")
	if port == "" {
		port = strconv.Itoa(control.DefaultPort)
	}
	o.Target = net.JoinHostPort(host, port)
	return o, nil
}

// Broker is the paho broker URL.
func (o Options) Broker() string {
	scheme := "tcp"
	if o.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, o.Server, o.Port)
}

type Bridge struct {
	mu       sync.Mutex
	deciders map[string]*Decider
	conn     net.Conn
	message  []byte
}

// New dials the control port. Topics not in deciders are ignored.
func New(target, message string, deciders map[string]*Decider) (*Bridge, error) {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return nil, fmt.Errorf("dial control %s: %w", target, err)
	}
	return &Bridge{deciders: deciders, conn: conn, message: []byte(message)}, nil
}

// Handle feeds one payload to the topic's decider and sends the command when
// it fires.
func (b *Bridge) Handle(topic string, payload []byte) (bool, error) {
	b.mu.Lock()
	d, ok := b.deciders[topic]
	if !ok {
		b.mu.Unlock()
		return false, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		b.mu.Unlock()
		return false, fmt.Errorf("%s: payload is not a number: %w", topic, err)
	}
	fire := d.ShouldAnimate(v)
	b.mu.Unlock()

	if !fire {
		return false, nil
	}
	log.Info().Str("topic", topic).Float64("value", v).Msg("sending animation message")
	if _, err := b.conn.Write(b.message); err != nil {
		return true, fmt.Errorf("send animation message: %w", err)
	}
	return true, nil
}

func (b *Bridge) onMessage(_ mqtt.Client, m mqtt.Message) {
	if _, err := b.Handle(m.Topic(), m.Payload()); err != nil {
		log.Warn().Err(err).Msg("mqtt message")
	}
}

func (b *Bridge) Close() error { return b.conn.Close() }

// Run connects to the broker, subscribes and handles messages until ctx is
// done. Subscriptions are renewed on every reconnect.
func (b *Bridge) Run(ctx context.Context, o Options) error {
	opts := mqtt.NewClientOptions().
		AddBroker(o.Broker()).
		SetClientID(ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetUsername(o.Username).
		SetPassword(o.Password).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Info().Str("broker", o.Broker()).Msg("mqtt connected")
			tok := c.Subscribe(SubscribeTopic, 0, b.onMessage)
			if tok.WaitTimeout(10*time.Second) && tok.Error() != nil {
				log.Error().Err(tok.Error()).Str("topic", SubscribeTopic).Msg("mqtt subscribe")
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost")
		})
	if o.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	c := mqtt.NewClient(opts)
	log.Info().Str("broker", o.Broker()).Msg("connecting to mqtt")
	tok := c.Connect()
	select {
	case <-ctx.Done():
		c.Disconnect(250)
		return nil
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
	}

	<-ctx.Done()
	c.Disconnect(250)
	return nil
}

// pahoLogger routes paho's internal logging into zerolog.
type pahoLogger struct{ level zerolog.Level }

func (l pahoLogger) Println(v ...interface{}) {
	log.WithLevel(l.level).Str("component", "paho").Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l pahoLogger) Printf(format string, v ...interface{}) {
	log.WithLevel(l.level).Str("component", "paho").Msgf(format, v...)
}

// EnableLogging installs zerolog-backed paho loggers.
func EnableLogging(debug bool) {
	mqtt.ERROR = pahoLogger{zerolog.ErrorLevel}
	mqtt.CRITICAL = pahoLogger{zerolog.ErrorLevel}
	mqtt.WARN = pahoLogger{zerolog.WarnLevel}
	if debug {
		mqtt.DEBUG = pahoLogger{zerolog.DebugLevel}
	}
}
