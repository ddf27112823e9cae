// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// PasswordEnv holds the link password so it never appears on the command line
const PasswordEnv = "ROVER_PASSWORD"

// Connection provides a common interface for reading/writing bytes from
// serial, WebSocket or MQTT. Reads return 0, nil when nothing arrived
// within the read timeout.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// ErrConnectionClosed is returned when reading from a closed connection
var ErrConnectionClosed = errors.New("connection closed")

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// messageQueue turns message-oriented transports into a byte stream with a
// bounded read wait. Messages are pushed by a receive goroutine or callback.
type messageQueue struct {
	ch      chan []byte
	timeout time.Duration

	buf       []byte
	bufOffset int

	mu     sync.Mutex
	closed bool
	err    error
}

func newMessageQueue(timeout time.Duration) *messageQueue {
	return &messageQueue{
		ch:      make(chan []byte, 64),
		timeout: timeout,
	}
}

// push queues a message, dropping it if the reader has fallen far behind
func (q *messageQueue) push(data []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	select {
	case q.ch <- data:
	default:
		glog.Warningf("receive queue full, dropped %d bytes", len(data))
	}
}

// fail ends the stream; pending messages are still delivered first
func (q *messageQueue) fail(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.err = err
	close(q.ch)
}

func (q *messageQueue) Read(p []byte) (int, error) {
	if q.bufOffset < len(q.buf) {
		n := copy(p, q.buf[q.bufOffset:])
		q.bufOffset += n
		return n, nil
	}

	var timeout <-chan time.Time
	if q.timeout > 0 {
		timer := time.NewTimer(q.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case data, ok := <-q.ch:
		if !ok {
			q.mu.Lock()
			err := q.err
			q.mu.Unlock()
			if err == nil {
				err = ErrConnectionClosed
			}
			return 0, err
		}
		q.buf = data
		q.bufOffset = copy(p, data)
		return q.bufOffset, nil
	case <-timeout:
		return 0, nil
	}
}

// WebSocketConnection carries the byte stream in binary WebSocket messages
type WebSocketConnection struct {
	conn  *websocket.Conn
	queue *messageQueue
}

func newWebSocketConnection(conn *websocket.Conn, readTimeout time.Duration) *WebSocketConnection {
	w := &WebSocketConnection{conn: conn, queue: newMessageQueue(readTimeout)}
	go w.receive()
	return w
}

func (w *WebSocketConnection) receive() {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = io.EOF
			}
			w.queue.fail(err)
			return
		}

		// Text messages are bridge chatter, not link data
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.queue.push(data)
	}
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	return w.queue.Read(p)
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// MQTTLogSuffix names the topic that carries the vehicle's diagnostics,
// relative to the frame topic
const MQTTLogSuffix = "/log"

// MQTTConnection carries the byte stream as MQTT payloads. Write publishes
// to one topic and Read returns what arrives on another, so the vehicle
// and the controller each use the other's publish topic.
type MQTTConnection struct {
	client   paho.Client
	pubTopic string
	queue    *messageQueue
}

func (m *MQTTConnection) Read(p []byte) (int, error) {
	return m.queue.Read(p)
}

func (m *MQTTConnection) Write(p []byte) (int, error) {
	payload := make([]byte, len(p))
	copy(payload, p)
	token := m.client.Publish(m.pubTopic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return 0, fmt.Errorf("publish to %s failed: %w", m.pubTopic, err)
	}
	return len(p), nil
}

func (m *MQTTConnection) Close() error {
	m.queue.fail(io.EOF)
	m.client.Disconnect(250)
	return nil
}

// OpenSerialConnection opens a serial port connection. A positive
// readTimeout bounds every Read.
func OpenSerialConnection(portName string, baudRate int, readTimeout time.Duration) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
		}
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool, readTimeout time.Duration) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketConnection(conn, readTimeout), nil
}

// MQTTOptionsFromURL builds client options from a broker URL such as
// mqtt://user@broker:1883. A client-id query parameter overrides the
// generated client ID.
func MQTTOptionsFromURL(brokerURL, username, password string) (*paho.ClientOptions, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL: %w", err)
	}

	var server string
	switch u.Scheme {
	case "", "mqtt", "tcp":
		server = "tcp"
	case "mqtts", "ssl", "tls":
		server = "ssl"
	case "ws", "wss":
		server = u.Scheme
	default:
		return nil, fmt.Errorf("unsupported broker scheme: %s", u.Scheme)
	}
	server += "://" + u.Host

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)

	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	clientID := u.Query().Get("client-id")
	if clientID == "" {
		clientID = MQTTClientID()
	}
	opts.SetClientID(clientID)

	return opts, nil
}

// MQTTClientID derives a stable client ID from the machine ID so a
// reconnecting tool takes over its previous session
func MQTTClientID() string {
	id, err := machineid.ProtectedID("rover")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return fmt.Sprintf("rover-%d", time.Now().UnixNano())
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return "rover-" + id
}

// OpenMQTTConnection connects to a broker, subscribes to subTopic and
// publishes writes to pubTopic
func OpenMQTTConnection(brokerURL, subTopic, pubTopic, username, password string, readTimeout time.Duration) (Connection, error) {
	opts, err := MQTTOptionsFromURL(brokerURL, username, password)
	if err != nil {
		return nil, err
	}

	m := &MQTTConnection{pubTopic: pubTopic, queue: newMessageQueue(readTimeout)}
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		glog.Warningf("connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(c paho.Client) {
		glog.Info("connected")
		token := c.Subscribe(subTopic, 0, func(_ paho.Client, msg paho.Message) {
			glog.V(2).Infof("RCV %q %d bytes", msg.Topic(), len(msg.Payload()))
			m.queue.push(msg.Payload())
		})
		if token.Wait() && token.Error() != nil {
			glog.Errorf("subscribe %q failed: %v", subTopic, token.Error())
		}
	})

	m.client = paho.NewClient(opts)
	token := m.client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("MQTT connection to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("MQTT connection failed: %w", err)
	}

	return m, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens the vehicle side of the link based on flags. It is
// also the view of the link that monitoring tools use: frames are read and
// diagnostics are written.
func OpenConnection() (Connection, string, error) {
	return openLink(false)
}

// OpenControllerConnection opens the controller side of the link: frames
// are written and diagnostics are read.
func OpenControllerConnection() (Connection, string, error) {
	return openLink(true)
}

func openLink(controller bool) (Connection, string, error) {
	password := ""
	if linkUsername != "" && (wsURL != "" || mqttURL != "") {
		var err error
		password, err = GetPassword()
		if err != nil {
			return nil, "", err
		}
	}

	if mqttURL != "" {
		subTopic, pubTopic := mqttTopic, mqttTopic+MQTTLogSuffix
		if controller {
			subTopic, pubTopic = pubTopic, subTopic
		}
		conn, err := OpenMQTTConnection(mqttURL, subTopic, pubTopic, linkUsername, password, readTimeout)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("MQTT: %s topic %s", mqttURL, mqttTopic), nil
	}

	if wsURL != "" {
		conn, err := OpenWebSocketConnection(wsURL, linkUsername, password, wsNoSSLVerify, readTimeout)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		conn, err := OpenSerialConnection(portName, baudRate, readTimeout)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("one of --port, --url or --mqtt must be specified")
}
