// Package mqtt is the optional MQTT transport: the same JSON command
// schema as the socket server, carried over a broker. Commands arrive on
// <prefix>/command and each response is published to <prefix>/response.
package mqtt

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"huelink/internal/config"
	"huelink/internal/core"
	"huelink/internal/server"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Client struct {
	ctx     context.Context
	client  mqtt.Client
	cfg     *config.Config
	handler server.Handler
	prefix  string
}

// NewClient builds the MQTT transport, or returns nil when disabled.
func NewClient(ctx context.Context, cfg *config.Config, handler server.Handler) *Client {
	if !cfg.MQTT.Enabled {
		return nil
	}

	prefix := strings.TrimSuffix(cfg.MQTT.TopicPrefix, "/")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.Broker)
	opts.SetClientID(cfg.MQTT.ClientID)
	opts.SetUsername(cfg.MQTT.Username)
	opts.SetPassword(cfg.MQTT.Password)

	opts.SetKeepAlive(10 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)

	// Keep retrying the first connect so a broker that comes up after
	// us does not kill the transport.
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetOrderMatters(false)

	opts.SetWill(prefix+"/availability", "offline", 1, true)

	c := &Client{
		ctx:     ctx,
		cfg:     cfg,
		handler: handler,
		prefix:  prefix,
	}

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("[MQTT] Connection lost: %v. Retrying in background...", err)
	})
	opts.SetReconnectingHandler(func(client mqtt.Client, options *mqtt.ClientOptions) {
		log.Println("[MQTT] Attempting to reconnect...")
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect initiates the broker connection.
func (c *Client) Connect() error {
	if c == nil {
		return nil
	}
	log.Printf("[MQTT] Connecting to %s...", c.cfg.MQTT.Broker)
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		log.Printf("[MQTT] Initial connection error: %v", token.Error())
		return token.Error()
	}
	return nil
}

// Disconnect publishes offline availability and closes the socket.
func (c *Client) Disconnect() {
	if c == nil || !c.client.IsConnected() {
		return
	}
	log.Println("[MQTT] Disconnecting...")
	token := c.client.Publish(c.prefix+"/availability", 0, true, "offline")
	if !token.WaitTimeout(2 * time.Second) {
		log.Println("[MQTT] Warning: timed out publishing offline status")
	}
	c.client.Disconnect(250)
	log.Println("[MQTT] Disconnected.")
}

func (c *Client) onConnect(client mqtt.Client) {
	log.Println("[MQTT] Connected to broker.")

	topic := c.prefix + "/command"
	if token := client.Subscribe(topic, 1, c.handleCommand); token.Wait() && token.Error() != nil {
		log.Printf("[MQTT] Error subscribing to %s: %v", topic, token.Error())
	} else {
		log.Printf("[MQTT] Subscribed to %s", topic)
	}

	c.publish("availability", "online", true)
}

// handleCommand feeds one message through the interpreter. Same error
// contract as the socket transports: malformed payloads produce one
// error response on the response topic.
func (c *Client) handleCommand(client mqtt.Client, msg mqtt.Message) {
	var cmd core.Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		c.publishResponse(core.Errorf("invalid JSON: " + err.Error()))
		return
	}
	c.publishResponse(c.handler.Handle(c.ctx, cmd))
}

func (c *Client) publishResponse(resp core.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[MQTT] Error marshalling response: %v", err)
		return
	}
	c.publish("response", string(data), false)
}

func (c *Client) publish(subtopic, payload string, retained bool) {
	if c.client == nil || !c.client.IsConnected() {
		return
	}
	topic := c.prefix + "/" + subtopic
	token := c.client.Publish(topic, 0, retained, payload)
	go func() {
		if token.WaitTimeout(5 * time.Second) {
			if token.Error() != nil {
				log.Printf("[MQTT] Publish error to %s: %v", topic, token.Error())
			}
		} else {
			log.Printf("[MQTT] Timeout publishing to %s", topic)
		}
	}()
}
