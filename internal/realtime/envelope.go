package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types carried on the operator channel.
const (
	MessageMOTD    = "motd"
	MessageUsers   = "users"
	MessageMessage = "message"
	MessageError   = "error"
)

// Envelope is one frame sent to operators. Topic frames carry a topic and
// no message type.
type Envelope struct {
	MessageType string      `json:"messageType,omitempty"`
	Topic       string      `json:"topic,omitempty"`
	Data        interface{} `json:"data"`
}

// Inbound is a frame received from an operator.
type Inbound struct {
	MessageType string          `json:"messageType"`
	Data        json.RawMessage `json:"data"`
}

// MOTD greets a new connection and tells it its connection id.
type MOTD struct {
	Text         string `json:"text"`
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
}

// RosterEntry is one live connection in a users frame.
type RosterEntry struct {
	Username     string    `json:"username"`
	ConnectionID string    `json:"connectionId"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

// ChatMessage is an operator message relayed to everyone else.
type ChatMessage struct {
	From string          `json:"from"`
	Body json.RawMessage `json:"body"`
}

// ErrorPayload is the data of an error frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FulfillmentChanged is published after a fulfillment commit.
type FulfillmentChanged struct {
	Fulfilled    bool    `json:"fulfilled"`
	Distribution string  `json:"distribution"`
	Family       string  `json:"family"`
	Day          *int    `json:"day"`
	Time         *string `json:"time"`
}

// ClientArrived is published when a greeter checks a family in.
type ClientArrived struct {
	ArrivalTime string `json:"arrivalTime"`
}

// FulfilledTopic addresses fulfillment changes of one family.
func FulfilledTopic(distribution, family string) string {
	return fmt.Sprintf("appointmentFulfilled/%s/%s", distribution, family)
}

// ArrivedTopic addresses arrival signals of one family.
func ArrivedTopic(distribution, family string) string {
	return fmt.Sprintf("clientArrived/%s/%s", distribution, family)
}
